package handwriting

import (
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/scribe/internal/fonttest"
	"github.com/matzehuels/scribe/pkg/font"
)

var testPen = Pen{DownMin: 67.25, DownMax: 66.85}

var testPage = Page{
	Left:       77,
	Right:      222,
	Top:        242.25,
	Bottom:     5,
	LineHeight: 10,
	DateX:      227.5,
}

var testMistakes = MistakeConfig{
	CrossingHeight:     0.4,
	Overhang:           1,
	MaxPointVariance:   0.15,
	MinForce:           0.75,
	MaxForce:           0.95,
	PointsPerCharacter: 15,
	TimePerCharacter:   0.1,
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// recorder is a Plotter that keeps everything it is given.
type recorder struct {
	traces []Trajectory
	events []string
}

func (r *recorder) Trace(t Trajectory) error {
	r.traces = append(r.traces, t)
	r.events = append(r.events, "trace")
	return nil
}

func (r *recorder) PageBreak() error {
	r.events = append(r.events, "page")
	return nil
}

func newTestWriter(t *testing.T, seed uint64) (*Writer, *recorder) {
	t.Helper()
	rec := &recorder{}
	w := NewWriter(fonttest.New(), Config{Page: testPage, Pen: testPen, Mistakes: testMistakes}, newRNG(seed), rec)
	return w, rec
}

// flatFont is the synthetic font without any per-point jitter.
func flatFont(t *testing.T) *font.Font {
	t.Helper()
	params := fonttest.Params
	params.MaxPointXVariance = 0
	params.MaxPointYVariance = 0
	f, err := font.New("flat", params, map[rune]font.Glyph{
		'a': fonttest.Glyph(true),
		'T': fonttest.Glyph(false),
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func checkMonotonic(t *testing.T, traj Trajectory) {
	t.Helper()
	for i := 1; i < len(traj.Samples); i++ {
		if traj.Samples[i].T <= traj.Samples[i-1].T {
			t.Fatalf("timestamps not increasing at %d: %v then %v", i, traj.Samples[i-1].T, traj.Samples[i].T)
		}
	}
}

func checkPenBounds(t *testing.T, traj Trajectory) {
	t.Helper()
	for i, s := range traj.Samples {
		if s.Z < testPen.DownMax || s.Z > testPen.DownMin {
			t.Fatalf("sample %d z = %v outside [%v, %v]", i, s.Z, testPen.DownMax, testPen.DownMin)
		}
	}
}
