package handwriting

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/matzehuels/scribe/pkg/spline"
	"github.com/matzehuels/scribe/pkg/variance"
)

// MistakeConfig controls simulated misspellings and their strike-through.
type MistakeConfig struct {
	// Probability is the base rate in percent. Eligible words are
	// misspelled with three times this chance.
	Probability float64
	// CrossingHeight places the strike-through at this fraction of the
	// capital height above the baseline.
	CrossingHeight float64
	// Overhang extends the strike-through beyond the word on both sides (mm).
	Overhang float64
	// MaxPointVariance scales the vertical jitter of the strike-through (mm).
	MaxPointVariance float64
	// MinForce and MaxForce bound the pen force of the strike-through.
	MinForce, MaxForce float64
	// PointsPerCharacter is the sample density of the strike-through.
	PointsPerCharacter int
	// TimePerCharacter is the strike-through duration per character (s).
	TimePerCharacter float64
}

// Mistake is a planned misspelling.
type Mistake struct {
	Word        string
	Misspelling string
	// Index is the rune position of the last character kept from Word.
	Index int
}

// Mistakes decides which words get misspelled and draws the strike-through.
type Mistakes struct {
	cfg      MistakeConfig
	rng      *rand.Rand
	variance *variance.Generator

	forced *int
}

// NewMistakes returns a mistake planner drawing from rng.
func NewMistakes(cfg MistakeConfig, rng *rand.Rand) *Mistakes {
	return &Mistakes{cfg: cfg, rng: rng, variance: variance.NewGenerator(rng)}
}

// Force makes the next eligible word skip the probability roll and cut at
// index.
func (m *Mistakes) Force(index int) {
	m.forced = &index
}

const vowels = "aeiouyäöüAEIOUYÄÖÜ"

func isVowel(r rune) bool { return strings.ContainsRune(vowels, r) }

func isConsonant(r rune) bool { return !isVowel(r) && unicode.IsLetter(r) }

// Plan rolls for a misspelling of word.
//
// Words of at least five characters are misspelled with probability
// 3·Probability percent. The cut index is drawn from [2, len-3]; the
// character there must differ from the last character and share its
// vowel/consonant class, otherwise the word stays correct. The misspelling is
// the word up to and including the cut followed by its last character, so
// "Beispiel" cut at 3 becomes "Beisl".
func (m *Mistakes) Plan(word string) (Mistake, bool) {
	runes := []rune(word)
	if len(runes) < 5 {
		return Mistake{}, false
	}

	var idx int
	if m.forced != nil {
		idx = *m.forced
		m.forced = nil
		if idx < 0 || idx >= len(runes) {
			return Mistake{}, false
		}
	} else {
		if float64(m.rng.IntN(100)+1) > 3*m.cfg.Probability {
			return Mistake{}, false
		}
		idx = 2 + m.rng.IntN(len(runes)-4)
	}

	cut, last := runes[idx], runes[len(runes)-1]
	if cut == last {
		return Mistake{}, false
	}
	if !(isVowel(cut) && isVowel(last)) && !(isConsonant(cut) && isConsonant(last)) {
		return Mistake{}, false
	}

	misspelling := string(runes[:idx+1]) + string(last)
	if misspelling == word {
		return Mistake{}, false
	}
	return Mistake{
		Word:        word,
		Misspelling: misspelling,
		Index:       idx,
	}, true
}

// Strike returns a single stroke crossing out a word of n characters that
// spans x, written at baseline. capitalHeight positions the stroke
// vertically; pointVariance is the sample interval of its jitter curves.
func (m *Mistakes) Strike(x Extent, baseline float64, n int, capitalHeight float64, pointVariance int, pen Pen) (Trajectory, error) {
	count := n * m.cfg.PointsPerCharacter
	if count <= 0 {
		return Trajectory{}, nil
	}

	jy, err := m.variance.Generate(count, pointVariance)
	if err != nil {
		return Trajectory{}, err
	}
	jf, err := m.variance.Generate(count, pointVariance)
	if err != nil {
		return Trajectory{}, err
	}

	xs := linspace(x.Min-m.cfg.Overhang, x.Max+m.cfg.Overhang, count)
	ts := linspace(0, float64(n)*m.cfg.TimePerCharacter, count)
	y0 := baseline + m.cfg.CrossingHeight*capitalHeight

	samples := make([]Sample, count)
	for i := range samples {
		vy, err := jy.Next()
		if err != nil {
			return Trajectory{}, err
		}
		vf, err := jf.Next()
		if err != nil {
			return Trajectory{}, err
		}
		force := (vf+1)/2*(m.cfg.MaxForce-m.cfg.MinForce) + m.cfg.MinForce
		samples[i] = Sample{
			X: spline.Round(xs[i], 2),
			Y: spline.Round(y0+vy*m.cfg.MaxPointVariance, 2),
			Z: pen.Clamp(pen.Z(force)),
			T: ts[i],
		}
	}
	return Trajectory{Samples: samples}, nil
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
