package handwriting

import (
	"unicode"

	"github.com/matzehuels/scribe/pkg/spline"
)

// settleGap is the pause, in seconds, inserted at every pen lift and after
// every cursive bridge.
const settleGap = 0.05

// Composer stitches the glyphs of a word into one trajectory.
type Composer struct {
	// BridgePoints is the number of samples spliced between two cursively
	// linked letters.
	BridgePoints int
	// BridgeTime is the duration of a bridge in seconds.
	BridgeTime float64
	Pen        Pen
}

// Compose concatenates glyphs (one per rune of word) into a single
// trajectory on a running clock.
//
// Strokes within a glyph, and glyphs that are not cursively linked, are
// separated by a pen lift. A cursive glyph followed by a letter is joined to
// it by BridgePoints samples without geometry; the final spline resampling
// fills them in. Empty glyphs contribute nothing and leave the link decision
// of the previous glyph in place.
func (c Composer) Compose(word []rune, glyphs []Glyph) Trajectory {
	var (
		indices    []int
		xs, ys, zs []float64
		times      []float64
		lifts      []int
	)
	count := 1
	clock := 0.0
	linked := false

	for i, g := range glyphs {
		if g.Empty() {
			continue
		}

		if len(times) > 0 {
			if linked {
				if c.BridgePoints > 0 {
					step := c.BridgeTime / float64(c.BridgePoints)
					for range c.BridgePoints {
						clock = roundMillis(clock + step)
						times = append(times, clock)
					}
					count += c.BridgePoints
				}
				clock += settleGap
			} else {
				clock = times[len(times)-1] + settleGap
				lifts = append(lifts, count-1)
			}
		}

		strokes := nonEmpty(g.Strokes)
		for si, stroke := range strokes {
			for _, s := range stroke {
				indices = append(indices, count)
				xs = append(xs, s.X)
				ys = append(ys, s.Y)
				zs = append(zs, s.Z)
				times = append(times, roundMillis(s.T+clock))
				count++
			}
			clock = times[len(times)-1]
			if si < len(strokes)-1 {
				clock += settleGap
				lifts = append(lifts, count-1)
			}
		}

		linked = g.Cursive && i+1 < len(word) && unicode.IsLetter(word[i+1])
	}

	if len(indices) == 0 {
		return Trajectory{}
	}

	// Resample only fails on invalid indices, which the loop above cannot
	// produce.
	rx, _ := spline.Resample(indices, xs)
	ry, _ := spline.Resample(indices, ys)
	rz, _ := spline.Resample(indices, zs)

	samples := make([]Sample, len(rx))
	for k := range samples {
		samples[k] = Sample{X: rx[k], Y: ry[k], Z: c.Pen.Clamp(rz[k]), T: times[k]}
	}
	return Trajectory{Samples: samples, Lifts: lifts}
}

func nonEmpty(strokes [][]Sample) [][]Sample {
	out := strokes[:0:0]
	for _, s := range strokes {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func roundMillis(t float64) float64 {
	return spline.Round(t, 3)
}
