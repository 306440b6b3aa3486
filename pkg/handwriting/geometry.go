package handwriting

import (
	"math"

	"github.com/matzehuels/scribe/pkg/spline"
)

// Sample is one point of a pen trajectory.
type Sample struct {
	X, Y, Z float64
	T       float64
}

// Pen maps stroke force to pen-down height.
type Pen struct {
	// DownMin is the height at zero force.
	DownMin float64
	// DownMax is the height at full force.
	DownMax float64
}

// Z returns the pen height for force in [0, 1], rounded to hundredths.
func (p Pen) Z(force float64) float64 {
	return spline.Round(p.DownMin+force*(p.DownMax-p.DownMin), 2)
}

// Clamp limits z to the pen-down range.
func (p Pen) Clamp(z float64) float64 {
	lo, hi := math.Min(p.DownMin, p.DownMax), math.Max(p.DownMin, p.DownMax)
	return math.Max(lo, math.Min(hi, z))
}

// Glyph is one rendered character in page coordinates.
// Stroke timestamps are relative to the start of their stroke.
type Glyph struct {
	Rune    rune
	Strokes [][]Sample
	// MaxX is the largest x reached relative to the glyph origin, before
	// offset and skew. The layout advances its cursor by it.
	MaxX    float64
	Cursive bool
}

// Empty reports whether the glyph has no geometry.
func (g Glyph) Empty() bool {
	for _, s := range g.Strokes {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Translate moves every sample by (dx, dy).
func (g *Glyph) Translate(dx, dy float64) {
	for _, s := range g.Strokes {
		for i := range s {
			s[i].X += dx
			s[i].Y += dy
		}
	}
}

// Extent is a closed range of page coordinates.
type Extent struct {
	Min, Max float64
}

// bounds returns the x and y extents of glyphs. ok is false if they hold no samples.
func bounds(glyphs []Glyph) (x, y Extent, ok bool) {
	x = Extent{Min: math.Inf(1), Max: math.Inf(-1)}
	y = x
	for _, g := range glyphs {
		for _, s := range g.Strokes {
			for _, p := range s {
				x.Min, x.Max = math.Min(x.Min, p.X), math.Max(x.Max, p.X)
				y.Min, y.Max = math.Min(y.Min, p.Y), math.Max(y.Max, p.Y)
				ok = true
			}
		}
	}
	return x, y, ok
}

// Trajectory is a continuous, time-stamped pen path.
type Trajectory struct {
	Samples []Sample
	// Lifts holds the indices of samples that start a new pen-down segment.
	// Index 0 always starts a segment and is not listed.
	Lifts []int
}

// Empty reports whether the trajectory has no samples.
func (t Trajectory) Empty() bool { return len(t.Samples) == 0 }

// IsLift reports whether sample i starts a new segment.
func (t Trajectory) IsLift(i int) bool {
	for _, l := range t.Lifts {
		if l == i {
			return true
		}
	}
	return false
}
