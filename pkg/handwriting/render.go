package handwriting

import (
	"math/rand/v2"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/font"
	"github.com/matzehuels/scribe/pkg/spline"
	"github.com/matzehuels/scribe/pkg/variance"
)

// Placement positions and deforms one character.
type Placement struct {
	// X and Y are the glyph origin on the page.
	X, Y float64
	// Height is added to the font's capital height.
	Height float64
	// Skew shears x by -y·Skew.
	Skew float64
}

// Renderer transforms glyph geometry from font units to page coordinates.
type Renderer struct {
	font          *font.Font
	pen           Pen
	capitalHeight float64
	rng           *rand.Rand
	variance      *variance.Generator
}

// NewRenderer returns a renderer drawing variant choices and point jitter
// from rng.
func NewRenderer(f *font.Font, pen Pen, rng *rand.Rand) *Renderer {
	return &Renderer{
		font:          f,
		pen:           pen,
		capitalHeight: f.Params.CapitalHeight,
		rng:           rng,
		variance:      variance.NewGenerator(rng),
	}
}

// Render picks a random variant of r and maps it onto the page.
//
// Each point gets its own x and y jitter from two private variance curves
// sized to the variant's point count:
//
//	x' = x·(H+h) + X + jx + (-y + jy)·skew
//	y' = -y·(H+h) + Y + jy
//	z' = pen height for the point's force
//
// Missing or malformed glyphs return a data error and no geometry.
func (r *Renderer) Render(ch rune, p Placement) (Glyph, error) {
	g, err := r.font.Lookup(ch)
	if err != nil {
		return Glyph{Rune: ch}, err
	}

	variant := g.Variants[r.rng.IntN(len(g.Variants))]
	n := variant.PointCount()

	params := r.font.Params
	jx, err := r.variance.Generate(n, params.PointVariance)
	if err != nil {
		return Glyph{Rune: ch}, err
	}
	jy, err := r.variance.Generate(n, params.PointVariance)
	if err != nil {
		return Glyph{Rune: ch}, err
	}

	scale := r.capitalHeight + p.Height
	out := Glyph{Rune: ch, Cursive: g.Cursive, Strokes: make([][]Sample, 0, len(variant))}

	for _, stroke := range variant {
		samples := make([]Sample, 0, len(stroke))
		for _, pt := range stroke {
			vx, err := jx.Next()
			if err != nil {
				return Glyph{Rune: ch}, errors.Wrap(errors.ErrCodeInternal, err, "point jitter for %q", ch)
			}
			vy, err := jy.Next()
			if err != nil {
				return Glyph{Rune: ch}, errors.Wrap(errors.ErrCodeInternal, err, "point jitter for %q", ch)
			}
			dx := params.MaxPointXVariance * vx
			dy := params.MaxPointYVariance * vy
			skew := (-pt.Y + dy) * p.Skew

			samples = append(samples, Sample{
				X: spline.Round(pt.X*scale+p.X+dx+skew, 2),
				Y: spline.Round(-pt.Y*scale+p.Y+dy, 2),
				Z: r.pen.Z(pt.Force),
				T: pt.T,
			})

			if rel := spline.Round(pt.X*scale+dx, 2); rel > out.MaxX {
				out.MaxX = rel
			}
		}
		out.Strokes = append(out.Strokes, samples)
	}
	return out, nil
}

// WithCapitalHeight returns a renderer sharing r's randomness that scales
// glyphs to capital height h instead of the font's body height.
func (r *Renderer) WithCapitalHeight(h float64) *Renderer {
	c := *r
	c.capitalHeight = h
	return &c
}
