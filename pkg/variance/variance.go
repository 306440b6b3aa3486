// Package variance generates the smooth pseudo-random curves that are the
// only source of handwriting jitter.
//
// A curve is built from a few uniform samples in [-1, 1], spaced a fixed
// interval apart and joined by a cubic spline, so consecutive values drift
// instead of jumping. Values may overshoot [-1, 1] slightly where the spline
// swings between samples; that is kept.
//
// Curves are consumed through a [Sequence]: one value per unit of work, in
// order, never rewound. Reading past the end returns [ErrExhausted].
package variance

import (
	"errors"
	"math"
	"math/rand/v2"

	scerrors "github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/spline"
)

// ErrExhausted is returned by [Sequence.Next] once every value was consumed.
var ErrExhausted = errors.New("variance sequence exhausted")

// Generator draws variance curves from an injected random source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a sequence of n smooth random values.
//
// It draws ceil(n/spacing)+1 samples uniform in [-1, 1] at positions
// 1, 1+spacing, 1+2·spacing, …, fits a spline through them and evaluates it
// at 1..n, rounding to two decimals.
func (g *Generator) Generate(n, spacing int) (*Sequence, error) {
	if n < 0 {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "variance: negative length %d", n)
	}
	if spacing < 1 {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "variance: spacing must be at least 1, got %d", spacing)
	}
	if n == 0 {
		return &Sequence{}, nil
	}

	count := int(math.Ceil(float64(n)/float64(spacing))) + 1
	xs := make([]float64, count)
	ys := make([]float64, count)
	for i := range xs {
		xs[i] = float64(1 + i*spacing)
		ys[i] = g.rng.Float64()*2 - 1
	}

	curve, err := spline.Fit(xs, ys)
	if err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = spline.Round(curve.At(float64(i+1)), 2)
	}
	return &Sequence{values: values}, nil
}

// MustGenerate is like Generate but panics on invalid arguments.
// It is meant for lengths and spacings that were validated up front.
func (g *Generator) MustGenerate(n, spacing int) *Sequence {
	s, err := g.Generate(n, spacing)
	if err != nil {
		panic(err)
	}
	return s
}

// Sequence is a destructive cursor over a generated curve.
type Sequence struct {
	values []float64
	pos    int
}

// Next returns the next value, or ErrExhausted.
func (s *Sequence) Next() (float64, error) {
	if s.pos >= len(s.values) {
		return 0, ErrExhausted
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// Len returns the total number of values in the sequence.
func (s *Sequence) Len() int { return len(s.values) }

// Remaining returns how many values are left.
func (s *Sequence) Remaining() int { return len(s.values) - s.pos }
