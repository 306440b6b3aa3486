package spline

import (
	"math"
	"sort"

	"github.com/matzehuels/scribe/pkg/errors"
)

// Curve is a piecewise cubic through the fitted nodes.
// Segment i covers [xs[i], xs[i+1]] and evaluates
// ys[i] + b[i]·dx + c[i]·dx² + d[i]·dx³ with dx = x - xs[i].
type Curve struct {
	xs, ys  []float64
	b, c, d []float64
}

// Fit returns the not-a-knot cubic spline through (xs[i], ys[i]).
// xs must be strictly increasing and at least one node is required.
func Fit(xs, ys []float64) (*Curve, error) {
	n := len(xs)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "spline: no nodes")
	}
	if n != len(ys) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "spline: %d x values but %d y values", n, len(ys))
	}
	for i := 1; i < n; i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "spline: x values not strictly increasing at node %d", i)
		}
	}

	c := &Curve{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	if n == 1 {
		return c, nil
	}

	h := make([]float64, n-1)
	slope := make([]float64, n-1)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
		slope[i] = (ys[i+1] - ys[i]) / h[i]
	}

	m := secondDerivatives(h, slope)

	c.b = make([]float64, n-1)
	c.c = make([]float64, n-1)
	c.d = make([]float64, n-1)
	for i := range h {
		c.b[i] = slope[i] - h[i]*(2*m[i]+m[i+1])/6
		c.c[i] = m[i] / 2
		c.d[i] = (m[i+1] - m[i]) / (6 * h[i])
	}
	return c, nil
}

// secondDerivatives solves for the node second derivatives under
// not-a-knot end conditions.
func secondDerivatives(h, slope []float64) []float64 {
	n := len(h) + 1
	m := make([]float64, n)

	switch n {
	case 2:
		return m
	case 3:
		// A single parabola: constant second derivative.
		v := 2 * (slope[1] - slope[0]) / (h[0] + h[1])
		for i := range m {
			m[i] = v
		}
		return m
	}

	// Unknowns m[1..n-2]; m[0] and m[n-1] are eliminated with the
	// not-a-knot conditions.
	size := n - 2
	sub := make([]float64, size)
	diag := make([]float64, size)
	sup := make([]float64, size)
	rhs := make([]float64, size)
	for k := 0; k < size; k++ {
		i := k + 1
		sub[k] = h[i-1]
		diag[k] = 2 * (h[i-1] + h[i])
		sup[k] = h[i]
		rhs[k] = 6 * (slope[i] - slope[i-1])
	}

	h0, h1 := h[0], h[1]
	diag[0] += h0 * (h0 + h1) / h1
	sup[0] -= h0 * h0 / h1
	sub[0] = 0

	hl, hp := h[n-2], h[n-3]
	last := size - 1
	diag[last] += hl * (hl + hp) / hp
	sub[last] -= hl * hl / hp
	sup[last] = 0

	inner := solveTridiagonal(sub, diag, sup, rhs)
	copy(m[1:], inner)

	m[0] = ((h0+h1)*m[1] - h0*m[2]) / h1
	m[n-1] = ((hl+hp)*m[n-2] - hl*m[n-3]) / hp
	return m
}

// solveTridiagonal runs the Thomas algorithm. sub[0] and sup[len-1] are ignored.
func solveTridiagonal(sub, diag, sup, rhs []float64) []float64 {
	n := len(diag)
	cp := make([]float64, n)
	dp := make([]float64, n)

	cp[0] = sup[0] / diag[0]
	dp[0] = rhs[0] / diag[0]
	for i := 1; i < n; i++ {
		den := diag[i] - sub[i]*cp[i-1]
		if i < n-1 {
			cp[i] = sup[i] / den
		}
		dp[i] = (rhs[i] - sub[i]*dp[i-1]) / den
	}

	x := make([]float64, n)
	x[n-1] = dp[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dp[i] - cp[i]*x[i+1]
	}
	return x
}

// At evaluates the curve at x. Outside the fitted range the end segments
// are extrapolated.
func (c *Curve) At(x float64) float64 {
	if len(c.xs) == 1 {
		return c.ys[0]
	}
	i := sort.SearchFloat64s(c.xs, x) - 1
	i = max(0, min(i, len(c.xs)-2))
	dx := x - c.xs[i]
	return c.ys[i] + dx*(c.b[i]+dx*(c.c[i]+dx*c.d[i]))
}

// Resample fits a spline through the sparse (indices[i], values[i]) pairs and
// returns its value at every integer index 1..max(indices), rounded to two
// decimals. Element k of the result belongs to index k+1.
func Resample(indices []int, values []float64) ([]float64, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	xs := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "spline: index %d below 1", idx)
		}
		xs[i] = float64(idx)
	}
	c, err := Fit(xs, values)
	if err != nil {
		return nil, err
	}
	last := indices[len(indices)-1]
	out := make([]float64, last)
	for k := range out {
		out[k] = Round(c.At(float64(k+1)), 2)
	}
	return out, nil
}

// Round rounds v to the given number of decimals, halves to even.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
