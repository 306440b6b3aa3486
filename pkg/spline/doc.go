// Package spline fits cubic interpolating splines through sparse samples.
//
// Two consumers share this package:
//
//   - [variance] turns a handful of uniform random samples into a smooth,
//     C¹-continuous jitter curve.
//   - The word composer resamples a word's index-parameterized (x, y, z)
//     samples, filling cursive bridge gaps and smoothing the pen path.
//
// Curves use not-a-knot boundary conditions: the third derivative is
// continuous across the second and the penultimate node. With three nodes the
// curve is the parabola through them, with two nodes it is the line.
//
// # Usage
//
//	c, err := spline.Fit([]float64{1, 4, 7, 10}, []float64{0.2, -0.7, 0.1, 0.9})
//	if err != nil {
//	    return err
//	}
//	y := c.At(5)
//
//	// Dense resampling at every integer index 1..max(indices):
//	xs, err := spline.Resample([]int{1, 2, 3, 7, 8}, []float64{0, 1, 2, 6, 7})
package spline
