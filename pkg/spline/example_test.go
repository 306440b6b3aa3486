package spline_test

import (
	"fmt"

	"github.com/matzehuels/scribe/pkg/spline"
)

func ExampleResample() {
	// Indices 4 to 6 are missing, e.g. the samples of a cursive bridge.
	got, err := spline.Resample([]int{1, 2, 3, 7, 8}, []float64{10, 11, 12, 16, 17})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(got)
	// Output:
	// [10 11 12 13 14 15 16 17]
}

func ExampleResample_parabola() {
	// Three nodes of x² give back the parabola.
	got, _ := spline.Resample([]int{1, 2, 4}, []float64{1, 4, 16})
	fmt.Println(got)
	// Output:
	// [1 4 9 16]
}
