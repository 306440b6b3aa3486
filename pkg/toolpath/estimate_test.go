package toolpath

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMoveTime(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		feedrate float64
		accel    float64
		want     float64
	}{
		{"trapezoid", 100, 6000, 1000, 2*0.1 + 90.0/100},
		{"triangle", 4, 6000, 1000, 2 * math.Sqrt(4.0/1000)},
		{"exactly reaches feedrate", 10, 6000, 1000, 0.2},
		{"no acceleration limit", 50, 6000, 0, 0.5},
		{"zero distance", 0, 6000, 1000, 0},
		{"z move", 3, 1800, 1000, 2 * math.Sqrt(3.0/1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveTime(tt.distance, tt.feedrate, tt.accel)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("MoveTime(%v, %v, %v) = %v, want %v", tt.distance, tt.feedrate, tt.accel, got, tt.want)
			}
		})
	}
}

func TestMoveTimeContinuous(t *testing.T) {
	// Both profiles agree where the feedrate is reached exactly at the
	// midpoint.
	const v, a = 100.0, 1000.0
	d := v * v / a
	below := MoveTime(d-1e-9, v*60, a)
	above := MoveTime(d+1e-9, v*60, a)
	if math.Abs(below-above) > 1e-6 {
		t.Errorf("discontinuity at %v mm: %v vs %v", d, below, above)
	}
}

func TestEstimatorAccel(t *testing.T) {
	e := NewEstimator(Acceleration{Print: 10000, Travel: 12000, Z: 1000})
	tests := []struct {
		zChanged, rapid bool
		want            float64
	}{
		{true, true, 1000},
		{true, false, 1000},
		{false, true, 12000},
		{false, false, 10000},
	}
	for _, tt := range tests {
		if got := e.Accel(tt.zChanged, tt.rapid); got != tt.want {
			t.Errorf("Accel(%v, %v) = %v, want %v", tt.zChanged, tt.rapid, got, tt.want)
		}
	}
}

func TestEstimatorCheckpoints(t *testing.T) {
	e := NewEstimator(Acceleration{})
	for line, d := range []float64{30, 20, 20, 50, 1} {
		e.Add(line, d)
	}

	want := []Checkpoint{{Line: 0, Minute: 0}, {Line: 2, Minute: 1}, {Line: 4, Minute: 2}}
	if diff := cmp.Diff(want, e.Checkpoints()); diff != "" {
		t.Errorf("checkpoints mismatch (-want +got):\n%s", diff)
	}
	if e.Elapsed() != 121 {
		t.Errorf("Elapsed = %v, want 121", e.Elapsed())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		seconds      float64
		minutes, sec int
	}{
		{0, 0, 0},
		{59.4, 0, 59},
		{125.4, 2, 5},
		{119.6, 2, 0},
		{3600, 60, 0},
	}
	for _, tt := range tests {
		m, s := Split(tt.seconds)
		if m != tt.minutes || s != tt.sec {
			t.Errorf("Split(%v) = %d, %d; want %d, %d", tt.seconds, m, s, tt.minutes, tt.sec)
		}
	}
}
