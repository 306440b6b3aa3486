package toolpath

import "math"

// Acceleration holds the machine's acceleration limits in mm/s².
type Acceleration struct {
	Print  float64
	Travel float64
	Z      float64
}

// Checkpoint marks the instruction during which a new minute of run time
// starts.
type Checkpoint struct {
	// Line is the index of the instruction in the program before markers
	// are inserted.
	Line int
	// Minute is the number of whole minutes elapsed after the instruction.
	Minute int
}

// Estimator accumulates the predicted run time of a program.
type Estimator struct {
	accel       Acceleration
	elapsed     float64
	checkpoints []Checkpoint
}

// NewEstimator returns an estimator for a machine with the given limits.
func NewEstimator(a Acceleration) *Estimator {
	return &Estimator{accel: a}
}

// MoveTime returns the duration in seconds of a straight move of distance mm
// at feedrate mm/min, starting and ending at rest with constant acceleration
// accel.
//
// If the move is long enough to reach the feedrate the velocity profile is a
// trapezoid: t = 2·v/a + (d - v²/a)/v. Otherwise it is a triangle peaking
// halfway: t = 2·√(d/a). A non-positive accel means instant acceleration.
func MoveTime(distance, feedrate, accel float64) float64 {
	if distance <= 0 {
		return 0
	}
	v := feedrate / 60
	if v <= 0 {
		return 0
	}
	if accel <= 0 {
		return distance / v
	}
	ta := v / accel
	da := 0.5 * accel * ta * ta
	if 2*da > distance {
		return 2 * math.Sqrt(distance/accel)
	}
	return 2*ta + (distance-2*da)/v
}

// Accel selects the limit for a move: Z if the move changes the pen height,
// otherwise travel for rapid moves and print for coordinated ones.
func (e *Estimator) Accel(zChanged, rapid bool) float64 {
	switch {
	case zChanged:
		return e.accel.Z
	case rapid:
		return e.accel.Travel
	}
	return e.accel.Print
}

// Add accounts for a move of the given duration performed by the
// instruction at index line. A checkpoint is recorded whenever the elapsed
// time crosses into a new minute.
func (e *Estimator) Add(line int, seconds float64) {
	prev := e.elapsed
	e.elapsed += seconds
	if math.Ceil(e.elapsed/60) != math.Ceil(prev/60) {
		e.checkpoints = append(e.checkpoints, Checkpoint{Line: line, Minute: int(math.Floor(e.elapsed / 60))})
	}
}

// Elapsed returns the accumulated time in seconds.
func (e *Estimator) Elapsed() float64 { return e.elapsed }

// Checkpoints returns the minute checkpoints in program order.
func (e *Estimator) Checkpoints() []Checkpoint { return e.checkpoints }

// Split returns the elapsed time as whole minutes and rounded seconds.
func Split(seconds float64) (minutes, secs int) {
	minutes = int(math.Floor(seconds / 60))
	secs = int(math.RoundToEven(seconds - float64(minutes)*60))
	if secs == 60 {
		minutes, secs = minutes+1, 0
	}
	return minutes, secs
}
