package toolpath

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/handwriting"
)

// Position is a machine coordinate in mm.
type Position struct {
	X, Y, Z float64
}

// Machine describes the plotter the program is written for.
type Machine struct {
	// Homing is the homing command, e.g. "G28".
	Homing string
	// Pause halts the machine until the operator resumes, e.g. "M400 U1".
	Pause string
	Accel Acceleration

	// PenUp is the safe travel height.
	PenUp float64
	// HomeX and HomeY are where the pen parks after homing X and Y.
	HomeX, HomeY float64
	// HomedZ is the height the machine reports after homing Z.
	HomedZ float64
	// Start is the position the pen waits at before writing and after a
	// page break.
	Start Position
	// Done is where the pen parks at the end.
	Done Position
	// Origin is the assumed position when the program starts.
	Origin Position

	// TravelSpeed and ZSpeed are rapid speeds in mm/s.
	TravelSpeed float64
	ZSpeed      float64
	// SpeedMultiplier scales every feedrate written to the program.
	SpeedMultiplier float64
}

// Emitter builds a program move by move. It implements
// [handwriting.Plotter].
type Emitter struct {
	m     Machine
	log   *log.Logger
	lines []Instruction
	pos   Position
	est   *Estimator

	pageBreaks int
	dropped    int
}

// NewEmitter returns an emitter positioned at m.Origin. A nil logger
// discards output.
func NewEmitter(m Machine, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Emitter{m: m, log: logger, pos: m.Origin, est: NewEstimator(m.Accel)}
}

var _ handwriting.Plotter = (*Emitter)(nil)

// Position returns the current pen position.
func (e *Emitter) Position() Position { return e.pos }

// Elapsed returns the estimated run time so far in seconds.
func (e *Emitter) Elapsed() float64 { return e.est.Elapsed() }

// Comment appends a "; text" line. An empty text appends a blank line.
func (e *Emitter) Comment(format string, args ...any) {
	e.lines = append(e.lines, Comment(fmt.Sprintf(format, args...)))
}

// Directive appends a verbatim line that does not move the machine.
func (e *Emitter) Directive(format string, args ...any) {
	e.lines = append(e.lines, Directive(fmt.Sprintf(format, args...)))
}

// Apply appends in and accounts for its motion. Moves without F run at the
// rapid travel speed.
func (e *Emitter) Apply(in Instruction) {
	e.lines = append(e.lines, in)
	if !in.IsMove() {
		return
	}

	to := e.pos
	if in.Has(AxisX) {
		to.X = in.X
	}
	if in.Has(AxisY) {
		to.Y = in.Y
	}
	if in.Has(AxisZ) {
		to.Z = in.Z
	}
	feed := e.m.TravelSpeed * 60
	if in.Has(AxisF) {
		feed = in.F
	}
	e.motion(to, feed, in.Code == "G0")
}

// motion moves the tracked position to `to` and charges the estimator for
// it against the last appended line.
func (e *Emitter) motion(to Position, feedrate float64, rapid bool) {
	accel := e.est.Accel(to.Z != e.pos.Z, rapid)
	e.est.Add(len(e.lines)-1, MoveTime(distance(e.pos, to), feedrate, accel))
	e.pos = to
}

// home appends a homing directive for axes ("X0 Y0" or "Z0") and moves the
// tracked position to where the machine ends up.
func (e *Emitter) home(axes string) {
	e.Directive("%s %s", e.m.Homing, axes)
	to := e.pos
	if axes == "Z0" {
		to.Z = e.m.HomedZ
		e.motion(to, e.m.ZSpeed*60, false)
		return
	}
	to.X, to.Y = 0, 0
	e.motion(to, e.m.TravelSpeed*60, false)
}

func (e *Emitter) xyFeed() float64 { return e.m.TravelSpeed * 60 * e.m.SpeedMultiplier }
func (e *Emitter) zFeed() float64  { return e.m.ZSpeed * 60 * e.m.SpeedMultiplier }

func (e *Emitter) moveXY(kind Kind, code string, x, y float64) {
	e.Apply(Instruction{Kind: kind, Code: code, X: x, Y: y, F: e.xyFeed(), Axes: AxisX | AxisY | AxisF})
}

func (e *Emitter) moveZ(kind Kind, code string, z float64) {
	e.Apply(Instruction{Kind: kind, Code: code, Z: z, F: e.zFeed(), Axes: AxisZ | AxisF})
}

// Init appends the machine setup: acceleration limits, homing of X and Y, a
// park at the home position, homing of Z and the move to the start position.
func (e *Emitter) Init() {
	a := e.m.Accel
	e.Directive("M201 X%s Y%s Z%s", formatNumber(a.Print), formatNumber(a.Print), formatNumber(a.Z))
	e.Directive("M204 T%s", formatNumber(a.Travel))
	e.Directive("M204 P%s", formatNumber(a.Print))

	e.home("X0 Y0")
	e.moveXY(Service, "G0", e.m.HomeX, e.m.HomeY)
	e.home("Z0")
	e.moveZ(Service, "G0", e.m.Start.Z)
	e.moveXY(Service, "G0", e.m.Start.X, e.m.Start.Y)
}

// PageBreak raises the pen, pauses for a fresh sheet and sets the machine up
// again.
func (e *Emitter) PageBreak() error {
	e.pageBreaks++
	e.log.Debug("emitting page break", "page", e.pageBreaks+1)
	e.moveZ(Service, "G0", e.m.Start.Z)
	e.Directive("%s", e.m.Pause)
	e.moveXY(Service, "G1", e.m.Start.X, e.m.Start.Y)
	e.Init()
	return nil
}

// Finish raises the pen and parks it.
func (e *Emitter) Finish() {
	e.moveZ(Service, "G0", e.m.Done.Z)
	e.moveXY(Service, "G0", e.m.Done.X, e.m.Done.Y)
}

// Trace appends the moves for one trajectory.
//
// The first sample and every lift sample are reached by raising the pen,
// travelling there and plunging. Every other sample is a coordinated move
// at distance/Δt. Samples that do not move the pen are skipped. A sample
// whose timestamp does not advance is a KINEMATIC_INVARIANT error.
func (e *Emitter) Trace(traj handwriting.Trajectory) error {
	lifts := traj.Lifts
	for i, s := range traj.Samples {
		if i == 0 || (len(lifts) > 0 && lifts[0] == i) {
			if i > 0 {
				lifts = lifts[1:]
			}
			e.penLift(s)
			continue
		}

		prev := traj.Samples[i-1]
		dt := s.T - prev.T
		if dt <= 0 {
			return errors.New(errors.ErrCodeKinematic,
				"sample %d at t=%v does not follow t=%v", i, s.T, prev.T)
		}
		to := Position{X: s.X, Y: s.Y, Z: s.Z}
		d := distance(Position{X: prev.X, Y: prev.Y, Z: prev.Z}, to)
		if d == 0 || to == e.pos {
			e.dropped++
			continue
		}
		feed := max(math.Round(d/dt*60), 1) * e.m.SpeedMultiplier
		e.Apply(Instruction{Kind: Print, Code: "G1", X: s.X, Y: s.Y, Z: s.Z, F: feed, Axes: AxisX | AxisY | AxisZ | AxisF})
	}
	return nil
}

func (e *Emitter) penLift(s handwriting.Sample) {
	e.moveZ(Travel, "G0", e.m.PenUp)
	e.moveXY(Travel, "G0", s.X, s.Y)
	e.moveZ(Print, "G1", s.Z)
}

// Finalize inserts the progress markers and returns the program. The
// emitter must not be used afterwards.
func (e *Emitter) Finalize() *Program {
	elapsed := e.est.Elapsed()
	total := int(math.Floor(elapsed / 60))

	lines := e.lines
	cps := e.est.Checkpoints()
	for i := len(cps) - 1; i >= 0; i-- {
		cp := cps[i]
		remaining := total - cp.Minute
		percent := 0.0
		if total > 0 {
			percent = math.RoundToEven(float64(total-remaining)/float64(total)*1000) / 10
		}
		marker := Directive(fmt.Sprintf("M73 P%s R%d", formatNumber(percent), remaining))
		lines = append(lines, Instruction{})
		copy(lines[cp.Line+1:], lines[cp.Line:])
		lines[cp.Line] = marker
	}
	e.lines = nil

	p := &Program{
		Lines:       lines,
		Elapsed:     elapsed,
		Checkpoints: cps,
		PageBreaks:  e.pageBreaks,
	}
	p.Minutes, p.Seconds = Split(elapsed)
	if e.dropped > 0 {
		e.log.Debug("dropped stationary samples", "count", e.dropped)
	}
	return p
}

func distance(a, b Position) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
