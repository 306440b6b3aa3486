// Package toolpath turns pen trajectories into G-code.
//
// An [Emitter] tracks the pen position and appends one [Instruction] per
// move. Print moves get a feedrate derived from the distance and elapsed time
// between consecutive trajectory samples; every pen lift becomes a raise to
// the safe height, a rapid move and a coordinated plunge.
//
// Every move is also fed to an [Estimator], which models acceleration-limited
// motion to predict the run time and records the instruction at which each
// new minute starts. [Emitter.Finalize] inserts "M73" progress markers there
// in a single back-to-front pass and returns the finished [Program].
//
// [Parse] and [Replay] re-run the estimate on existing G-code.
package toolpath
