// Package handwriting turns text into pen trajectories that look written by
// hand.
//
// # Pipeline
//
// A [Writer] owns the page layout. For every line it plans misspellings with
// [Mistakes], draws four per-character variance curves (x, y, height, skew)
// and then, word by word:
//
//  1. renders each character through the [Renderer], which scales, skews and
//     jitters one randomly chosen variant of the glyph,
//  2. wraps the word to the next line or the next page if it leaves the
//     writable area (the whole word moves, never part of it),
//  3. stitches the glyphs into one [Trajectory] with the [Composer], which
//     bridges cursive letters and smooths the path with a cubic spline,
//  4. hands the trajectory to a [Plotter] (the G-code emitter in practice).
//
// Misspelled words are followed by the correct word and then a strike-through
// across the misspelling.
//
// # Coordinates
//
// Page coordinates are millimetres on the printer bed with y growing upwards.
// Z is the pen height; pen-down heights come from the stroke force mapped
// between [Pen.DownMin] and [Pen.DownMax]. Timestamps are seconds.
//
// # Randomness
//
// All randomness comes from a single injected *rand.Rand, so a seed fully
// determines the output.
package handwriting
