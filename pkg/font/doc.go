// Package font loads stroke fonts: per-character pen-stroke geometry recorded
// on a tablet, plus font-wide scalar parameters.
//
// # File Format
//
// A font is a single JSON object. Scalar keys carry the [Parameters]; every
// key that is a single character maps to an array whose first element is the
// cursive flag and whose remaining elements are alternative variants of the
// glyph:
//
//	{
//	  "capital_character_height": 6.5,
//	  "x_spacing": 0.6,
//	  ...
//	  "a": [true,
//	        [[[0.1, -0.3, 0.8, 0.0], [0.12, -0.31, 0.9, 0.02]]],
//	        [[[0.1, -0.29, 0.7, 0.0], ...]]]
//	}
//
// A variant is a list of strokes, a stroke a list of points
// (x, y, force, t): x and y in font units (capital height 1, y grows
// downwards), force in [0, 1], t in seconds, increasing within the stroke.
//
// Keys and lookups are NFC-normalized so that composed and decomposed umlauts
// resolve to the same glyph.
//
// # Errors
//
// Files with bad parameters fail to load with INVALID_FONT. A single glyph
// that cannot be decoded does not fail the load: [Font.Lookup] reports it as
// MALFORMED_GLYPH and the layout skips that character.
package font
