// Package fonttest builds small synthetic stroke fonts for tests.
package fonttest

import (
	"encoding/json"

	"github.com/matzehuels/scribe/pkg/font"
)

// Params are the parameters of the fonts returned by [New].
var Params = font.Parameters{
	CursiveConnectionPoints: 3,
	CursiveConnectionTime:   0.06,
	CapitalHeight:           6,
	DateCapitalHeight:       4,
	SpaceWidth:              2,
	XSpacing:                0.5,
	MaxHeightVariance:       0.2,
	MaxXVariance:            0.2,
	MaxYVariance:            0.2,
	MinSkew:                 0.05,
	MaxSkew:                 0.15,
	MaxPointXVariance:       0.03,
	MaxPointYVariance:       0.03,
	CharacterVariance:       4,
	PointVariance:           5,
}

// Charset lists the runes [New] provides glyphs for.
const Charset = "abcdefghijklmnopqrstuvwxyzäöüßABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÜ0123456789.,-"

// New returns a font covering [Charset]. Lowercase letters are cursive.
// Every glyph has two variants: a single zigzag stroke and the same zigzag
// followed by a short crossbar.
func New() *font.Font {
	glyphs := make(map[rune]font.Glyph)
	for _, r := range Charset {
		glyphs[r] = Glyph(r >= 'a' && r <= 'z' || r == 'ä' || r == 'ö' || r == 'ü' || r == 'ß')
	}
	f, err := font.New("synthetic", Params, glyphs)
	if err != nil {
		panic(err)
	}
	return f
}

// Glyph returns the synthetic glyph shared by every rune of [New].
func Glyph(cursive bool) font.Glyph {
	zigzag := font.Stroke{
		{X: 0.0, Y: 0.0, Force: 0.6, T: 0.00},
		{X: 0.1, Y: -0.6, Force: 0.8, T: 0.04},
		{X: 0.25, Y: -0.1, Force: 0.9, T: 0.08},
		{X: 0.4, Y: -0.7, Force: 0.8, T: 0.12},
		{X: 0.5, Y: 0.0, Force: 0.5, T: 0.16},
	}
	bar := font.Stroke{
		{X: 0.05, Y: -0.35, Force: 0.7, T: 0.00},
		{X: 0.25, Y: -0.4, Force: 0.8, T: 0.05},
		{X: 0.45, Y: -0.35, Force: 0.7, T: 0.10},
	}
	return font.Glyph{
		Cursive:  cursive,
		Variants: []font.Variant{{zigzag}, {zigzag, bar}},
	}
}

// JSON returns the font of [New] in the on-disk font format: the
// parameters and one entry per character, [cursive, variant...], where a
// variant is a list of strokes of [x, y, force, t] points.
func JSON() []byte {
	params, err := json.Marshal(Params)
	if err != nil {
		panic(err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(params, &doc); err != nil {
		panic(err)
	}

	f := New()
	for _, r := range f.Runes() {
		g, _ := f.Lookup(r)
		entry := []any{g.Cursive}
		for _, v := range g.Variants {
			strokes := make([][][4]float64, len(v))
			for i, s := range v {
				for _, p := range s {
					strokes[i] = append(strokes[i], [4]float64{p.X, p.Y, p.Force, p.T})
				}
			}
			entry = append(entry, strokes)
		}
		doc[string(r)] = entry
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}
