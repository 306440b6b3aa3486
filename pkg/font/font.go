package font

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/scribe/pkg/errors"
)

// Point is one raw sample of a stroke in font units.
type Point struct {
	X, Y  float64
	Force float64
	T     float64
}

// Stroke is one continuous pen-down path.
type Stroke []Point

// Variant is one recorded way of writing a character.
type Variant []Stroke

// PointCount returns the total number of points over all strokes.
func (v Variant) PointCount() int {
	n := 0
	for _, s := range v {
		n += len(s)
	}
	return n
}

// Glyph holds every recorded variant of a character.
type Glyph struct {
	Cursive  bool
	Variants []Variant
}

// Parameters are the font-wide scalars.
type Parameters struct {
	CursiveConnectionPoints int     `json:"cursive_connection_points"`
	CursiveConnectionTime   float64 `json:"cursive_connection_time"`

	CapitalHeight     float64 `json:"capital_character_height"`
	DateCapitalHeight float64 `json:"date_capital_character_height"`
	SpaceWidth        float64 `json:"space_width"`
	XSpacing          float64 `json:"x_spacing"`

	MaxHeightVariance float64 `json:"max_height_variance"`
	MaxXVariance      float64 `json:"max_x_variance"`
	MaxYVariance      float64 `json:"max_y_variance"`
	MinSkew           float64 `json:"min_skew"`
	MaxSkew           float64 `json:"max_skew"`

	MaxPointXVariance float64 `json:"max_stroke_point_x_variance"`
	MaxPointYVariance float64 `json:"max_stroke_point_y_variance"`

	// CharacterVariance is the sample interval, in characters, of the
	// per-character variance curves.
	CharacterVariance int `json:"new_character_variance"`
	// PointVariance is the sample interval, in points, of the per-point
	// jitter curves.
	PointVariance int `json:"new_point_variance"`
}

// Validate checks the parameters for values the synthesis cannot work with.
func (p Parameters) Validate() error {
	switch {
	case p.CapitalHeight <= 0:
		return errors.New(errors.ErrCodeInvalidFont, "capital_character_height must be positive")
	case p.CharacterVariance < 1:
		return errors.New(errors.ErrCodeInvalidFont, "new_character_variance must be at least 1")
	case p.PointVariance < 1:
		return errors.New(errors.ErrCodeInvalidFont, "new_point_variance must be at least 1")
	case p.CursiveConnectionPoints < 0:
		return errors.New(errors.ErrCodeInvalidFont, "cursive_connection_points cannot be negative")
	case p.CursiveConnectionPoints > 0 && p.CursiveConnectionTime <= 0:
		return errors.New(errors.ErrCodeInvalidFont, "cursive_connection_time must be positive")
	case p.MinSkew > p.MaxSkew:
		return errors.New(errors.ErrCodeInvalidFont, "min_skew %v exceeds max_skew %v", p.MinSkew, p.MaxSkew)
	}
	return nil
}

// Font is a loaded stroke font.
type Font struct {
	Name   string
	Params Parameters
	// Digest is the SHA-256 of the source bytes, used in cache keys.
	Digest string

	glyphs    map[rune]Glyph
	malformed map[rune]error
}

// New builds a font from already decoded parts. It is mainly useful in tests.
func New(name string, params Parameters, glyphs map[rune]Glyph) (*Font, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	f := &Font{Name: name, Params: params, glyphs: make(map[rune]Glyph, len(glyphs)), malformed: map[rune]error{}}
	for r, g := range glyphs {
		f.glyphs[normalizeRune(r)] = g
	}
	data, _ := json.Marshal(struct {
		P Parameters
		G map[rune]Glyph
	}{params, f.glyphs})
	sum := sha256.Sum256(data)
	f.Digest = hex.EncodeToString(sum[:])
	return f, nil
}

// Load decodes a font from r.
func Load(name string, r io.Reader) (*Font, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "read font %s", name)
	}

	var params Parameters
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "decode font %s", name)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "decode font %s", name)
	}

	sum := sha256.Sum256(data)
	f := &Font{
		Name:      name,
		Params:    params,
		Digest:    hex.EncodeToString(sum[:]),
		glyphs:    make(map[rune]Glyph),
		malformed: make(map[rune]error),
	}

	for key, msg := range raw {
		key = norm.NFC.String(key)
		if utf8.RuneCountInString(key) != 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(key)
		g, err := decodeGlyph(msg)
		if err != nil {
			f.malformed[r] = err
			continue
		}
		f.glyphs[r] = g
	}
	return f, nil
}

// LoadFile reads a font from a JSON file. The font is named after the file.
func LoadFile(path string) (*Font, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open font")
	}
	defer file.Close()
	name := filepath.Base(path)
	return Load(name[:len(name)-len(filepath.Ext(name))], file)
}

// Open loads the font called name from dir ("<dir>/<name>.json").
func Open(dir, name string) (*Font, error) {
	if err := errors.ValidateFontName(name); err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(dir, name+".json"))
}

// Lookup returns the glyph for r.
// It fails with MISSING_GLYPH if the font has no entry for r and with
// MALFORMED_GLYPH if the entry could not be decoded or has no variants.
func (f *Font) Lookup(r rune) (Glyph, error) {
	r = normalizeRune(r)
	if err, ok := f.malformed[r]; ok {
		return Glyph{}, errors.Wrap(errors.ErrCodeMalformedGlyph, err, "glyph %q", r)
	}
	g, ok := f.glyphs[r]
	if !ok {
		return Glyph{}, errors.New(errors.ErrCodeMissingGlyph, "no glyph for %q in font %s", r, f.Name)
	}
	if len(g.Variants) == 0 {
		return Glyph{}, errors.New(errors.ErrCodeMalformedGlyph, "glyph %q has no variants", r)
	}
	return g, nil
}

// Runes returns every character with a usable glyph, sorted.
func (f *Font) Runes() []rune {
	out := make([]rune, 0, len(f.glyphs))
	for r := range f.glyphs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Malformed returns the characters whose entries failed to decode, sorted.
func (f *Font) Malformed() []rune {
	out := make([]rune, 0, len(f.malformed))
	for r := range f.malformed {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func normalizeRune(r rune) rune {
	s := norm.NFC.String(string(r))
	if utf8.RuneCountInString(s) != 1 {
		return r
	}
	n, _ := utf8.DecodeRuneInString(s)
	return n
}

func decodeGlyph(msg json.RawMessage) (Glyph, error) {
	var entry []json.RawMessage
	if err := json.Unmarshal(msg, &entry); err != nil {
		return Glyph{}, fmt.Errorf("glyph entry: %w", err)
	}
	if len(entry) < 2 {
		return Glyph{}, fmt.Errorf("glyph entry has no variants")
	}

	var g Glyph
	if err := json.Unmarshal(entry[0], &g.Cursive); err != nil {
		return Glyph{}, fmt.Errorf("cursive flag: %w", err)
	}

	for i, rawVariant := range entry[1:] {
		var strokes [][][]float64
		if err := json.Unmarshal(rawVariant, &strokes); err != nil {
			return Glyph{}, fmt.Errorf("variant %d: %w", i, err)
		}
		v, err := buildVariant(strokes)
		if err != nil {
			return Glyph{}, fmt.Errorf("variant %d: %w", i, err)
		}
		g.Variants = append(g.Variants, v)
	}
	return g, nil
}

// millis rounds t (seconds) to whole milliseconds the way trajectories are
// timestamped.
func millis(t float64) int64 {
	return int64(math.RoundToEven(t * 1000))
}

func buildVariant(strokes [][][]float64) (Variant, error) {
	v := make(Variant, 0, len(strokes))
	for si, raw := range strokes {
		if len(raw) == 0 {
			return nil, fmt.Errorf("stroke %d is empty", si)
		}
		stroke := make(Stroke, len(raw))
		for pi, p := range raw {
			if len(p) < 4 {
				return nil, fmt.Errorf("stroke %d point %d: want 4 values, got %d", si, pi, len(p))
			}
			stroke[pi] = Point{X: p[0], Y: p[1], Force: p[2], T: p[3]}
			if p[3] < 0 {
				return nil, fmt.Errorf("stroke %d point %d: negative time %v", si, pi, p[3])
			}
			if pi > 0 && millis(stroke[pi].T) <= millis(stroke[pi-1].T) {
				return nil, fmt.Errorf("stroke %d point %d: time %v not a millisecond after %v", si, pi, stroke[pi].T, stroke[pi-1].T)
			}
			if p[2] < 0 || p[2] > 1 {
				return nil, fmt.Errorf("stroke %d point %d: force %v outside [0, 1]", si, pi, p[2])
			}
		}
		v = append(v, stroke)
	}
	return v, nil
}
