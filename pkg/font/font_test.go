package font

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/scribe/pkg/errors"
)

const testFont = `{
  "cursive_connection_points": 4,
  "cursive_connection_time": 0.08,
  "capital_character_height": 6.5,
  "date_capital_character_height": 4,
  "space_width": 2.2,
  "x_spacing": 0.6,
  "max_height_variance": 0.3,
  "max_x_variance": 0.2,
  "max_y_variance": 0.25,
  "min_skew": 0.05,
  "max_skew": 0.2,
  "max_stroke_point_x_variance": 0.04,
  "max_stroke_point_y_variance": 0.04,
  "new_character_variance": 6,
  "new_point_variance": 8,
  "a": [true,
        [[[0.1, -0.3, 0.8, 0.0], [0.3, -0.5, 0.9, 0.02], [0.5, -0.3, 0.7, 0.05]]],
        [[[0.1, -0.2, 0.8, 0.0], [0.4, -0.5, 0.9, 0.03]], [[0.4, -0.5, 0.5, 0.0], [0.45, 0.0, 0.6, 0.04]]]],
  "T": [false, [[[0.0, -1.0, 1.0, 0.0], [0.6, -1.0, 1.0, 0.1]], [[0.3, -1.0, 1.0, 0.0], [0.3, 0.0, 1.0, 0.12]]]],
  "a\u0308": [true, [[[0.1, -0.3, 0.8, 0.0], [0.5, -0.3, 0.7, 0.05]]]],
  "x": [false, [[[0.0, 0.0, 0.5]]]],
  "y": [false, [[[0.0, 0.0, 0.5, 0.1], [0.1, 0.1, 0.5, 0.1]]]],
  "n": [false, [[[0.0, 0.0, 0.5, 0.0], [0.1, 0.1, 0.5, 0.02]], [[0.2, 0.0, 0.5, -1.0], [0.3, 0.1, 0.5, -0.98]]]],
  "s": [false, [[[0.0, 0.0, 0.5, 0.0], [0.1, 0.1, 0.5, 0.0002], [0.2, 0.2, 0.5, 0.0004]]]],
  "q": "not a glyph",
  "z": [false]
}`

func loadTestFont(t *testing.T) *Font {
	t.Helper()
	f, err := Load("test", strings.NewReader(testFont))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return f
}

func TestLoadParameters(t *testing.T) {
	f := loadTestFont(t)

	want := Parameters{
		CursiveConnectionPoints: 4,
		CursiveConnectionTime:   0.08,
		CapitalHeight:           6.5,
		DateCapitalHeight:       4,
		SpaceWidth:              2.2,
		XSpacing:                0.6,
		MaxHeightVariance:       0.3,
		MaxXVariance:            0.2,
		MaxYVariance:            0.25,
		MinSkew:                 0.05,
		MaxSkew:                 0.2,
		MaxPointXVariance:       0.04,
		MaxPointYVariance:       0.04,
		CharacterVariance:       6,
		PointVariance:           8,
	}
	if diff := cmp.Diff(want, f.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if len(f.Digest) != 64 {
		t.Errorf("Digest length = %d, want 64", len(f.Digest))
	}
}

func TestLookup(t *testing.T) {
	f := loadTestFont(t)

	g, err := f.Lookup('a')
	if err != nil {
		t.Fatalf("Lookup('a') error: %v", err)
	}
	if !g.Cursive {
		t.Error("'a' should be cursive")
	}
	if len(g.Variants) != 2 {
		t.Fatalf("'a' variants = %d, want 2", len(g.Variants))
	}
	if got := g.Variants[1].PointCount(); got != 4 {
		t.Errorf("variant 1 point count = %d, want 4", got)
	}
	want := Point{X: 0.3, Y: -0.5, Force: 0.9, T: 0.02}
	if diff := cmp.Diff(want, g.Variants[0][0][1]); diff != "" {
		t.Errorf("point mismatch (-want +got):\n%s", diff)
	}

	g, err = f.Lookup('T')
	if err != nil {
		t.Fatalf("Lookup('T') error: %v", err)
	}
	if g.Cursive || len(g.Variants[0]) != 2 {
		t.Errorf("'T' = %+v, want non-cursive with 2 strokes", g)
	}
}

func TestLookupNormalizesKeys(t *testing.T) {
	f := loadTestFont(t)

	// The file stores a decomposed "a" + combining diaeresis.
	if _, err := f.Lookup('ä'); err != nil {
		t.Errorf("Lookup('ä') error: %v", err)
	}
}

func TestLookupErrors(t *testing.T) {
	f := loadTestFont(t)

	tests := []struct {
		name string
		r    rune
		code errors.Code
	}{
		{"missing", 'k', errors.ErrCodeMissingGlyph},
		{"short point", 'x', errors.ErrCodeMalformedGlyph},
		{"non-increasing time", 'y', errors.ErrCodeMalformedGlyph},
		{"negative time", 'n', errors.ErrCodeMalformedGlyph},
		{"sub-millisecond spacing", 's', errors.ErrCodeMalformedGlyph},
		{"not an array", 'q', errors.ErrCodeMalformedGlyph},
		{"no variants", 'z', errors.ErrCodeMalformedGlyph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Lookup(tt.r)
			if !errors.Is(err, tt.code) {
				t.Errorf("Lookup(%q) error = %v, want %s", tt.r, err, tt.code)
			}
			if !errors.IsDataError(err) {
				t.Errorf("Lookup(%q) error should be a data error", tt.r)
			}
		})
	}
}

func TestRunes(t *testing.T) {
	f := loadTestFont(t)

	want := []rune{'T', 'a', 'ä'}
	if diff := cmp.Diff(want, f.Runes()); diff != "" {
		t.Errorf("Runes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]rune{'n', 'q', 's', 'x', 'y', 'z'}, f.Malformed()); diff != "" {
		t.Errorf("Malformed mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"missing height", `{"new_character_variance": 3, "new_point_variance": 3}`},
		{"zero point interval", `{"capital_character_height": 5, "new_character_variance": 3}`},
		{"skew range inverted", `{"capital_character_height": 5, "new_character_variance": 3, "new_point_variance": 3, "min_skew": 0.3, "max_skew": 0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("bad", strings.NewReader(tt.data))
			if !errors.Is(err, errors.ErrCodeInvalidFont) {
				t.Errorf("Load error = %v, want INVALID_FONT", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "block.json"), []byte(testFont), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(dir, "block")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if f.Name != "block" {
		t.Errorf("Name = %q, want block", f.Name)
	}

	if _, err := Open(dir, "../block"); !errors.Is(err, errors.ErrCodeInvalidFont) {
		t.Errorf("Open traversal error = %v, want INVALID_FONT", err)
	}
	if _, err := Open(dir, "cursive"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Open missing error = %v, want NOT_FOUND", err)
	}
}

func TestNewDigestStable(t *testing.T) {
	params := Parameters{CapitalHeight: 5, CharacterVariance: 3, PointVariance: 3}
	glyphs := map[rune]Glyph{'o': {Variants: []Variant{{{{X: 0, Y: 0, Force: 1, T: 0}}}}}}

	a, err := New("o", params, glyphs)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	b, _ := New("o", params, glyphs)
	if a.Digest != b.Digest {
		t.Error("Digest should be deterministic")
	}
}
