package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/handwriting"
)

func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
font = "cursive"

[pen]
up = 72.5

[mistakes]
probability = 0
`))
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Font = "cursive"
	want.Pen.Up = 72.5
	want.Mistakes.Probability = 0
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "font = "},
		{"unknown key", "[pen]\nheight = 3"},
		{"pen up too low", "[pen]\nup = 60"},
		{"probability", "[mistakes]\nprobability = 140"},
		{"force range", "[mistakes]\nmin_force = 0.9\nmax_force = 0.5"},
		{"multiplier", "[speed]\nmultiplier = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.data))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scribe.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load error = %v, want INVALID_CONFIG", err)
	}
}

func TestLayout(t *testing.T) {
	want := handwriting.Page{
		Left:       77,
		Right:      222,
		Top:        242.25,
		Bottom:     5,
		LineHeight: 10,
		DateX:      227.5,
	}
	if diff := cmp.Diff(want, Default().Layout()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine(t *testing.T) {
	m := Default().Machine()
	if m.PenUp != 70 || m.HomedZ != 15 || m.SpeedMultiplier != 1.5 {
		t.Errorf("Machine() = %+v", m)
	}
	if m.Accel.Travel != 12000 {
		t.Errorf("travel acceleration = %v, want 12000", m.Accel.Travel)
	}
}

func TestFingerprintChanges(t *testing.T) {
	a := Default()
	b := Default()
	b.Speed.Multiplier = 2
	if bytes.Equal(a.Fingerprint(), b.Fingerprint()) {
		t.Error("different configs share a fingerprint")
	}
	if !bytes.Equal(a.Fingerprint(), Default().Fingerprint()) {
		t.Error("fingerprint is not stable")
	}
}
