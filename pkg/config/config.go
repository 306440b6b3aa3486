// Package config holds the machine, page and synthesis settings of scribe.
//
// Settings are read from TOML. Every field has a default tuned for a
// BambuLab P1S with a pen holder; a file only needs the values it changes:
//
//	font = "handwriting_block"
//
//	[pen]
//	down_min = 67.25
//	down_max = 66.85
//
//	[mistakes]
//	probability = 0
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/handwriting"
	"github.com/matzehuels/scribe/pkg/toolpath"
)

// Config is the complete configuration of a run.
type Config struct {
	// Font is the name of the font file (without ".json") in FontDir.
	Font    string `toml:"font"`
	FontDir string `toml:"font_dir"`

	Device   Device   `toml:"device"`
	Pen      Pen      `toml:"pen"`
	Page     Page     `toml:"page"`
	Speed    Speed    `toml:"speed"`
	Mistakes Mistakes `toml:"mistakes"`
}

// Device describes the printer firmware.
type Device struct {
	Brand  string `toml:"brand"`
	Homing string `toml:"homing"`
	Pause  string `toml:"pause"`

	// Accelerations in mm/s².
	XYAcceleration       float64 `toml:"xy_acceleration"`
	XYTravelAcceleration float64 `toml:"xy_travel_acceleration"`
	ZAcceleration        float64 `toml:"z_acceleration"`
}

// Point is a machine position in mm.
type Point struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`
}

// Pen holds pen heights and parking positions in mm.
type Pen struct {
	// DownMin is the pen height at zero force, DownMax at full force.
	DownMin float64 `toml:"down_min"`
	DownMax float64 `toml:"down_max"`
	Up      float64 `toml:"up"`

	Start  Point   `toml:"start"`
	Done   Point   `toml:"done"`
	Origin Point   `toml:"origin"`
	HomeX  float64 `toml:"home_x"`
	HomeY  float64 `toml:"home_y"`
	HomedZ float64 `toml:"homed_z"`
}

// Page places the sheet on the bed (mm).
type Page struct {
	BedHeight    float64 `toml:"bed_height"`
	XOffset      float64 `toml:"x_offset"`
	YOffset      float64 `toml:"y_offset"`
	Width        float64 `toml:"width"`
	WidthBuffer  float64 `toml:"width_buffer"`
	HeightBuffer float64 `toml:"height_buffer"`
	XBuffer      float64 `toml:"x_buffer"`
	DateXOffset  float64 `toml:"date_x_offset"`
	LineHeight   float64 `toml:"line_height"`
}

// Speed holds rapid speeds (mm/s) and the global feedrate multiplier.
type Speed struct {
	XYTravel   float64 `toml:"xy_travel"`
	ZTravel    float64 `toml:"z_travel"`
	Multiplier float64 `toml:"multiplier"`
}

// Mistakes configures misspellings and their strike-through.
type Mistakes struct {
	// Probability is the base rate in percent.
	Probability        float64 `toml:"probability"`
	PointVariance      float64 `toml:"point_variance"`
	CrossingHeight     float64 `toml:"crossing_height"`
	Overhang           float64 `toml:"overhang"`
	MinForce           float64 `toml:"min_force"`
	MaxForce           float64 `toml:"max_force"`
	PointsPerCharacter int     `toml:"points_per_character"`
	TimePerCharacter   float64 `toml:"time_per_character"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Font:    "handwriting_block",
		FontDir: "fonts",
		Device: Device{
			Brand:                "BambuLab",
			Homing:               "G28",
			Pause:                "M400 U1",
			XYAcceleration:       10000,
			XYTravelAcceleration: 12000,
			ZAcceleration:        1000,
		},
		Pen: Pen{
			DownMin: 67.25,
			DownMax: 66.85,
			Up:      70,
			Start:   Point{X: 128, Y: 128, Z: 120},
			Done:    Point{X: 240, Y: 240, Z: 120},
			Origin:  Point{X: 128, Y: 128, Z: 128},
			HomeX:   256,
			HomeY:   -3.1,
			HomedZ:  15,
		},
		Page: Page{
			BedHeight:    256,
			XOffset:      71,
			YOffset:      13.75,
			Width:        155,
			WidthBuffer:  4,
			HeightBuffer: 5,
			XBuffer:      6,
			DateXOffset:  156.5,
			LineHeight:   10,
		},
		Speed: Speed{
			XYTravel:   500,
			ZTravel:    20,
			Multiplier: 1.5,
		},
		Mistakes: Mistakes{
			Probability:        12,
			PointVariance:      0.15,
			CrossingHeight:     0.4,
			Overhang:           1,
			MinForce:           0.75,
			MaxForce:           0.95,
			PointsPerCharacter: 15,
			TimePerCharacter:   0.1,
		},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r on top of the defaults. Unknown keys are an
// error.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Fingerprint returns a stable serialization of cfg for cache keys.
func (c Config) Fingerprint() []byte {
	var buf bytes.Buffer
	_ = c.Encode(&buf)
	return buf.Bytes()
}

// Validate rejects settings the synthesis cannot work with.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	switch {
	case c.Font == "":
		return invalid("font is required")
	case c.Device.Homing == "":
		return invalid("device.homing is required")
	case c.Device.XYAcceleration <= 0 || c.Device.XYTravelAcceleration <= 0 || c.Device.ZAcceleration <= 0:
		return invalid("device accelerations must be positive")
	case c.Pen.Up <= max(c.Pen.DownMin, c.Pen.DownMax):
		return invalid("pen.up %v must be above the pen-down range", c.Pen.Up)
	case c.Page.Width <= c.Page.XBuffer+c.Page.WidthBuffer:
		return invalid("page.width %v leaves no room for text", c.Page.Width)
	case c.Page.LineHeight <= 0:
		return invalid("page.line_height must be positive")
	case c.Page.BedHeight-c.Page.YOffset <= c.Page.HeightBuffer:
		return invalid("page.y_offset leaves no room for text")
	case c.Speed.XYTravel <= 0 || c.Speed.ZTravel <= 0:
		return invalid("travel speeds must be positive")
	case c.Speed.Multiplier <= 0:
		return invalid("speed.multiplier must be positive")
	case c.Mistakes.Probability < 0 || c.Mistakes.Probability > 100:
		return invalid("mistakes.probability %v is not a percentage", c.Mistakes.Probability)
	case c.Mistakes.MinForce > c.Mistakes.MaxForce:
		return invalid("mistakes.min_force exceeds mistakes.max_force")
	case c.Mistakes.PointsPerCharacter < 1:
		return invalid("mistakes.points_per_character must be at least 1")
	case c.Mistakes.TimePerCharacter <= 0:
		return invalid("mistakes.time_per_character must be positive")
	}
	return nil
}

// Machine returns the plotter description for the G-code emitter.
func (c Config) Machine() toolpath.Machine {
	pos := func(p Point) toolpath.Position { return toolpath.Position{X: p.X, Y: p.Y, Z: p.Z} }
	return toolpath.Machine{
		Homing: c.Device.Homing,
		Pause:  c.Device.Pause,
		Accel: toolpath.Acceleration{
			Print:  c.Device.XYAcceleration,
			Travel: c.Device.XYTravelAcceleration,
			Z:      c.Device.ZAcceleration,
		},
		PenUp:           c.Pen.Up,
		HomeX:           c.Pen.HomeX,
		HomeY:           c.Pen.HomeY,
		HomedZ:          c.Pen.HomedZ,
		Start:           pos(c.Pen.Start),
		Done:            pos(c.Pen.Done),
		Origin:          pos(c.Pen.Origin),
		TravelSpeed:     c.Speed.XYTravel,
		ZSpeed:          c.Speed.ZTravel,
		SpeedMultiplier: c.Speed.Multiplier,
	}
}

// Layout returns the writable area of the page.
func (c Config) Layout() handwriting.Page {
	p := c.Page
	return handwriting.Page{
		Left:       p.XOffset + p.XBuffer,
		Right:      p.XOffset + p.Width - p.WidthBuffer,
		Top:        p.BedHeight - p.YOffset,
		Bottom:     p.HeightBuffer,
		LineHeight: p.LineHeight,
		DateX:      p.XOffset + p.DateXOffset,
	}
}

// PenRange returns the pen-down height range.
func (c Config) PenRange() handwriting.Pen {
	return handwriting.Pen{DownMin: c.Pen.DownMin, DownMax: c.Pen.DownMax}
}

// MistakeConfig returns the misspelling settings.
func (c Config) MistakeConfig() handwriting.MistakeConfig {
	m := c.Mistakes
	return handwriting.MistakeConfig{
		Probability:        m.Probability,
		CrossingHeight:     m.CrossingHeight,
		Overhang:           m.Overhang,
		MaxPointVariance:   m.PointVariance,
		MinForce:           m.MinForce,
		MaxForce:           m.MaxForce,
		PointsPerCharacter: m.PointsPerCharacter,
		TimePerCharacter:   m.TimePerCharacter,
	}
}
