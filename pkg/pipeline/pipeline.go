// Package pipeline provides the synthesis pipeline of scribe.
//
// This package turns text into a finished plotter program and is shared by
// the CLI and the HTTP service, so both produce byte-identical output for the
// same inputs.
//
// # Architecture
//
// A run has three parts:
//
//  1. Header: the settings of the run are echoed as G-code comments and the
//     machine init sequence is emitted.
//  2. Synthesis: a [handwriting.Writer] lays out the optional date line and
//     the text, handing every word trajectory to a [toolpath.Emitter].
//  3. Finalization: the pen is parked and progress markers are inserted.
//
// Programs are deterministic for a given text, font, configuration, seed and
// date, so the [Runner] caches them under a hash of those inputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Generate(ctx, pipeline.Options{
//	    Text:   "Liebe Oma,\nvielen Dank!",
//	    Config: config.Default(),
//	    Seed:   7,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Program.Summary())
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/font"
	"github.com/matzehuels/scribe/pkg/handwriting"
	"github.com/matzehuels/scribe/pkg/toolpath"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSeed is the seed used when Options.Seed is zero.
	DefaultSeed = uint64(42)

	// DateLayout formats the date line, e.g. "19.Oct.26".
	DateLayout = "02.Jan.06"
)

// Format constants for program renderings.
const (
	FormatGCode = "gcode"
	FormatSVG   = "svg"
	FormatPNG   = "png"
)

// ValidFormats is the set of supported renderings.
var ValidFormats = map[string]bool{
	FormatGCode: true,
	FormatSVG:   true,
	FormatPNG:   true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: gcode, svg, png)", format)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains everything that determines a run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Text string `json:"text"`
	Seed uint64 `json:"seed,omitempty"`
	// Date is written at the top of the first page. Empty means today.
	Date   string `json:"date,omitempty"`
	NoDate bool   `json:"no_date,omitempty"`
	// Refresh bypasses the cache lookup; the result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Config config.Config    `json:"-"`
	Font   *font.Font       `json:"-"` // loaded from Config when nil
	Logger *log.Logger      `json:"-"`
	Now    func() time.Time `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.Text = norm.NFC.String(strings.ReplaceAll(o.Text, "\r\n", "\n"))
	if strings.TrimSpace(o.Text) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "text is required")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}

	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NoDate {
		o.Date = ""
	} else if o.Date == "" {
		o.Date = o.Now().Format(DateLayout)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LoadFont resolves the font of the run, reading it from the configured
// font directory if none was supplied.
func (o *Options) LoadFont() (*font.Font, error) {
	if o.Font != nil {
		return o.Font, nil
	}
	f, err := font.Open(o.Config.FontDir, o.Config.Font)
	if err != nil {
		return nil, err
	}
	o.Font = f
	return f, nil
}

// ProgramKeyOpts returns the cache key inputs. The font must be loaded.
func (o *Options) ProgramKeyOpts() cache.ProgramKeyOpts {
	opts := cache.ProgramKeyOpts{
		Text:   o.Text,
		Config: o.Config.Fingerprint(),
		Seed:   o.Seed,
		Date:   o.Date,
	}
	if o.Font != nil {
		opts.FontDigest = o.Font.Digest
	}
	return opts
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	Program *toolpath.Program

	// Minutes and Seconds are the estimated plot time.
	Minutes, Seconds int

	// Stats and Words describe the layout. Both are restored from the cache
	// on a hit.
	Stats handwriting.Stats
	Words []handwriting.WordRecord

	// Key is the program's cache key.
	Key string

	// Cached reports whether the program came from the cache.
	Cached bool

	// Duration is the wall time spent producing the result.
	Duration time.Duration
}

// Title derives a file name stem from the first line of text: its words
// joined by underscores. Characters that are unsafe in file names are
// dropped.
func Title(text string) string {
	first, _, _ := strings.Cut(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	title := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, strings.Join(strings.Fields(first), "_"))
	if title == "" {
		return "program"
	}
	return title
}
