package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/handwriting"
	"github.com/matzehuels/scribe/pkg/observability"
	"github.com/matzehuels/scribe/pkg/toolpath"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so that caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// entry is the cached form of a result.
type entry struct {
	GCode string                   `json:"gcode"`
	Stats handwriting.Stats        `json:"stats"`
	Words []handwriting.WordRecord `json:"words,omitempty"`
}

// Generate produces the program for opts, from the cache when possible.
func (r *Runner) Generate(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	f, err := opts.LoadFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	key := r.Keyer.ProgramKey(opts.ProgramKeyOpts())

	if !opts.Refresh {
		if res, ok := r.lookup(ctx, key, opts); ok {
			res.Duration = time.Since(start)
			r.Logger.Debug("program from cache", "key", key)
			return res, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, f.Name, utf8.RuneCountInString(opts.Text))
	res, err := Synthesize(ctx, opts)
	pages := 0
	if res != nil {
		pages = res.Stats.Pages
	}
	hooks.OnGenerateComplete(ctx, f.Name, pages, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	res.Key = key
	r.store(ctx, key, res)
	res.Duration = time.Since(start)

	r.Logger.Info("generated program",
		"lines", len(res.Program.Lines),
		"pages", res.Stats.Pages,
		"estimate", res.Program.Summary(),
		"duration", res.Duration)
	return res, nil
}

// Load returns the cached program stored under key. The second result is
// false on a miss.
func (r *Runner) Load(ctx context.Context, key string, opts Options) (*Result, bool) {
	r.applyLogger(&opts)
	return r.lookup(ctx, key, opts)
}

func (r *Runner) lookup(ctx context.Context, key string, opts Options) (*Result, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		hooks.OnCacheMiss(ctx, "program")
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		r.Logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		return nil, false
	}
	m := opts.Config.Machine()
	lines, err := toolpath.Parse(strings.NewReader(e.GCode), m)
	if err != nil {
		r.Logger.Warn("discarding unreadable cached program", "key", key, "err", err)
		return nil, false
	}
	hooks.OnCacheHit(ctx, "program")

	prog := toolpath.Replay(lines, m, opts.Logger)
	return &Result{
		Program: prog,
		Minutes: prog.Minutes,
		Seconds: prog.Seconds,
		Stats:   e.Stats,
		Words:   e.Words,
		Key:     key,
		Cached:  true,
	}, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(entry{GCode: res.Program.String(), Stats: res.Stats, Words: res.Words})
	if err != nil {
		r.Logger.Warn("encode cache entry", "err", err)
		return
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, cache.ProgramTTL)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "program", len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// =============================================================================
// Synthesis
// =============================================================================

// Synthesize runs the pipeline without caching.
func Synthesize(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	f, err := opts.LoadFont()
	if err != nil {
		return nil, err
	}
	cfg := opts.Config

	em := toolpath.NewEmitter(cfg.Machine(), opts.Logger)
	for _, line := range settings(opts) {
		em.Comment("%s", line)
	}
	em.Init()

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	w := handwriting.NewWriter(f, handwriting.Config{
		Page:     cfg.Layout(),
		Pen:      cfg.PenRange(),
		Mistakes: cfg.MistakeConfig(),
		Logger:   opts.Logger,
	}, rng, em)

	if opts.Date != "" {
		if err := w.WriteHeader(opts.Date); err != nil {
			return nil, fmt.Errorf("write date: %w", err)
		}
	}
	for _, line := range splitLines(opts.Text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.Write(line); err != nil {
			return nil, fmt.Errorf("write text: %w", err)
		}
	}
	em.Finish()

	prog := em.Finalize()
	return &Result{
		Program: prog,
		Minutes: prog.Minutes,
		Seconds: prog.Seconds,
		Stats:   w.Stats(),
		Words:   w.Words(),
	}, nil
}

// splitLines splits text into source lines. A trailing newline does not
// start another line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// settings echoes the configuration of a run as comment lines. Empty
// strings separate the sections.
func settings(opts Options) []string {
	c, p := opts.Config, opts.Font.Params
	var b settingsBuilder

	b.section("DEVICE INFO")
	b.add("BRAND", c.Device.Brand)
	b.add("HOMING", c.Device.Homing)
	b.add("PAUSE", c.Device.Pause)
	b.add("XY_ACCELERATION", c.Device.XYAcceleration)
	b.add("XY_TRAVEL_ACCELERATION", c.Device.XYTravelAcceleration)
	b.add("Z_ACCELERATION", c.Device.ZAcceleration)

	b.section("INPUT")
	b.add("text", fmt.Sprintf("%q", opts.Text))
	b.add("font", opts.Font.Name)
	b.add("seed", opts.Seed)
	b.add("date", opts.Date)

	b.section("PRINT SETTINGS")
	b.add("pen_down_min", c.Pen.DownMin)
	b.add("pen_down_max", c.Pen.DownMax)
	b.add("pen_up", c.Pen.Up)
	b.add("pen_x_print_done", c.Pen.Done.X)
	b.add("pen_y_print_done", c.Pen.Done.Y)
	b.add("pen_z_print_done", c.Pen.Done.Z)
	b.add("pen_x_print_start", c.Pen.Start.X)
	b.add("pen_y_print_start", c.Pen.Start.Y)
	b.add("pen_z_print_start", c.Pen.Start.Z)
	b.add("x_homing", c.Pen.HomeX)
	b.add("y_homing", c.Pen.HomeY)
	b.add("print_bed_height", c.Page.BedHeight)
	b.add("page_x_offset", c.Page.XOffset)
	b.add("page_y_offset", c.Page.YOffset)
	b.add("page_width", c.Page.Width)
	b.add("page_width_buffer", c.Page.WidthBuffer)
	b.add("page_height_buffer", c.Page.HeightBuffer)
	b.add("page_x_buffer", c.Page.XBuffer)
	b.add("date_x_offset", c.Page.DateXOffset)
	b.add("line_height", c.Page.LineHeight)
	b.add("xy_travel_speed", c.Speed.XYTravel)
	b.add("z_travel_speed", c.Speed.ZTravel)
	b.add("speed_multiplier", c.Speed.Multiplier)
	b.add("word_crossing_probability", c.Mistakes.Probability)

	b.section("FONT DATA")
	b.add("cursive_connection_points", p.CursiveConnectionPoints)
	b.add("cursive_connection_time", p.CursiveConnectionTime)
	b.add("capital_character_height", p.CapitalHeight)
	b.add("date_capital_character_height", p.DateCapitalHeight)
	b.add("space_width", p.SpaceWidth)
	b.add("x_spacing", p.XSpacing)
	b.add("max_height_variance", p.MaxHeightVariance)
	b.add("max_x_variance", p.MaxXVariance)
	b.add("max_y_variance", p.MaxYVariance)
	b.add("min_skew", p.MinSkew)
	b.add("max_skew", p.MaxSkew)
	b.add("max_stroke_point_x_variance", p.MaxPointXVariance)
	b.add("max_stroke_point_y_variance", p.MaxPointYVariance)
	b.add("new_character_variance", p.CharacterVariance)
	b.add("new_point_variance", p.PointVariance)
	b.lines = append(b.lines, "")

	return b.lines
}

type settingsBuilder struct {
	lines []string
}

func (b *settingsBuilder) section(name string) {
	if len(b.lines) > 0 {
		b.lines = append(b.lines, "")
	}
	b.lines = append(b.lines, name+":")
}

func (b *settingsBuilder) add(name string, v any) {
	b.lines = append(b.lines, strings.TrimSpace(fmt.Sprintf("%s = %v", name, v)))
}
