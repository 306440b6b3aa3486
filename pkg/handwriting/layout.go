package handwriting

import (
	"io"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/font"
	"github.com/matzehuels/scribe/pkg/variance"
)

// Page holds the writable area in machine coordinates (mm).
type Page struct {
	// Left is where every line starts.
	Left float64
	// Right is the wrap threshold: a word reaching it moves to the next line.
	Right float64
	// Top is the baseline of the first line on a page.
	Top float64
	// Bottom is the page-break threshold: a word reaching it moves to a new page.
	Bottom float64
	// LineHeight is the baseline distance between lines.
	LineHeight float64
	// DateX is the x position of the date header.
	DateX float64
}

// Plotter receives the output of a [Writer].
type Plotter interface {
	// Trace draws one trajectory.
	Trace(Trajectory) error
	// PageBreak pauses for a fresh sheet and re-homes the machine.
	PageBreak() error
}

// Config configures a [Writer].
type Config struct {
	Page     Page
	Pen      Pen
	Mistakes MistakeConfig
	// Logger receives data gaps, wraps, page breaks and misspellings.
	// Nil discards them.
	Logger *log.Logger
}

// Stats summarizes what a [Writer] has produced.
type Stats struct {
	Lines        int // source lines consumed
	Words        int // words traced, misspellings included
	Pages        int
	Wraps        int
	Misspellings int
	Gaps         int // characters skipped for missing or malformed glyphs
	Overflows    int // words still past the right margin after wrapping
}

// WordRecord describes where a word ended up.
type WordRecord struct {
	Text     string
	Line     int // layout line on its page, starting at 0
	Page     int // starting at 1
	X        Extent
	Baseline float64
	// Misspelled marks a deliberately wrong word that is crossed out after
	// the correct word following it.
	Misspelled bool
}

// narrowCapitals are written without trailing letter spacing.
const narrowCapitals = "TFPYV"

// Writer lays text out line by line and hands each word's trajectory to a
// [Plotter].
//
// The horizontal cursor resets at every line and the vertical cursor at every
// page. A word is always moved as a whole: if any of its samples reaches the
// right margin it is shifted to the start of the next line, and if any
// sample then reaches the bottom margin it is shifted to the top of a new
// page.
type Writer struct {
	font     *font.Font
	cfg      Config
	log      *log.Logger
	plotter  Plotter
	renderer *Renderer
	composer Composer
	mistakes *Mistakes
	variance *variance.Generator

	x, y    float64 // word cursor and baseline
	charEnd float64 // end of the last rendered character on this line
	line    int
	page    int

	pending *WordRecord
	stats   Stats
	words   []WordRecord
}

// NewWriter returns a writer for f that draws all randomness from rng.
func NewWriter(f *font.Font, cfg Config, rng *rand.Rand, p Plotter) *Writer {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w := &Writer{
		font:     f,
		cfg:      cfg,
		log:      logger,
		plotter:  p,
		renderer: NewRenderer(f, cfg.Pen, rng),
		composer: Composer{
			BridgePoints: f.Params.CursiveConnectionPoints,
			BridgeTime:   f.Params.CursiveConnectionTime,
			Pen:          cfg.Pen,
		},
		mistakes: NewMistakes(cfg.Mistakes, rng),
		variance: variance.NewGenerator(rng),
		page:     1,
	}
	w.x, w.y, w.charEnd = cfg.Page.Left, cfg.Page.Top, cfg.Page.Left
	w.stats.Pages = 1
	return w
}

// Mistakes exposes the writer's mistake planner.
func (w *Writer) Mistakes() *Mistakes { return w.mistakes }

// Stats returns counters for everything written so far.
func (w *Writer) Stats() Stats { return w.stats }

// Words returns the placement of every word written so far.
func (w *Writer) Words() []WordRecord { return w.words }

// jitter holds the four per-character variance curves of a line.
type jitter struct {
	x, y, height, skew *variance.Sequence
}

func (w *Writer) newJitter(n int) (*jitter, error) {
	spacing := w.font.Params.CharacterVariance
	seqs := make([]*variance.Sequence, 4)
	for i := range seqs {
		s, err := w.variance.Generate(n, spacing)
		if err != nil {
			return nil, err
		}
		seqs[i] = s
	}
	return &jitter{x: seqs[0], y: seqs[1], height: seqs[2], skew: seqs[3]}, nil
}

// next pops one value from each curve.
func (j *jitter) next() (x, y, height, skew float64, err error) {
	vals := [4]float64{}
	for i, seq := range []*variance.Sequence{j.x, j.y, j.height, j.skew} {
		if vals[i], err = seq.Next(); err != nil {
			return 0, 0, 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "character jitter")
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// place computes the placement of the next character at cursor x on
// baseline and advances x by the jitter offset.
func (w *Writer) place(j *jitter, x *float64, baseline float64) (Placement, error) {
	vx, vy, vh, vs, err := j.next()
	if err != nil {
		return Placement{}, err
	}
	p := w.font.Params
	*x += p.MaxXVariance * vx
	return Placement{
		X:      *x,
		Y:      baseline + p.MaxYVariance*vy,
		Height: p.MaxHeightVariance * vh,
		Skew:   p.MinSkew + (vs+1)*(p.MaxSkew-p.MinSkew)/2,
	}, nil
}

// advance moves x past a rendered glyph.
func (w *Writer) advance(x *float64, ch rune, g Glyph) {
	*x += g.MaxX
	if !strings.ContainsRune(narrowCapitals, ch) {
		*x += w.font.Params.XSpacing
	}
}

// render renders one character, turning data errors into empty glyphs.
func (w *Writer) render(r *Renderer, ch rune, p Placement) (Glyph, bool, error) {
	g, err := r.Render(ch, p)
	if err == nil {
		return g, true, nil
	}
	if errors.IsDataError(err) {
		w.stats.Gaps++
		w.log.Warn("skipping character", "char", string(ch), "code", errors.GetCode(err), "err", errors.UserMessage(err))
		return Glyph{Rune: ch}, false, nil
	}
	return Glyph{}, false, err
}

// WriteHeader writes date at the top of the current page, right of the body
// text, at the font's date capital height.
func (w *Writer) WriteHeader(date string) error {
	runes := []rune(norm.NFC.String(date))
	if len(runes) == 0 {
		return nil
	}
	j, err := w.newJitter(len(runes))
	if err != nil {
		return err
	}

	r := w.renderer
	if h := w.font.Params.DateCapitalHeight; h > 0 {
		r = r.WithCapitalHeight(h)
	}

	x := w.cfg.Page.DateX
	glyphs := make([]Glyph, 0, len(runes))
	for _, ch := range runes {
		p, err := w.place(j, &x, w.cfg.Page.Top)
		if err != nil {
			return err
		}
		g, ok, err := w.render(r, ch, p)
		if err != nil {
			return err
		}
		if ok {
			w.advance(&x, ch, g)
		}
		glyphs = append(glyphs, g)
	}

	w.log.Debug("writing date header", "date", string(runes))
	return w.trace(runes, glyphs)
}

// token is a run of spaces or a word within a line.
type token struct {
	text        []rune
	space       bool
	misspelling bool
}

// tokenize splits line into alternating word and whitespace runs and plans
// misspellings. A misspelled copy is inserted before its word, followed by a
// single space.
func (w *Writer) tokenize(line string) []token {
	var tokens []token
	runes := []rune(line)
	for start := 0; start < len(runes); {
		space := unicode.IsSpace(runes[start])
		end := start + 1
		for end < len(runes) && unicode.IsSpace(runes[end]) == space {
			end++
		}
		text := runes[start:end]
		start = end

		if !space {
			if m, ok := w.mistakes.Plan(string(text)); ok {
				w.stats.Misspellings++
				w.log.Debug("misspelling word", "word", m.Word, "as", m.Misspelling)
				tokens = append(tokens,
					token{text: []rune(m.Misspelling), misspelling: true},
					token{text: []rune{' '}, space: true},
				)
			}
		}
		tokens = append(tokens, token{text: text, space: space})
	}
	return tokens
}

// Write lays out text, which may span several lines, from the current
// cursor position. Each source line starts on a fresh layout line.
func (w *Writer) Write(text string) error {
	text = strings.ReplaceAll(norm.NFC.String(text), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for _, line := range lines {
		w.stats.Lines++
		if line != "" {
			if err := w.writeLine(line); err != nil {
				return err
			}
		}
		w.newLine()
	}
	return nil
}

func (w *Writer) newLine() {
	w.x = w.cfg.Page.Left
	w.charEnd = w.x
	w.y -= w.cfg.Page.LineHeight
	w.line++
}

func (w *Writer) writeLine(line string) error {
	tokens := w.tokenize(line)
	n := 0
	for _, t := range tokens {
		n += len(t.text)
	}
	j, err := w.newJitter(n)
	if err != nil {
		return err
	}

	p := w.font.Params
	for _, t := range tokens {
		if t.space {
			for range t.text {
				vx, _, _, _, err := j.next()
				if err != nil {
					return err
				}
				w.x = max(w.x, w.charEnd) + p.SpaceWidth + 3*p.MaxXVariance*vx
			}
			continue
		}
		if err := w.writeWord(j, t); err != nil {
			return err
		}
	}
	return w.flushStrike()
}

func (w *Writer) writeWord(j *jitter, t token) error {
	x := w.x
	glyphs := make([]Glyph, 0, len(t.text))
	for _, ch := range t.text {
		p, err := w.place(j, &x, w.y)
		if err != nil {
			return err
		}
		g, ok, err := w.render(w.renderer, ch, p)
		if err != nil {
			return err
		}
		if ok {
			w.advance(&x, ch, g)
		}
		glyphs = append(glyphs, g)
	}
	w.charEnd = x

	if w.fit(glyphs) {
		if err := w.flushStrike(); err != nil {
			return err
		}
		w.stats.Pages++
		w.page++
		w.line = 0
		w.log.Debug("page break", "page", w.page, "word", string(t.text))
		if err := w.plotter.PageBreak(); err != nil {
			return err
		}
	}

	if err := w.trace(t.text, glyphs); err != nil {
		return err
	}
	w.stats.Words++

	xs, _, ok := bounds(glyphs)
	if !ok {
		xs = Extent{}
	}
	rec := WordRecord{
		Text:       string(t.text),
		Line:       w.line,
		Page:       w.page,
		X:          xs,
		Baseline:   w.y,
		Misspelled: t.misspelling,
	}
	w.words = append(w.words, rec)

	if t.misspelling {
		if ok {
			w.pending = &rec
		}
		return nil
	}
	return w.flushStrike()
}

// fit moves a freshly rendered word onto the page. It wraps the word to the
// next line if it reaches the right margin and moves it to the top of a new
// page if it reaches the bottom margin. It reports whether a page break is
// needed before the word is traced.
func (w *Writer) fit(glyphs []Glyph) bool {
	xs, _, ok := bounds(glyphs)
	if !ok {
		return false
	}
	page := w.cfg.Page

	if xs.Max >= page.Right {
		dx := -(w.x - page.Left)
		for i := range glyphs {
			glyphs[i].Translate(dx, -page.LineHeight)
		}
		w.charEnd += dx
		w.x = page.Left
		w.y -= page.LineHeight
		w.line++
		w.stats.Wraps++

		if xs, _, _ = bounds(glyphs); xs.Max >= page.Right {
			w.stats.Overflows++
			err := errors.New(errors.ErrCodeLayoutOverflow, "word exceeds right margin by %.2f mm", xs.Max-page.Right)
			w.log.Warn("word too wide for page", "code", errors.GetCode(err), "err", errors.UserMessage(err))
		}
	}

	_, ys, _ := bounds(glyphs)
	if ys.Min > page.Bottom {
		return false
	}
	dy := page.Top - w.y
	for i := range glyphs {
		glyphs[i].Translate(0, dy)
	}
	w.y = page.Top
	return true
}

func (w *Writer) trace(word []rune, glyphs []Glyph) error {
	traj := w.composer.Compose(word, glyphs)
	if traj.Empty() {
		return nil
	}
	return w.plotter.Trace(traj)
}

// flushStrike crosses out the pending misspelled word, if any.
func (w *Writer) flushStrike() error {
	rec := w.pending
	if rec == nil {
		return nil
	}
	w.pending = nil

	traj, err := w.mistakes.Strike(rec.X, rec.Baseline, len([]rune(rec.Text)),
		w.font.Params.CapitalHeight, w.font.Params.PointVariance, w.cfg.Pen)
	if err != nil {
		return err
	}
	if traj.Empty() {
		return nil
	}
	return w.plotter.Trace(traj)
}
