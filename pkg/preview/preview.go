// Package preview draws what a program will put on paper.
//
// [Trace] replays a program and collects the paths the pen draws while it
// is below its travel height, split into pages at every pause. [SVG] and
// [PNG] render one page of them.
//
//	pages := preview.Trace(program.Lines, machine)
//	svg, err := preview.SVG(pages, frame, preview.WithPage(1))
package preview

import (
	"image/color"
	"math"

	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/toolpath"
)

// Point is a position on the bed in mm.
type Point struct {
	X, Y float64
}

// Stroke is one continuous pen-down path.
type Stroke []Point

// Page holds the strokes drawn on one sheet.
type Page []Stroke

// Frame is the area of the bed to draw, in machine coordinates (y up).
type Frame struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the frame width in mm.
func (f Frame) Width() float64 { return f.MaxX - f.MinX }

// Height returns the frame height in mm.
func (f Frame) Height() float64 { return f.MaxY - f.MinY }

// IsZero reports whether the frame is unset.
func (f Frame) IsZero() bool { return f == Frame{} }

// Trace replays lines on m and returns the pen-down paths per page. A page
// without strokes is kept so that page numbers match the sheets used.
func Trace(lines []toolpath.Instruction, m toolpath.Machine) []Page {
	pos := m.Origin
	down := func(z float64) bool { return z < m.PenUp }

	pages := []Page{nil}
	var cur Stroke
	flush := func() {
		if len(cur) > 1 {
			pages[len(pages)-1] = append(pages[len(pages)-1], cur)
		}
		cur = nil
	}

	for _, in := range lines {
		if !in.IsMove() {
			switch text := in.Text; {
			case m.Pause != "" && text == m.Pause:
				flush()
				pages = append(pages, nil)
			case m.Homing != "" && text == m.Homing+" X0 Y0":
				flush()
				pos.X, pos.Y = 0, 0
			case m.Homing != "" && text == m.Homing+" Z0":
				flush()
				pos.Z = m.HomedZ
			}
			continue
		}

		next := pos
		if in.Has(toolpath.AxisX) {
			next.X = in.X
		}
		if in.Has(toolpath.AxisY) {
			next.Y = in.Y
		}
		if in.Has(toolpath.AxisZ) {
			next.Z = in.Z
		}

		switch {
		case !down(pos.Z) || !down(next.Z):
			flush()
		case next.X != pos.X || next.Y != pos.Y:
			if cur == nil {
				cur = Stroke{{pos.X, pos.Y}}
			}
			cur = append(cur, Point{next.X, next.Y})
		}
		pos = next
	}
	flush()
	return pages
}

// Bounds returns the smallest frame around the strokes of p, grown by
// margin on every side. An empty page yields a frame of 2·margin around the
// origin.
func Bounds(p Page, margin float64) Frame {
	f := Frame{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, s := range p {
		for _, pt := range s {
			f.MinX, f.MaxX = min(f.MinX, pt.X), max(f.MaxX, pt.X)
			f.MinY, f.MaxY = min(f.MinY, pt.Y), max(f.MaxY, pt.Y)
		}
	}
	if math.IsInf(f.MinX, 1) {
		return Frame{MinX: -margin, MinY: -margin, MaxX: margin, MaxY: margin}
	}
	return Frame{MinX: f.MinX - margin, MinY: f.MinY - margin, MaxX: f.MaxX + margin, MaxY: f.MaxY + margin}
}

// =============================================================================
// Options
// =============================================================================

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	page   int
	width  float64
	ink    color.RGBA
	paper  color.RGBA
	scale  float64
	margin float64
}

// WithPage selects the page to draw, starting at 1 (default 1).
func WithPage(n int) Option { return func(r *renderer) { r.page = n } }

// WithStrokeWidth sets the pen width in mm (default 0.5).
func WithStrokeWidth(w float64) Option { return func(r *renderer) { r.width = w } }

// WithInk sets the pen color (default a dark blue).
func WithInk(c color.RGBA) Option { return func(r *renderer) { r.ink = c } }

// WithScale sets the PNG resolution in pixels per mm (default 4).
func WithScale(s float64) Option { return func(r *renderer) { r.scale = s } }

func newRenderer(opts ...Option) renderer {
	r := renderer{
		page:   1,
		width:  0.5,
		ink:    color.RGBA{R: 0x1b, G: 0x2a, B: 0x6b, A: 0xff},
		paper:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		scale:  4,
		margin: 5,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// selectPage returns the configured page and the frame to draw it in.
func (r renderer) selectPage(pages []Page, f Frame) (Page, Frame, error) {
	if r.page < 1 || r.page > len(pages) {
		return nil, Frame{}, errors.New(errors.ErrCodeInvalidInput,
			"page %d out of range (program has %d)", r.page, len(pages))
	}
	p := pages[r.page-1]
	if f.IsZero() {
		f = Bounds(p, r.margin)
	}
	if f.Width() <= 0 || f.Height() <= 0 {
		return nil, Frame{}, errors.New(errors.ErrCodeInvalidInput, "empty frame %+v", f)
	}
	return p, f, nil
}
