package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/scribe/pkg/font"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	sketchStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

const (
	sketchWidth  = 36
	sketchHeight = 16
)

// =============================================================================
// GlyphListModel - Interactive glyph browser
// =============================================================================

// GlyphListModel is the bubbletea model for browsing the glyphs of a font.
type GlyphListModel struct {
	Font    *font.Font
	Runes   []rune
	Cursor  int
	Variant int
	Height  int
	Offset  int
}

// NewGlyphListModel creates a new glyph list model.
func NewGlyphListModel(f *font.Font) GlyphListModel {
	return GlyphListModel{
		Font:   f,
		Runes:  f.Runes(),
		Height: sketchHeight,
	}
}

func (m GlyphListModel) Init() tea.Cmd {
	return nil
}

func (m GlyphListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.Variant = 0
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Runes)-1 {
				m.Cursor++
				m.Variant = 0
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "right", "l", "tab":
			if n := m.variants(); n > 0 {
				m.Variant = (m.Variant + 1) % n
			}
		case "left", "h", "shift+tab":
			if n := m.variants(); n > 0 {
				m.Variant = (m.Variant + n - 1) % n
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m GlyphListModel) variants() int {
	if len(m.Runes) == 0 {
		return 0
	}
	g, err := m.Font.Lookup(m.Runes[m.Cursor])
	if err != nil {
		return 0
	}
	return len(g.Variants)
}

func (m GlyphListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Glyphs of " + m.Font.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ glyph  ←/→ variant  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Runes))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		r := m.Runes[i]
		g, _ := m.Font.Lookup(r)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%c  %d", cursor, r, len(g.Variants))
		if g.Cursive {
			line += " ~"
		}
		if i == m.Cursor {
			list.WriteString(listSelectedStyle.Render(line))
		} else {
			list.WriteString(listNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}

	var detail string
	if len(m.Runes) > 0 {
		detail = m.detail()
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(14).Render(list.String()), detail))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Runes))))

	return b.String()
}

func (m GlyphListModel) detail() string {
	r := m.Runes[m.Cursor]
	g, err := m.Font.Lookup(r)
	if err != nil {
		return StyleWarning.Render(err.Error())
	}
	v := g.Variants[m.Variant]
	kind := "block"
	if g.Cursive {
		kind = "cursive"
	}
	header := fmt.Sprintf("%s  variant %d/%d  %s, %s, %s",
		StyleHighlight.Render(string(r)), m.Variant+1, len(g.Variants),
		kind, plural(len(v), "stroke"), plural(v.PointCount(), "point"))
	return header + "\n" + sketchStyle.Render(sketch(v, sketchWidth, sketchHeight))
}

// =============================================================================
// Helpers
// =============================================================================

// sketch draws the strokes of v on a character grid of w×h cells. Font y
// grows downwards like the rows of the grid.
func sketch(v font.Variant, w, h int) string {
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range v {
		for _, p := range s {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return joinGrid(grid)
	}

	// Cells are about twice as high as wide.
	k := math.Inf(1)
	if dx := maxX - minX; dx > 0 {
		k = float64(w-1) / dx
	}
	if dy := maxY - minY; dy > 0 {
		k = math.Min(k, 2*float64(h-1)/dy)
	}
	if math.IsInf(k, 1) {
		k = 0
	}
	cell := func(p font.Point) (int, int) {
		return int(math.Round((p.X - minX) * k)), int(math.Round((p.Y - minY) * k / 2))
	}

	for _, s := range v {
		for i, p := range s {
			x1, y1 := cell(p)
			if i == 0 {
				plot(grid, x1, y1)
				continue
			}
			x0, y0 := cell(s[i-1])
			steps := max(abs(x1-x0), abs(y1-y0), 1)
			for j := 0; j <= steps; j++ {
				t := float64(j) / float64(steps)
				plot(grid, x0+int(math.Round(t*float64(x1-x0))), y0+int(math.Round(t*float64(y1-y0))))
			}
		}
	}
	return joinGrid(grid)
}

func plot(grid [][]rune, x, y int) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
		grid[y][x] = '•'
	}
}

func joinGrid(grid [][]rune) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
