package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scribe/pkg/font"
)

// glyphsCommand creates the glyphs command for inspecting a font.
func (c *CLI) glyphsCommand() *cobra.Command {
	var (
		flags       configFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "glyphs",
		Short: "List the characters of a font",
		Long: `List the characters of a font with their variants.

With -i the glyphs can be browsed interactively, showing a sketch of every
recorded variant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			f, err := font.Open(cfg.FontDir, cfg.Font)
			if err != nil {
				return err
			}
			c.Logger.Debug("font loaded", "name", f.Name, "digest", f.Digest[:12])
			if interactive {
				return runGlyphBrowser(f)
			}
			printGlyphTable(f)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse glyphs interactively")

	return cmd
}

// runGlyphBrowser starts the bubbletea glyph browser.
func runGlyphBrowser(f *font.Font) error {
	if len(f.Runes()) == 0 {
		printWarning("Font %s has no usable glyphs", f.Name)
		return nil
	}
	_, err := tea.NewProgram(NewGlyphListModel(f), tea.WithAltScreen()).Run()
	return err
}

// printGlyphTable prints every glyph of f with its variant statistics.
func printGlyphTable(f *font.Font) {
	runes := f.Runes()
	printInfo("Font %s: %s", StyleHighlight.Render(f.Name), StyleNumber.Render(plural(len(runes), "glyph")))
	printKeyValue("Cap height", strconv.FormatFloat(f.Params.CapitalHeight, 'f', -1, 64)+" mm")
	printKeyValue("Space", strconv.FormatFloat(f.Params.SpaceWidth, 'f', -1, 64)+" mm")
	printNewline()

	rows := make([][]string, 0, len(runes))
	for _, r := range runes {
		g, err := f.Lookup(r)
		if err != nil {
			continue
		}
		rows = append(rows, glyphRow(r, g))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Char", "Cursive", "Variants", "Strokes", "Points").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	fmt.Println(t.Render())

	if bad := f.Malformed(); len(bad) > 0 {
		printWarning("%s could not be decoded: %s", plural(len(bad), "glyph"), string(bad))
	}
}

// glyphRow summarizes g. Strokes and points are averaged over the variants.
func glyphRow(r rune, g font.Glyph) []string {
	var strokes, points int
	for _, v := range g.Variants {
		strokes += len(v)
		points += v.PointCount()
	}
	n := max(len(g.Variants), 1)
	cursive := ""
	if g.Cursive {
		cursive = iconSuccess
	}
	return []string{
		string(r),
		cursive,
		strconv.Itoa(len(g.Variants)),
		strconv.FormatFloat(float64(strokes)/float64(n), 'f', 1, 64),
		strconv.FormatFloat(float64(points)/float64(n), 'f', 1, 64),
	}
}
