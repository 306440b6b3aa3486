package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scribe/pkg/toolpath"
)

// estimateCommand creates the estimate command.
func (c *CLI) estimateCommand() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "estimate [file.gcode]",
		Short: "Estimate the run time of a G-code program",
		Long: `Estimate the run time of a G-code program.

The program is replayed against the machine model of the config: every move
is timed with the machine's accelerations and feedrates. With --output the
program is written again with fresh M73 progress markers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return c.runEstimate(args[0], cfg.Machine(), output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: ~/.config/scribe/config.toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the program with recomputed progress markers")

	return cmd
}

func (c *CLI) runEstimate(path string, m toolpath.Machine, output string) error {
	prog := newProgress(c.Logger)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := toolpath.Parse(f, m)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	p := toolpath.Replay(lines, m, c.Logger)
	prog.done(fmt.Sprintf("Replayed %d lines", len(lines)))

	printKeyValue("Estimate", p.Summary())
	printKeyValue("Pages", fmt.Sprint(p.PageBreaks+1))
	printKeyValue("Print", fmt.Sprint(p.Moves(toolpath.Print)))
	printKeyValue("Travel", fmt.Sprint(p.Moves(toolpath.Travel)))
	printKeyValue("Service", fmt.Sprint(p.Moves(toolpath.Service)))
	printKeyValue("Markers", fmt.Sprint(len(p.Checkpoints)))

	if output == "" {
		return nil
	}
	if err := os.WriteFile(output, p.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}
