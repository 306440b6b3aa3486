package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	config  configFlags
	file    string // read the text from a file, "-" for stdin
	output  string // output file or directory
	preview string // also write a preview: svg or png
	seed    uint64
	date    string
	noDate  bool
	noCache bool
	refresh bool
	redis   string
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Write text as a G-code handwriting program",
		Long: `Write text as a G-code handwriting program.

The text is taken from the arguments, or from --file ("-" reads stdin). The
program is saved as <first line of text>.gcode in the current directory unless
--output names a file or a directory; an existing file gets a _<n> suffix.

Programs are deterministic for a given text, font, config, seed and date and
are cached locally.`,
		Example: `  scribe generate "Dear Ada, thanks for the plotter."
  scribe generate -f letter.txt --seed 7 --no-date --preview svg
  cat letter.txt | scribe generate -f - --mistakes 0 -o out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.preview != "" && opts.preview != pipeline.FormatSVG && opts.preview != pipeline.FormatPNG {
				return fmt.Errorf("invalid preview format: %s (must be 'svg' or 'png')", opts.preview)
			}
			text, err := readText(args, opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runGenerate(cmd, text, opts)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `read text from file ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or directory")
	cmd.Flags().StringVarP(&opts.preview, "preview", "p", "", "also write a preview: svg, png")
	cmd.Flags().Uint64Var(&opts.seed, "seed", pipeline.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&opts.date, "date", "", "date written in the header (default: today, "+pipeline.DateLayout+")")
	cmd.Flags().BoolVar(&opts.noDate, "no-date", false, "omit the date header")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even if cached")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "use a Redis cache at this address")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, text string, opts generateOpts) error {
	ctx := cmd.Context()
	cfg, err := opts.config.load(cmd)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redis)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Writing...")
	spinner.Start()

	res, err := runner.Generate(ctx, pipeline.Options{
		Text:    text,
		Seed:    opts.seed,
		Date:    opts.date,
		NoDate:  opts.noDate,
		Refresh: opts.refresh,
		Config:  cfg,
		Logger:  c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Generation failed")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("generate: %s", errors.UserMessage(err))
	}
	spinner.Stop()

	path, err := outputPath(opts.output, pipeline.Title(text))
	if err != nil {
		return err
	}
	if err := writeProgram(path, res, opts.output != "" && !isDir(opts.output)); err != nil {
		return err
	}

	printSuccess("Saved G-code as %s", path)
	printStats(res.Stats, res.Cached)
	printKeyValue("Estimate", res.Program.Summary())

	if opts.preview != "" {
		files, err := writePreviews(ctx, runner, res, cfg, opts.preview, strings.TrimSuffix(path, filepath.Ext(path)))
		if err != nil {
			return err
		}
		for _, f := range files {
			printFile(f)
		}
	}

	printNewline()
	printNextStep("Re-estimate", fmt.Sprintf("%s estimate %s", appName, path))
	return nil
}

// readText returns the text to write. A file takes precedence over args.
func readText(args []string, file string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch file {
	case "":
		if len(args) == 0 {
			return "", errors.New(errors.ErrCodeInvalidInput, "no text given (pass it as an argument or use --file)")
		}
		return strings.Join(args, " "), nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// Output Files
// =============================================================================

// outputPath picks the program file. An explicit file is used as is; for an
// empty output or a directory the name is derived from title and made unique.
func outputPath(output, title string) (string, error) {
	if output != "" {
		if err := errors.ValidatePath(output); err != nil {
			return "", err
		}
	}
	dir := "."
	switch {
	case output == "":
	case isDir(output):
		dir = output
	case strings.HasSuffix(output, string(filepath.Separator)):
		if err := os.MkdirAll(output, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
		dir = output
	default:
		return output, nil
	}
	return uniquePath(filepath.Join(dir, title), ".gcode"), nil
}

// uniquePath returns base+ext, or base_<n>+ext for the first free n.
func uniquePath(base, ext string) string {
	path := base + ext
	for n := 1; exists(path); n++ {
		path = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	return path
}

func writeProgram(path string, res *pipeline.Result, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := res.Program.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writePreviews renders every page next to the program. A single page is
// written as base.<format>, several as base_p<n>.<format>.
func writePreviews(ctx context.Context, runner *pipeline.Runner, res *pipeline.Result, cfg config.Config, format, base string) ([]string, error) {
	pages := max(res.Stats.Pages, 1)
	var files []string
	for page := 1; page <= pages; page++ {
		data, err := runner.Preview(ctx, res, cfg, format, page)
		if err != nil {
			return files, fmt.Errorf("preview page %d: %w", page, err)
		}
		path := base + "." + format
		if pages > 1 {
			path = fmt.Sprintf("%s_p%d.%s", base, page, format)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return files, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
