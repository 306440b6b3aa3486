package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scribe/pkg/buildinfo"
	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/observability"
	"github.com/matzehuels/scribe/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scribe"

	// configFile is looked up in the config directory when --config is empty.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Scribe turns text into handwriting for a pen plotter",
		Long: `Scribe synthesizes handwriting from a recorded stroke font and writes it as
G-code for a 3D printer carrying a pen. Every character is jittered, cursive
letters are joined, and the occasional word is misspelled and crossed out.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			hooks := observability.LogHooks{Logger: c.Logger}
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.glyphsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A non-empty redisAddr
// selects a shared Redis cache instead of the local file cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool, redisAddr string) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, noCache, redisAddr)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(ctx context.Context, noCache bool, redisAddr string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("SCRIBE_REDIS_PASSWORD"),
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scribe/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/scribe/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Config Helpers
// =============================================================================

// loadConfig reads path, or the user's config.toml when path is empty.
// Without either it returns the defaults.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	dir, err := configDir()
	if err != nil {
		return config.Default(), nil
	}
	path = filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

// configFlags are the config overrides shared by generate and serve.
type configFlags struct {
	path     string
	font     string
	fontDir  string
	speed    float64
	mistakes float64
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "config file (default: ~/.config/scribe/config.toml)")
	cmd.Flags().StringVar(&f.font, "font", "", "font name in the font directory")
	cmd.Flags().StringVar(&f.fontDir, "font-dir", "", "directory holding <font>.json files")
	cmd.Flags().Float64Var(&f.speed, "speed", 0, "feedrate multiplier")
	cmd.Flags().Float64Var(&f.mistakes, "mistakes", -1, "misspelling probability in percent")
}

// load reads the config and applies the flags that were set.
func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(f.path)
	if err != nil {
		return config.Config{}, err
	}
	if f.font != "" {
		cfg.Font = f.font
	}
	if f.fontDir != "" {
		cfg.FontDir = f.fontDir
	}
	if cmd.Flags().Changed("speed") {
		cfg.Speed.Multiplier = f.speed
	}
	if cmd.Flags().Changed("mistakes") {
		cfg.Mistakes.Probability = f.mistakes
	}
	return cfg, cfg.Validate()
}
