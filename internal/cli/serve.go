package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scribe/internal/server"
	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/font"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   configFlags
		addr    string
		redis   string
		maxText int
		noCache bool
		scope   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API.

Programs are generated on POST /v1/programs and kept in the cache; the
returned ID fetches the G-code and its previews. Use --redis to share the
cache between several instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			f, err := font.Open(cfg.FontDir, cfg.Font)
			if err != nil {
				return err
			}
			logger.Info("font loaded", "name", f.Name, "glyphs", len(f.Runes()))

			runner, err := c.newRunner(ctx, noCache, redis)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			if scope != "" {
				runner.Keyer = cache.NewScopedKeyer(runner.Keyer, scope)
			}

			srv := server.New(runner, server.Options{
				Addr:    addr,
				Config:  cfg,
				Font:    f,
				MaxText: maxText,
				Logger:  logger,
			})
			return srv.Run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&redis, "redis", "", "use a Redis cache at this address")
	cmd.Flags().IntVar(&maxText, "max-text", server.DefaultMaxText, "maximum text size per request in bytes")
	cmd.Flags().StringVar(&scope, "scope", "", "prefix for cache keys when several deployments share a Redis")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching (programs cannot be fetched by ID)")

	return cmd
}
