package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/cache"
	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/metrics"
	"github.com/matzehuels/mindlayout/pkg/server"
	"github.com/matzehuels/mindlayout/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		name    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Serve a graph over HTTP",
		Long: `Serve one graph over an HTTP API.

The graph comes from a file argument, from the configured store (--name), or
starts empty. With --name, POST /save writes the graph back to the store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}

			if name != "" {
				// one Redis can back several served graphs
				runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "graph:"+name+":")
			}

			var (
				g  *graph.Graph
				st store.Store
			)
			if name != "" {
				if err := store.ValidateName(name); err != nil {
					return err
				}
				if st, err = c.newStore(ctx); err != nil {
					return fmt.Errorf("open store: %w", err)
				}
			}
			switch {
			case len(args) == 1:
				g, err = runner.Load(ctx, args[0])
			case st != nil:
				g, err = store.LoadGraph(ctx, st, name)
				if isNotFound(err) {
					c.Logger.Info("starting new graph", "name", name)
					g, err = graph.New(), nil
				}
			}
			if err != nil {
				return err
			}

			if cfg.Metrics {
				metrics.Register()
			}

			srv := server.New(g, server.Config{
				Addr:         cfg.Addr,
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
				Metrics:      cfg.Metrics,
				Store:        st,
				GraphName:    name,
				Runner:       runner,
				Logger:       c.Logger,
			})
			defer srv.Close()

			printSuccess("Serving on %s", cfg.Addr)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().StringVar(&name, "name", "", "graph name in the configured store")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}
