// Package cli implements the mindlayout command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/buildinfo"
	"github.com/matzehuels/mindlayout/pkg/cache"
	"github.com/matzehuels/mindlayout/pkg/config"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
	"github.com/matzehuels/mindlayout/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mindlayout"
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

	// Config is loaded in the root command's PersistentPreRunE, before any
	// subcommand runs.
	Config     config.Config
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mindlayout",
		Short: "Mindlayout computes layouts for mind-map graphs",
		Long: `Mindlayout loads hierarchical mind-map graphs (node-link JSON), computes
2D positions with a radial, tree or force-directed engine, and renders or
serves the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml, .yaml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = os.Getenv("MINDLAYOUT_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return nil
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache builds the configured cache. An unreachable Redis degrades to
// no caching with a warning.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: cfg.Prefix})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured graph store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case "badger":
		bc := store.DefaultBadgerConfig(cfg.Path)
		bc.Logger = c.Logger
		return store.OpenBadger(bc)
	case "mongo":
		mc := store.DefaultMongoConfig()
		mc.URI = cfg.MongoURI
		if cfg.Database != "" {
			mc.Database = cfg.Database
		}
		return store.OpenMongo(ctx, mc)
	default:
		return store.NewFileStore(cfg.Path)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindlayout/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// layoutDefaults returns pipeline options seeded from the config file.
func (c *CLI) layoutDefaults() pipeline.Options {
	lc := c.Config.Layout
	minDist := lc.MinDistance
	opts := pipeline.Options{
		Engine:      lc.Engine,
		Width:       lc.Width,
		Height:      lc.Height,
		MinDistance: &minDist,
	}
	if len(lc.Params) > 0 {
		opts.Params = make(map[string]float64, len(lc.Params))
		for k, v := range lc.Params {
			opts.Params[k] = v
		}
	}
	return opts
}

// layoutFlags holds flag values that override the config file.
type layoutFlags struct {
	engine      string
	width       float64
	height      float64
	minDistance float64
	root        string
	preserve    bool
	params      []string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.engine, "engine", "e", "", "layout engine: radial, tree, force (default from config, else radial)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height")
	cmd.Flags().Float64Var(&f.minDistance, "min-distance", 0, "minimum distance between nodes")
	cmd.Flags().StringVar(&f.root, "root", "", "root node ID (default: first root)")
	cmd.Flags().BoolVar(&f.preserve, "preserve", false, "start from the stored positions")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "engine parameter key=value (repeatable)")
}

// options merges config defaults with the flags that were set on cmd.
func (f *layoutFlags) options(cmd *cobra.Command, base pipeline.Options) (pipeline.Options, error) {
	opts := base
	if cmd.Flags().Changed("engine") {
		opts.Engine = f.engine
	}
	if cmd.Flags().Changed("width") {
		opts.Width = f.width
	}
	if cmd.Flags().Changed("height") {
		opts.Height = f.height
	}
	if cmd.Flags().Changed("min-distance") {
		md := f.minDistance
		opts.MinDistance = &md
	}
	opts.RootID = f.root
	opts.PreservePositions = f.preserve

	params, err := parseParams(f.params)
	if err != nil {
		return opts, err
	}
	if len(params) > 0 {
		opts.Params = maps.Clone(opts.Params)
		if opts.Params == nil {
			opts.Params = make(map[string]float64, len(params))
		}
	}
	for k, v := range params {
		opts.Params[k] = v
	}
	return opts, nil
}

// parseParams parses key=value pairs into engine parameters.
func parseParams(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q (want key=value)", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid param %q: %w", p, err)
		}
		out[k] = f
	}
	return out, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// defaultOutput derives "<input base><suffix>" next to the input file.
func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
