package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   layoutFlags
		output  string
		noCache bool
		refresh bool
		apply   bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a graph",
		Long: `Compute node positions for a mind-map graph.

The layout command reads a node-link graph.json and writes a layout.json
holding the engine's positions, bounds and convergence data. With --apply the
positions are written back into the graph file instead.

Engine parameters are passed with --param, for example:

  mindlayout layout plans.json -e force -p seed=7 -p max_iterations=1000

Results are cached locally, keyed by graph content and options. With --watch
the layout is recomputed every time the input file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, c.layoutDefaults())
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			opts.Logger = c.Logger
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			job := layoutJob{input: args[0], output: output, apply: apply, opts: opts}
			if err := c.runLayout(cmd.Context(), runner, job); err != nil {
				if !watch {
					return err
				}
				printError("%v", err)
			}
			if !watch {
				return nil
			}
			return c.watchLayout(cmd.Context(), runner, job)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&apply, "apply", false, "write positions back into the input graph")
	cmd.Flags().BoolVar(&watch, "watch", false, "recompute when the input changes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even on a cache hit")

	return cmd
}

type layoutJob struct {
	input  string
	output string
	apply  bool
	opts   pipeline.Options
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, runner *pipeline.Runner, job layoutJob) error {
	g, err := runner.Load(ctx, job.input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", job.input, err)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", job.opts.Engine))
	spinner.Start()

	res, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, job.opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("Computed layout", "engine", res.Algorithm, "nodes", len(res.Positions), "cached", cacheHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var outputPath string
	if job.apply {
		applied := layout.Apply(g, res)
		outputPath = job.input
		if job.output != "" {
			outputPath = job.output
		}
		if err := graph.WriteGraphFile(g, outputPath); err != nil {
			return fmt.Errorf("write graph %s: %w", outputPath, err)
		}
		printSuccess("Applied %d positions", applied)
	} else {
		outputPath = job.output
		if outputPath == "" {
			outputPath = defaultOutput(job.input, ".layout.json")
		}
		if err := layout.WriteResultFile(res, outputPath); err != nil {
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		printSuccess("Layout complete")
	}

	printFile(outputPath)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printLayoutSummary(res)
	printNewline()
	printNextStep("Render", fmt.Sprintf("mindlayout render %s -l %s", job.input, outputPath))
	return nil
}

// watchLayout reruns the job whenever the input file is written. The
// directory is watched rather than the file so editors that replace the
// file on save keep triggering events.
func (c *CLI) watchLayout(ctx context.Context, runner *pipeline.Runner, job layoutJob) error {
	logger := loggerFromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(job.input)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	printInfo("Watching %s (ctrl+c to stop)", job.input)

	// --apply rewrites the input; that write must not retrigger the job.
	selfWrite := job.apply && (job.output == "" || sameFile(job.output, abs))

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !sameFile(ev.Name, abs) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-fire:
			logger.Debug("input changed", "path", job.input)
			if err := c.runLayout(ctx, runner, job); err != nil {
				printError("%v", err)
			}
			if selfWrite {
				drainEvents(w, watchDebounce)
			}
		}
	}
}

// drainEvents discards watcher events for d.
func drainEvents(w *fsnotify.Watcher, d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case <-w.Events:
		case <-deadline:
			return
		}
	}
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
