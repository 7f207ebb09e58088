package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
)

var (
	viewNodeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewEdgeStyle = lipgloss.NewStyle().Foreground(colorDim)
	viewHelpStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	viewLabelMax = 12
	viewMinCols  = 20
	viewMinRows  = 8
)

// viewCommand creates the interactive preview command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Preview a layout in the terminal",
		Long: `Preview a graph's layout as ASCII art.

Keys: r radial, t tree, f force, tab next engine, e toggle links, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, c.layoutDefaults())
			if err != nil {
				return err
			}
			opts.Logger = c.Logger
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}

			m := newViewModel(cmd.Context(), g, opts)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// =============================================================================
// viewModel - bubbletea model
// =============================================================================

type layoutMsg struct {
	engine string
	res    *layout.Result
	err    error
}

type viewModel struct {
	ctx     context.Context
	graph   *graph.Graph
	opts    pipeline.Options
	engines []string
	current int

	res       *layout.Result
	err       error
	computing bool
	showEdges bool

	cols, rows int
}

func newViewModel(ctx context.Context, g *graph.Graph, opts pipeline.Options) viewModel {
	m := viewModel{
		ctx:       ctx,
		graph:     g,
		opts:      opts,
		engines:   layout.Names(),
		showEdges: true,
		cols:      80,
		rows:      24,
	}
	for i, name := range m.engines {
		if name == opts.Engine {
			m.current = i
		}
	}
	return m
}

func (m viewModel) engine() string { return m.engines[m.current] }

// compute runs the selected engine off the UI goroutine. The graph is only
// read while the program runs.
func (m viewModel) compute() tea.Cmd {
	opts := m.opts
	opts.Engine = m.engine()
	g, ctx := m.graph, m.ctx
	return func() tea.Msg {
		res, err := pipeline.ComputeLayout(ctx, g, opts)
		return layoutMsg{engine: opts.Engine, res: res, err: err}
	}
}

func (m viewModel) Init() tea.Cmd {
	return m.compute()
}

func (m viewModel) selectEngine(name string) (viewModel, tea.Cmd) {
	for i, e := range m.engines {
		if e == name && i != m.current {
			m.current = i
			m.computing = true
			return m, m.compute()
		}
	}
	return m, nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m.selectEngine(layout.Radial)
		case "t":
			return m.selectEngine(layout.Tree)
		case "f":
			return m.selectEngine(layout.Force)
		case "tab":
			return m.selectEngine(m.engines[(m.current+1)%len(m.engines)])
		case "e":
			m.showEdges = !m.showEdges
		}
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, viewMinCols)
		m.rows = max(msg.Height-8, viewMinRows)
	case layoutMsg:
		if msg.engine != m.engine() {
			return m, nil // stale result from a previous selection
		}
		m.computing = false
		m.res, m.err = msg.res, msg.err
	}
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("mindlayout view"))
	b.WriteString(styleDim.Render(" · " + m.engine()))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
	case m.res == nil || m.computing:
		b.WriteString(styleDim.Render("computing..."))
	default:
		for _, line := range rasterize(m.graph, m.res, m.cols, m.rows, m.showEdges) {
			b.WriteString(colorize(line))
			b.WriteString("\n")
		}
		b.WriteString(m.summary())
	}

	b.WriteString("\n")
	b.WriteString(viewHelpStyle.Render("r radial  t tree  f force  tab next  e links  q quit"))
	return b.String()
}

func (m viewModel) summary() string {
	converged := "no"
	if m.res.Converged {
		converged = "yes"
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Engine", "Nodes", "Iterations", "Converged", "Energy").
		Row(m.res.Algorithm,
			fmt.Sprint(len(m.res.Positions)),
			fmt.Sprint(m.res.Iterations),
			converged,
			fmt.Sprintf("%.1f", m.res.Energy)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// =============================================================================
// ASCII rendering
// =============================================================================

const (
	cellEmpty = ' '
	cellLink  = '·'
)

// rasterize draws res onto a cols x rows character grid. Parent links are
// dotted when edges is set; labels are drawn last and may overwrite links.
func rasterize(g *graph.Graph, res *layout.Result, cols, rows int, edges bool) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(string(cellEmpty), cols))
	}
	if len(res.Positions) == 0 || cols < 1 || rows < 1 {
		return toLines(grid)
	}

	b := res.Bounds
	project := func(p graph.Position) (int, int) {
		x, y := 0.0, 0.0
		if b.Width() > 0 {
			x = (p.X - b.MinX) / b.Width() * float64(cols-viewLabelMax)
		}
		if b.Height() > 0 {
			y = (p.Y - b.MinY) / b.Height() * float64(rows-1)
		}
		return clampInt(int(math.Round(x)), 0, cols-1), clampInt(int(math.Round(y)), 0, rows-1)
	}

	ids := res.NodeIDs()
	if edges {
		for _, id := range ids {
			n, ok := g.Node(id)
			if !ok || n.ParentID == "" {
				continue
			}
			pp, ok := res.Positions[n.ParentID]
			if !ok {
				continue
			}
			x0, y0 := project(pp)
			x1, y1 := project(res.Positions[id])
			drawLine(grid, x0, y0, x1, y1)
		}
	}

	for _, id := range ids {
		label := id
		if n, ok := g.Node(id); ok {
			label = n.Text
		}
		x, y := project(res.Positions[id])
		for i, r := range []rune(truncate(label, viewLabelMax)) {
			if x+i >= cols {
				break
			}
			grid[y][x+i] = r
		}
	}
	return toLines(grid)
}

// drawLine samples the segment once per cell along its longer axis.
func drawLine(grid [][]rune, x0, y0, x1, y1 int) {
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(float64(x0) + t*float64(x1-x0)))
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		if grid[y][x] == cellEmpty {
			grid[y][x] = cellLink
		}
	}
}

func colorize(line string) string {
	var b strings.Builder
	var run []rune
	link := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if link {
			b.WriteString(viewEdgeStyle.Render(string(run)))
		} else {
			b.WriteString(viewNodeStyle.Render(string(run)))
		}
		run = run[:0]
	}
	for _, r := range line {
		isLink := r == cellLink || r == cellEmpty
		if isLink != link {
			flush()
			link = isLink
		}
		run = append(run, r)
	}
	flush()
	return b.String()
}

func toLines(grid [][]rune) []string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.TrimRight(string(row), string(cellEmpty))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
