package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

// MaxLabelLength is the rune count after which node labels are truncated.
const MaxLabelLength = 40

// Options configures DOT generation.
type Options struct {
	// ShowEdges draws cross links in addition to parent links.
	ShowEdges bool

	// Detailed appends tags to node labels.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT with every node pinned at its position.
// Positions are looked up in positions first and fall back to the node's
// stored position; nodes in neither are still emitted at their stored
// position. Layout space is y-down while Graphviz is y-up, so y is negated.
func ToDOT(g *graph.Graph, positions map[string]graph.Position, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	nodes := g.Nodes()
	for _, n := range nodes {
		p, ok := positions[n.ID]
		if !ok {
			p = n.Position
		}
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", fmtCoord(p.X), fmtCoord(-p.Y)),
		}
		if n.IsRoot() {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		if !n.IsRoot() {
			fmt.Fprintf(&buf, "  %q -> %q [arrowhead=none];\n", n.ParentID, n.ID)
		}
	}
	if opts.ShowEdges {
		for _, e := range g.Edges() {
			attrs := []string{"style=dashed", "color=grey40"}
			if e.Label != "" {
				attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtCoord(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.Text
	if utf8.RuneCountInString(label) > MaxLabelLength {
		label = string([]rune(label)[:MaxLabelLength-1]) + "…"
	}
	if !detailed || len(n.Tags) == 0 {
		return label
	}
	tags := slices.Clone(n.Tags)
	slices.Sort(tags)
	return label + "\n#" + strings.Join(tags, " #")
}
