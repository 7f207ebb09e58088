package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/graph/traverse"
)

// report summarizes a graph's structure.
type report struct {
	nodes, edges    int
	roots           []string
	components      int
	linkCycles      [][]string
	hierarchyCycles bool
	err             error
}

func analyze(g *graph.Graph) report {
	return report{
		nodes:           g.NodeCount(),
		edges:           g.EdgeCount(),
		roots:           g.RootNodes(),
		components:      len(traverse.ConnectedComponents(g)),
		linkCycles:      traverse.Cycles(g),
		hierarchyCycles: traverse.HierarchyHasCycles(g),
		err:             g.Validate(),
	}
}

// ok reports whether the graph can be laid out by every engine.
func (r report) ok() bool { return r.err == nil && !r.hierarchyCycles }

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [graph.json]",
		Short: "Check a graph's structure and report cycles",
		Long: `Check a graph's internal consistency and report its shape.

Cycles through cross links are allowed and only reported; --strict turns them
into an error. Parent cycles always fail because the tree engine cannot lay
them out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			r := analyze(g)

			printKeyValue("Nodes", fmt.Sprint(r.nodes))
			printKeyValue("Edges", fmt.Sprint(r.edges))
			printKeyValue("Roots", fmt.Sprintf("%d (%s)", len(r.roots), strings.Join(r.roots, ", ")))
			printKeyValue("Link groups", fmt.Sprint(r.components))
			printNewline()

			if r.err != nil {
				printError("Invalid structure: %v", r.err)
			}
			if r.hierarchyCycles {
				printError("Parent links form a cycle")
			}
			for _, cyc := range r.linkCycles {
				printWarning("Link cycle among: %s", strings.Join(cyc, ", "))
			}

			switch {
			case !r.ok():
				return fmt.Errorf("%s is not valid", args[0])
			case strict && len(r.linkCycles) > 0:
				return fmt.Errorf("%s has %d link cycles", args[0], len(r.linkCycles))
			}
			printSuccess("%s is valid", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on cross-link cycles")
	return cmd
}
