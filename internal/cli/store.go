package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/graph"
	"github.com/matzehuels/mindlayout/pkg/store"
)

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }

// storeCommand creates the store command group.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage persisted graphs",
		Long: `Manage graphs in the configured store (file, badger or mongo).

The backend is chosen in the config file's [store] section.`,
	}

	cmd.AddCommand(c.storeImportCommand())
	cmd.AddCommand(c.storeExportCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// withStore opens the store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) storeImportCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import [graph.json]",
		Short: "Save a graph file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = baseName(args[0])
			}
			if err := store.ValidateName(name); err != nil {
				return err
			}
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := store.SaveGraph(cmd.Context(), st, name, g); err != nil {
					return err
				}
				printSuccess("Imported %s as %q", args[0], name)
				printStats(g.NodeCount(), g.EdgeCount(), false)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "graph name (default: file name without extension)")
	return cmd
}

func (c *CLI) storeExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Write a stored graph to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if output == "" {
				output = name + ".json"
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				g, err := store.LoadGraph(cmd.Context(), st, name)
				if err != nil {
					return err
				}
				if err := graph.WriteGraphFile(g, output); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("Exported %q", name)
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				names, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo("No graphs in the %s store", st.Backend())
					return nil
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			})
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					if isNotFound(err) {
						return fmt.Errorf("no graph named %q", args[0])
					}
					return err
				}
				printSuccess("Deleted %q", args[0])
				return nil
			})
		},
	}
}
