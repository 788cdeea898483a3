package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/export"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

func newDiagramCommand(g *globalOptions) *cobra.Command {
	f := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the import graph as a Mermaid diagram",
		Long: `Diagram renders the classified import graph as Mermaid. It reads the
index written by 'scan --persist' when present and scans the project
otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiagram(cmd, g, f)
		},
	}
	f.register(cmd)
	return cmd
}

func runDiagram(cmd *cobra.Command, g *globalOptions, f *scanFlags) error {
	root, err := g.projectRoot()
	if err != nil {
		return err
	}

	var store graph.Store
	if path, ok := indexExists(root); ok {
		store, err = graph.OpenIndex(path)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
	} else {
		opts, err := f.options(cmd, g)
		if err != nil {
			return err
		}
		opts.Store = graph.NewMemStore()
		if _, err := engine.Analyze(cmd.Context(), opts); err != nil {
			return err
		}
		store = opts.Store
	}
	defer store.Close()

	mermaid, err := export.GenerateMermaid(cmd.Context(), store)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), mermaid)
	return err
}
