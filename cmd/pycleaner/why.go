package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/export"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

type whyOptions struct {
	scanFlags
	format   string
	absPaths bool
	useIndex bool
}

func newWhyCommand(g *globalOptions) *cobra.Command {
	o := &whyOptions{}

	cmd := &cobra.Command{
		Use:   "why FILE",
		Short: "Explain why a file is a library or a script",
		Long: `Why prints the shortest import chain from a core target to FILE. With
--index it answers from the graph written by 'scan --persist' instead of
scanning again, and lists the direct importers only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.format != "json" && o.format != "text" {
				return fmt.Errorf("unknown format %q (want json or text)", o.format)
			}
			if o.useIndex {
				return runWhyFromIndex(cmd, g, o, args[0])
			}
			return runWhy(cmd, g, o, args[0])
		},
	}

	o.register(cmd)
	cmd.Flags().StringVar(&o.format, "format", "text", "output format: json|text")
	cmd.Flags().BoolVar(&o.absPaths, "abs-path", false, "show absolute paths instead of project-relative ones")
	cmd.Flags().BoolVar(&o.useIndex, "index", false, "answer from the persisted graph index")

	return cmd
}

func runWhy(cmd *cobra.Command, g *globalOptions, o *whyOptions, file string) error {
	opts, err := o.options(cmd, g)
	if err != nil {
		return err
	}

	report, err := engine.Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}

	x, err := report.Explain(file)
	if err != nil {
		return err
	}
	return o.write(cmd, report.ProjectRoot, x)
}

// runWhyFromIndex answers from the persisted graph. The index keeps no
// targets, so the explanation carries no chain.
func runWhyFromIndex(cmd *cobra.Command, g *globalOptions, o *whyOptions, file string) error {
	root, err := g.projectRoot()
	if err != nil {
		return err
	}
	path, ok := indexExists(root)
	if !ok {
		return fmt.Errorf("no graph index found at %s\nRun 'pycleaner scan --persist' first", path)
	}

	store, err := graph.OpenIndex(path)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	rel := file
	if filepath.IsAbs(rel) {
		if rel, err = filepath.Rel(root, file); err != nil {
			return fmt.Errorf("resolving path %q: %w", file, err)
		}
	}
	rel = filepath.ToSlash(filepath.Clean(rel))

	ctx := cmd.Context()
	node, err := store.GetFile(ctx, rel)
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	if node == nil {
		return &graph.ConfigurationError{Reason: "file not in graph index", Path: file}
	}

	neighbours := func(dir graph.Direction) ([]string, error) {
		chains, err := store.GetDependencies(ctx, rel, dir, 1)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(chains))
		for _, c := range chains {
			out = append(out, filepath.Join(root, filepath.FromSlash(c.Nodes[len(c.Nodes)-1])))
		}
		return out, nil
	}
	importers, err := neighbours(graph.DirectionUpstream)
	if err != nil {
		return fmt.Errorf("get importers: %w", err)
	}
	imports, err := neighbours(graph.DirectionDownstream)
	if err != nil {
		return fmt.Errorf("get imports: %w", err)
	}

	return o.write(cmd, root, &engine.Explanation{
		File:      filepath.Join(root, filepath.FromSlash(node.Path)),
		Role:      node.Role,
		Importers: importers,
		Imports:   imports,
	})
}

func (o *whyOptions) write(cmd *cobra.Command, root string, x *engine.Explanation) error {
	if o.format == "json" {
		return export.WriteExplanationJSON(cmd.OutOrStdout(), root, x, o.absPaths)
	}
	return export.WriteExplanation(cmd.OutOrStdout(), root, x, o.absPaths)
}
