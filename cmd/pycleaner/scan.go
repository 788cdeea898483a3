package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/export"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

// Log files written by `scan --log` in the working directory.
const (
	libsLogFile    = "pycleaner-libs.log"
	scriptsLogFile = "pycleaner-scripts.log"
)

type scanOptions struct {
	scanFlags
	format   string
	absPaths bool
	log      bool
	zipLib   string
	persist  bool

	libs     bool
	scripts  bool
	notFound bool
	mayFound bool
}

func newScanCommand(g *globalOptions) *cobra.Command {
	o := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Classify every Python file of a project",
		Long: `Scan walks the project, follows imports from the core targets and
prints which files are libraries and which are scripts, together with
imports that could not be resolved inside the project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, g, o)
		},
	}

	o.register(cmd)
	cmd.Flags().StringVar(&o.format, "format", "text", "output format: json|text")
	cmd.Flags().BoolVar(&o.absPaths, "abs-path", false, "show absolute paths instead of project-relative ones")
	cmd.Flags().BoolVar(&o.log, "log", false, "write libraries to "+libsLogFile+" and scripts to "+scriptsLogFile)
	cmd.Flags().StringVarP(&o.zipLib, "zip-lib", "z", "", "zip the libraries into this archive")
	cmd.Flags().BoolVar(&o.persist, "persist", false, "write the classified graph to "+indexDir)
	cmd.Flags().BoolVarP(&o.libs, "libs", "1", false, "show found libraries")
	cmd.Flags().BoolVarP(&o.scripts, "scripts", "2", false, "show found scripts")
	cmd.Flags().BoolVarP(&o.notFound, "not-found", "3", false, "show modules that were not found")
	cmd.Flags().BoolVarP(&o.mayFound, "may-found", "4", false, "show modules that might be found with another search root")

	return cmd
}

func runScan(cmd *cobra.Command, g *globalOptions, o *scanOptions) error {
	if o.format != "json" && o.format != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", o.format)
	}

	opts, err := o.options(cmd, g)
	if err != nil {
		return err
	}

	// The graph is staged in memory so a failed scan leaves the previous
	// index untouched.
	var staged *graph.MemStore
	if o.persist {
		staged = graph.NewMemStore()
		opts.Store = staged
	}

	report, err := engine.Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if staged != nil {
		if err := replaceIndex(cmd.Context(), opts.ProjectRoot, staged); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch o.format {
	case "json":
		err = export.WriteJSON(out, report, o.absPaths)
	default:
		err = export.WriteText(out, report, o.sections(), o.absPaths)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return o.writeArtifacts(report)
}

// sections maps -1..-4 onto report blocks. With none given every block is
// shown.
func (o *scanOptions) sections() export.Sections {
	if !o.libs && !o.scripts && !o.notFound && !o.mayFound {
		return export.AllSections()
	}
	return export.Sections{
		Libraries: o.libs,
		Scripts:   o.scripts,
		External:  o.notFound,
		Hints:     o.mayFound,
	}
}

func (o *scanOptions) writeArtifacts(report *engine.Report) error {
	if o.log {
		e := export.BuildExport(report, o.absPaths)
		if err := export.WriteFileList(libsLogFile, e.Libraries); err != nil {
			return err
		}
		if err := export.WriteFileList(scriptsLogFile, e.Scripts); err != nil {
			return err
		}
	}
	if o.zipLib != "" {
		if err := export.ZipFiles(o.zipLib, report.ProjectRoot, report.Libraries); err != nil {
			return err
		}
	}
	return nil
}

// replaceIndex writes staged to a new index beside the current one and
// swaps it in once it is complete.
func replaceIndex(ctx context.Context, root string, staged graph.Store) error {
	path := filepath.Join(root, indexDir)
	next := path + ".new"
	if err := os.RemoveAll(next); err != nil {
		return fmt.Errorf("removing stale index: %w", err)
	}

	store, err := graph.OpenIndex(next)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if err := graph.Copy(ctx, store, staged); err != nil {
		store.Close()
		os.RemoveAll(next)
		return fmt.Errorf("write index: %w", err)
	}
	if err := store.Close(); err != nil {
		os.RemoveAll(next)
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing old index: %w", err)
	}
	if err := os.Rename(next, path); err != nil {
		return fmt.Errorf("install index: %w", err)
	}
	return nil
}
