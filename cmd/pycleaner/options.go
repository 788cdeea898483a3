package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/config"
	"github.com/dusk-indust/pycleaner/internal/engine"
)

// indexDir is where `scan --persist` writes the graph index, relative to
// the project root.
var indexDir = filepath.Join(".pycleaner", "graph")

// globalOptions are the root command's persistent flags.
type globalOptions struct {
	project string
	verbose bool
}

func (g *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (g *globalOptions) projectRoot() (string, error) {
	abs, err := filepath.Abs(g.project)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", g.project, err)
	}
	return abs, nil
}

// scanFlags are the flags shared by every command that runs a scan. Values
// given on the command line override pycleaner.yml.
type scanFlags struct {
	targets     []string
	roots       []string
	exclude     []string
	shallow     bool
	concurrency int
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.targets, "target", "t", []string{"core"},
		"core files or directories inside the project, comma separated")
	cmd.Flags().StringArrayVar(&f.roots, "root", nil, "extra search root for absolute imports (repeatable)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "doublestar pattern of paths to skip (repeatable)")
	cmd.Flags().BoolVar(&f.shallow, "shallow", false, "only read module top-level import statements")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel parsers (default: number of CPUs)")
}

// options merges pycleaner.yml from the project root with the flags.
func (f *scanFlags) options(cmd *cobra.Command, g *globalOptions) (engine.Options, error) {
	root, err := g.projectRoot()
	if err != nil {
		return engine.Options{}, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return engine.Options{}, err
	}

	opts := engine.Options{
		ProjectRoot: root,
		Targets:     cfg.Targets,
		Roots:       cfg.Roots,
		Exclude:     cfg.Exclude,
		Shallow:     cfg.Shallow,
		Concurrency: cfg.Concurrency,
		Logger:      g.logger(cmd),
	}

	flags := cmd.Flags()
	if flags.Changed("target") || len(opts.Targets) == 0 {
		opts.Targets = f.targets
	}
	if flags.Changed("root") {
		opts.Roots = f.roots
	}
	if flags.Changed("exclude") {
		opts.Exclude = f.exclude
	}
	if flags.Changed("shallow") {
		opts.Shallow = f.shallow
	}
	if flags.Changed("concurrency") {
		opts.Concurrency = f.concurrency
	}
	return opts, nil
}

// indexExists reports whether a persisted graph index exists under root.
func indexExists(root string) (string, bool) {
	path := filepath.Join(root, indexDir)
	_, err := os.Stat(path)
	return path, err == nil
}
