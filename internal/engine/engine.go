// Package engine runs a full scan: discovery, graph building,
// classification and the diagnostics report.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/pycleaner/internal/discover"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

// Options configures a scan.
type Options struct {
	ProjectRoot string
	// Targets are files or directories, relative to ProjectRoot or absolute.
	Targets []string
	// Roots are extra search roots for absolute imports. The project root
	// is always searched.
	Roots       []string
	Exclude     []string
	Shallow     bool
	Concurrency int
	Logger      *slog.Logger

	// Store, when set, receives the classified graph.
	Store graph.Store
	// Extractor overrides the tree-sitter extractor.
	Extractor graph.Extractor
}

// Hint lists project files an unresolved reference might denote.
type Hint struct {
	Importer   string   `json:"importer"`
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
}

// Report is the outcome of a scan. Paths are absolute.
type Report struct {
	ProjectRoot    string                  `json:"projectRoot"`
	Roots          []string                `json:"roots"`
	Targets        []string                `json:"targets"`
	Libraries      []string                `json:"libraries"`
	Scripts        []string                `json:"scripts"`
	External       []graph.ExternalRef     `json:"external"`
	Unparseable    []graph.UnparseableFile `json:"unparseable"`
	Ambiguous      []graph.AmbiguousRef    `json:"ambiguous"`
	Hints          []Hint                  `json:"hints"`
	ScriptClusters []graph.ClusterNode     `json:"scriptClusters"`
	Stats          graph.GraphStats        `json:"stats"`
	Duration       time.Duration           `json:"durationNs"`

	graph *graph.Graph
}

// Analyze scans the project and classifies every Python file. Only
// configuration problems and context cancellation are returned as errors.
func Analyze(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if len(opts.Targets) == 0 {
		return nil, &graph.ConfigurationError{Reason: "empty target set"}
	}

	root, err := discover.Root(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	roots, err := searchRoots(root, opts.Roots)
	if err != nil {
		return nil, err
	}

	files, err := discover.Walk(root, discover.Options{Exclude: opts.Exclude})
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered files", "root", root, "count", len(files))

	targets, err := discover.ExpandTargets(root, opts.Targets, files)
	if err != nil {
		return nil, err
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = graph.NewTreeSitterExtractor(opts.Shallow)
		defer extractor.Close()
	}

	resolver := graph.NewResolver(root, roots, files)
	builder := graph.NewBuilder(extractor, resolver, graph.BuilderOptions{
		Concurrency: opts.Concurrency,
		Logger:      logger,
	})

	g, diag, err := builder.Build(ctx, files)
	if err != nil {
		return nil, err
	}

	cls, err := graph.Classify(g, targets)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ProjectRoot:    root,
		Roots:          resolver.Roots(),
		Targets:        cls.Targets,
		Libraries:      cls.Libraries,
		Scripts:        cls.Scripts,
		External:       diag.External,
		Unparseable:    diag.Unparseable,
		Ambiguous:      diag.Ambiguous,
		Hints:          hints(resolver, diag.External),
		ScriptClusters: graph.ScriptClusters(g, cls),
		Stats: graph.GraphStats{
			FileCount:    g.Len(),
			EdgeCount:    g.EdgeCount(),
			LibraryCount: len(cls.Libraries),
			ScriptCount:  len(cls.Scripts),
		},
		graph: g,
	}

	if opts.Store != nil {
		if err := graph.Persist(ctx, opts.Store, g, cls, report.ScriptClusters); err != nil {
			return nil, fmt.Errorf("persist graph: %w", err)
		}
	}

	report.Duration = time.Since(start)
	logger.Info("scan complete",
		"files", report.Stats.FileCount,
		"libraries", report.Stats.LibraryCount,
		"scripts", report.Stats.ScriptCount,
		"external", len(report.External),
		"unparseable", len(report.Unparseable),
		"ambiguous", len(report.Ambiguous),
		"duration", report.Duration,
	)
	return report, nil
}

// searchRoots resolves extra roots against the project root. Each must be
// a directory inside the project tree.
func searchRoots(root string, extra []string) ([]string, error) {
	roots := []string{root}
	for _, r := range extra {
		abs := r
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, r)
		}
		abs = filepath.Clean(abs)
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || (len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)) {
			return nil, &graph.ConfigurationError{Reason: "search root outside project root", Path: r}
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return nil, &graph.ConfigurationError{Reason: "search root is not a directory", Path: r}
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

func hints(resolver *graph.Resolver, external []graph.ExternalRef) []Hint {
	var out []Hint
	for _, ext := range external {
		candidates := resolver.Hints(graph.ParseReference(ext.Reference))
		if len(candidates) == 0 {
			continue
		}
		out = append(out, Hint{
			Importer:   ext.Importer,
			Reference:  ext.Reference,
			Candidates: candidates,
		})
	}
	return out
}
