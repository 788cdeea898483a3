package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// BuilderOptions tunes a Builder. The zero value is usable.
type BuilderOptions struct {
	// Concurrency bounds parallel reads and parses (default: NumCPU).
	Concurrency int
	// Logger receives per-file diagnostics at debug level.
	Logger *slog.Logger
	// ReadFile loads file text (default: os.ReadFile).
	ReadFile func(path string) ([]byte, error)
}

// Builder assembles the import graph of a file set.
type Builder struct {
	extractor Extractor
	resolver  *Resolver
	opts      BuilderOptions
}

// NewBuilder creates a Builder from an extractor and a resolver built for
// the same file set.
func NewBuilder(extractor Extractor, resolver *Resolver, opts BuilderOptions) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	return &Builder{extractor: extractor, resolver: resolver, opts: opts}
}

// fileResult is the immutable outcome of extracting and resolving one file.
type fileResult struct {
	unparseable *UnparseableFile
	resolutions []Resolution
}

// Build reads, extracts and resolves every file in parallel, then merges
// the per-file results into a Graph. The only error it returns is context
// cancellation; everything else lands in Diagnostics.
func (b *Builder) Build(ctx context.Context, files []ProjectFile) (*Graph, *Diagnostics, error) {
	g := NewGraph(files)
	nodes := g.Files()
	results := make([]fileResult, len(nodes))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.opts.Concurrency)

	for i, file := range nodes {
		eg.Go(func() error {
			res, err := b.processFile(egctx, file)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("build graph: %w", err)
	}

	diag := b.merge(g, results)
	return g, diag, nil
}

func (b *Builder) processFile(ctx context.Context, file ProjectFile) (fileResult, error) {
	if err := ctx.Err(); err != nil {
		return fileResult{}, err
	}

	source, err := b.opts.ReadFile(file.Path)
	if err != nil {
		return fileResult{unparseable: &UnparseableFile{
			Path:   file.Path,
			Reason: fmt.Sprintf("read: %v", err),
		}}, nil
	}

	extracted, err := b.extractor.Extract(ctx, file, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fileResult{}, ctxErr
		}
		return fileResult{unparseable: &UnparseableFile{
			Path:   file.Path,
			Reason: fmt.Sprintf("parse: %v", err),
		}}, nil
	}
	if extracted.Unparseable {
		return fileResult{unparseable: &UnparseableFile{
			Path:   file.Path,
			Reason: extracted.Reason,
		}}, nil
	}

	res := fileResult{resolutions: make([]Resolution, 0, len(extracted.Refs))}
	for _, ref := range extracted.Refs {
		res.resolutions = append(res.resolutions, b.resolver.Resolve(ref, file))
	}
	return res, nil
}

// merge is the single writer that turns per-file results into edges and
// diagnostics.
func (b *Builder) merge(g *Graph, results []fileResult) *Diagnostics {
	diag := &Diagnostics{}
	type externalKey struct{ importer, ref string }
	seenExternal := make(map[externalKey]bool)
	seenAmbiguous := make(map[externalKey]bool)

	for i, res := range results {
		importer := g.File(i)

		if res.unparseable != nil {
			b.opts.Logger.Debug("unparseable file", "path", importer.RelPath, "reason", res.unparseable.Reason)
			diag.Unparseable = append(diag.Unparseable, *res.unparseable)
			continue
		}

		for _, r := range res.resolutions {
			if !r.Resolved() {
				key := externalKey{importer.Path, r.Ref.Text}
				if seenExternal[key] {
					continue
				}
				seenExternal[key] = true
				b.opts.Logger.Debug("unresolved import", "file", importer.RelPath, "module", r.Ref.Text)
				diag.External = append(diag.External, ExternalRef{
					Importer:  importer.Path,
					Reference: r.Ref.Text,
					Line:      r.Ref.Line,
				})
				continue
			}

			for _, c := range r.Candidates {
				g.AddEdge(importer.Path, c)
			}
			for _, amb := range r.Ambiguous {
				key := externalKey{importer.Path, amb.Module}
				if seenAmbiguous[key] {
					continue
				}
				seenAmbiguous[key] = true
				diag.Ambiguous = append(diag.Ambiguous, AmbiguousRef{
					Importer:   importer.Path,
					Reference:  amb.Module,
					Candidates: amb.Candidates,
				})
			}
		}
	}

	sort.SliceStable(diag.External, func(i, j int) bool {
		if diag.External[i].Importer != diag.External[j].Importer {
			return diag.External[i].Importer < diag.External[j].Importer
		}
		return diag.External[i].Reference < diag.External[j].Reference
	})
	return diag
}
