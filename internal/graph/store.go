package graph

import (
	"context"
	"fmt"
	"io"
)

// Store keeps a classified import graph so it can be queried after the
// run that produced it. Paths are project-relative.
// Implementations: KuzuStore (persistent, cgo), MemStore (testing, MCP).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddFile(ctx context.Context, node FileNode) error
	AddCluster(ctx context.Context, node ClusterNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations.
	GetFile(ctx context.Context, path string) (*FileNode, error)
	ListFiles(ctx context.Context, role Role) ([]FileNode, error)
	GetClusters(ctx context.Context) ([]ClusterNode, error)

	// ListEdges returns every IMPORTS edge, self-imports included, sorted
	// by source then target.
	ListEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal.
	GetDependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // who imports this?
	DirectionDownstream Direction = "downstream" // what does this import?
)

// Persist writes a classified graph and its script clusters into store.
func Persist(ctx context.Context, store Store, g *Graph, cls *Classification, clusters []ClusterNode) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	for i, f := range g.files {
		if err := store.AddFile(ctx, FileNode{Path: f.RelPath, Role: cls.Role(i)}); err != nil {
			return fmt.Errorf("add file %s: %w", f.RelPath, err)
		}
	}

	for _, e := range g.Edges() {
		if err := store.AddEdge(ctx, e); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	for _, c := range clusters {
		if err := store.AddCluster(ctx, c); err != nil {
			return fmt.Errorf("add cluster %s: %w", c.Name, err)
		}
	}
	return nil
}

// Copy writes every file, edge and cluster of src into dst.
func Copy(ctx context.Context, dst, src Store) error {
	if err := dst.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	files, err := src.ListFiles(ctx, "")
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, f := range files {
		if err := dst.AddFile(ctx, f); err != nil {
			return fmt.Errorf("add file %s: %w", f.Path, err)
		}
	}

	edges, err := src.ListEdges(ctx)
	if err != nil {
		return fmt.Errorf("list edges: %w", err)
	}
	for _, e := range edges {
		if err := dst.AddEdge(ctx, e); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	clusters, err := src.GetClusters(ctx)
	if err != nil {
		return fmt.Errorf("get clusters: %w", err)
	}
	for _, c := range clusters {
		if err := dst.AddCluster(ctx, c); err != nil {
			return fmt.Errorf("add cluster %s: %w", c.Name, err)
		}
	}
	return nil
}

// walkChains breadth-first expands start through next, visiting each file
// once, and returns the path to every file within maxDepth hops. next must
// return neighbours in a stable order for the result to be deterministic.
func walkChains(start string, maxDepth int, next func(string) ([]string, error)) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	seen := map[string]bool{start: true}
	frontier := [][]string{{start}}
	var chains []DependencyChain

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var following [][]string
		for _, path := range frontier {
			neighbours, err := next(path[len(path)-1])
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbours {
				if seen[nb] {
					continue
				}
				seen[nb] = true
				chain := append(append(make([]string, 0, len(path)+1), path...), nb)
				chains = append(chains, DependencyChain{Nodes: chain, Depth: depth})
				following = append(following, chain)
			}
		}
		frontier = following
	}
	return chains, nil
}
