package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/pycleaner/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store.
// Script clusters become subgraphs and nodes are styled by role. Every
// IMPORTS edge becomes an arrow, a self-import as N --> N.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	files, err := store.ListFiles(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}

	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return "", fmt.Errorf("get clusters: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string, len(files))
	for i, f := range files {
		nodeIDs[f.Path] = fmt.Sprintf("N%d", i)
	}

	clustered := make(map[string]bool)
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("  classDef library fill:#d4edda,stroke:#28a745\n")
	sb.WriteString("  classDef script fill:#f8d7da,stroke:#dc3545\n")

	for i, c := range clusters {
		fmt.Fprintf(&sb, "  subgraph C%d[\"%.40s\"]\n", i, c.Name)
		for _, member := range c.Members {
			if id, ok := nodeIDs[member]; ok {
				fmt.Fprintf(&sb, "    %s[\"%s\"]:::script\n", id, shortPath(member))
				clustered[member] = true
			}
		}
		sb.WriteString("  end\n")
	}

	for _, f := range files {
		if clustered[f.Path] {
			continue
		}
		fmt.Fprintf(&sb, "  %s[\"%s\"]:::%s\n", nodeIDs[f.Path], shortPath(f.Path), f.Role)
	}

	edges, err := store.ListEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("list edges: %w", err)
	}
	for _, e := range edges {
		src, okSrc := nodeIDs[e.SourceID]
		dst, okDst := nodeIDs[e.TargetID]
		if okSrc && okDst {
			fmt.Fprintf(&sb, "  %s --> %s\n", src, dst)
		}
	}

	return sb.String(), nil
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
