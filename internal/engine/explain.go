package engine

import (
	"path/filepath"

	"github.com/dusk-indust/pycleaner/internal/graph"
)

// Explanation tells why a file is a library or a script.
type Explanation struct {
	File string     `json:"file"`
	Role graph.Role `json:"role"`
	// Chain is the shortest import path from a target to File.
	Chain     []string `json:"chain,omitempty"`
	Importers []string `json:"importers"`
	Imports   []string `json:"imports"`
}

// Explain looks up file (relative to the project root or absolute) in the
// scanned graph. It returns a ConfigurationError for unknown files.
func (r *Report) Explain(file string) (*Explanation, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.ProjectRoot, file)
	}
	path = filepath.Clean(path)

	if _, ok := r.graph.Index(path); !ok {
		return nil, &graph.ConfigurationError{Reason: "file not among discovered files", Path: file}
	}

	chain := graph.ImportChain(r.graph, r.Targets, path)
	role := graph.RoleScript
	if chain != nil {
		role = graph.RoleLibrary
	}

	return &Explanation{
		File:      path,
		Role:      role,
		Chain:     chain,
		Importers: r.graph.Importers(path),
		Imports:   r.graph.Imports(path),
	}, nil
}
