package graph

import (
	"slices"
	"sort"
)

// Graph is the file-level import graph. Nodes live in an arena addressed
// by index; edges are deduplicated, sorted successor lists per node.
type Graph struct {
	files []ProjectFile
	index map[string]int
	edges [][]int
}

// NewGraph creates a graph with one node per file and no edges. Duplicate
// paths collapse onto the first occurrence.
func NewGraph(files []ProjectFile) *Graph {
	g := &Graph{
		files: make([]ProjectFile, 0, len(files)),
		index: make(map[string]int, len(files)),
	}
	for _, f := range files {
		if _, ok := g.index[f.Path]; ok {
			continue
		}
		g.index[f.Path] = len(g.files)
		g.files = append(g.files, f)
	}
	g.edges = make([][]int, len(g.files))
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.files)
}

// Files returns the nodes in index order.
func (g *Graph) Files() []ProjectFile {
	return slices.Clone(g.files)
}

// File returns the node at index i.
func (g *Graph) File(i int) ProjectFile {
	return g.files[i]
}

// Index returns the node index for an absolute path.
func (g *Graph) Index(path string) (int, bool) {
	i, ok := g.index[path]
	return i, ok
}

// AddEdge records that from imports to. Unknown paths are ignored and
// reported as false; repeated edges are kept once.
func (g *Graph) AddEdge(from, to string) bool {
	fi, ok := g.index[from]
	if !ok {
		return false
	}
	ti, ok := g.index[to]
	if !ok {
		return false
	}
	pos, found := slices.BinarySearch(g.edges[fi], ti)
	if !found {
		g.edges[fi] = slices.Insert(g.edges[fi], pos, ti)
	}
	return true
}

// Successors returns the indexes of the files node i imports.
func (g *Graph) Successors(i int) []int {
	return g.edges[i]
}

// Imports returns the absolute paths imported by path, sorted.
func (g *Graph) Imports(path string) []string {
	i, ok := g.index[path]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.edges[i]))
	for _, j := range g.edges[i] {
		out = append(out, g.files[j].Path)
	}
	sort.Strings(out)
	return out
}

// Importers returns the absolute paths of files importing path, sorted.
func (g *Graph) Importers(path string) []string {
	ti, ok := g.index[path]
	if !ok {
		return nil
	}
	var out []string
	for fi, succ := range g.edges {
		if _, found := slices.BinarySearch(succ, ti); found {
			out = append(out, g.files[fi].Path)
		}
	}
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, succ := range g.edges {
		n += len(succ)
	}
	return n
}

// Edges returns every edge as a pair of project-relative paths.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for fi, succ := range g.edges {
		for _, ti := range succ {
			out = append(out, Edge{
				SourceID: g.files[fi].RelPath,
				TargetID: g.files[ti].RelPath,
				Kind:     EdgeKindImports,
			})
		}
	}
	return out
}
