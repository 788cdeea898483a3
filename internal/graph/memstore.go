package graph

import (
	"context"
	"slices"
	"sort"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is a Store held in maps. It backs `diagram` when no index has
// been persisted, and the store tests.
type MemStore struct {
	mu       sync.RWMutex
	files    map[string]Role
	imports  map[string][]string // importer -> imported
	importBy map[string][]string // imported -> importers
	edges    []Edge
	clusters []ClusterNode
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		files:    make(map[string]Role),
		imports:  make(map[string][]string),
		importBy: make(map[string][]string),
	}
}

// InitSchema is a no-op.
func (m *MemStore) InitSchema(_ context.Context) error { return nil }

func (m *MemStore) AddFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[node.Path] = node.Role
	return nil
}

func (m *MemStore) AddCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters = append(m.clusters, ClusterNode{Name: node.Name, Members: slices.Clone(node.Members)})
	return nil
}

func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[edge.SourceID] = insertSorted(m.imports[edge.SourceID], edge.TargetID)
	m.importBy[edge.TargetID] = insertSorted(m.importBy[edge.TargetID], edge.SourceID)
	m.edges = append(m.edges, edge)
	return nil
}

// GetFile returns nil when path was never added.
func (m *MemStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &FileNode{Path: path, Role: role}, nil
}

// ListFiles returns files with the given role sorted by path. An empty role
// returns every file.
func (m *MemStore) ListFiles(_ context.Context, role Role) ([]FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []FileNode
	for path, r := range m.files {
		if role == "" || r == role {
			out = append(out, FileNode{Path: path, Role: r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *MemStore) ListEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

func (m *MemStore) GetDependencies(_ context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adjacency := m.imports
	if direction == DirectionUpstream {
		adjacency = m.importBy
	}
	return walkChains(nodeID, maxDepth, func(path string) ([]string, error) {
		return adjacency[path], nil
	})
}

func (m *MemStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.clusters), nil
}

func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{FileCount: len(m.files), EdgeCount: len(m.edges)}
	for _, role := range m.files {
		switch role {
		case RoleLibrary:
			stats.LibraryCount++
		case RoleScript:
			stats.ScriptCount++
		}
	}
	return stats, nil
}

func (m *MemStore) Close() error { return nil }

func insertSorted(list []string, s string) []string {
	i, found := slices.BinarySearch(list, s)
	if found {
		return list
	}
	return slices.Insert(list, i, s)
}
