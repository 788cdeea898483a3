//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore persists the classified import graph in KuzuDB. It needs cgo
// because go-kuzu wraps the KuzuDB C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ Store = (*KuzuStore)(nil)

// NewKuzuStore opens an in-memory KuzuDB.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore opens (or creates) the KuzuDB at dbPath. The parent
// directory is created when missing; KuzuDB creates the leaf itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(dbPath, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// schema lists node tables before the relationships that reference them.
var schema = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(path STRING, role STRING, PRIMARY KEY(path))`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(id STRING, name STRING, PRIMARY KEY(id))`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM File TO Cluster)`,
}

// InitSchema is idempotent.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, ddl := range schema {
		if _, err := s.rows(ddl, nil); err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
	}
	return nil
}

func (s *KuzuStore) AddFile(_ context.Context, node FileNode) error {
	_, err := s.rows("CREATE (:File {path: $path, role: $role})",
		map[string]any{"path": node.Path, "role": string(node.Role)})
	return err
}

// AddCluster keys the cluster by its first member, so members must already
// be stored as files.
func (s *KuzuStore) AddCluster(_ context.Context, node ClusterNode) error {
	if len(node.Members) == 0 {
		return fmt.Errorf("kuzu: cluster %s has no members", node.Name)
	}
	id := node.Members[0]
	if _, err := s.rows("CREATE (:Cluster {id: $id, name: $name})",
		map[string]any{"id": id, "name": node.Name}); err != nil {
		return err
	}
	for _, member := range node.Members {
		if _, err := s.rows(
			`MATCH (f:File {path: $path}), (c:Cluster {id: $id}) CREATE (f)-[:BELONGS_TO]->(c)`,
			map[string]any{"path": member, "id": id},
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	if edge.Kind != EdgeKindImports {
		return fmt.Errorf("kuzu: unsupported edge kind: %s", edge.Kind)
	}
	_, err := s.rows(
		`MATCH (a:File {path: $src}), (b:File {path: $dst}) CREATE (a)-[:IMPORTS]->(b)`,
		map[string]any{"src": edge.SourceID, "dst": edge.TargetID},
	)
	return err
}

// GetFile returns nil when path is not in the index.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	rs, err := s.rows("MATCH (f:File {path: $path}) RETURN f.path, f.role",
		map[string]any{"path": path})
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	node := rs[0].file()
	return &node, nil
}

// ListFiles returns files with the given role sorted by path. An empty role
// returns every file.
func (s *KuzuStore) ListFiles(_ context.Context, role Role) ([]FileNode, error) {
	cypher := "MATCH (f:File) RETURN f.path, f.role ORDER BY f.path"
	var params map[string]any
	if role != "" {
		cypher = "MATCH (f:File) WHERE f.role = $role RETURN f.path, f.role ORDER BY f.path"
		params = map[string]any{"role": string(role)}
	}
	rs, err := s.rows(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]FileNode, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.file())
	}
	return out, nil
}

// GetClusters returns clusters ordered by name with sorted members.
func (s *KuzuStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	rs, err := s.rows(
		`MATCH (f:File)-[:BELONGS_TO]->(c:Cluster)
		 RETURN c.id, c.name, f.path ORDER BY c.name, c.id, f.path`, nil)
	if err != nil {
		return nil, err
	}
	var (
		out    []ClusterNode
		lastID string
	)
	for _, r := range rs {
		if id := r.str(0); len(out) == 0 || id != lastID {
			out = append(out, ClusterNode{Name: r.str(1)})
			lastID = id
		}
		c := &out[len(out)-1]
		c.Members = append(c.Members, r.str(2))
	}
	if out == nil {
		out = []ClusterNode{}
	}
	return out, nil
}

func (s *KuzuStore) ListEdges(_ context.Context) ([]Edge, error) {
	rs, err := s.rows(
		"MATCH (a:File)-[:IMPORTS]->(b:File) RETURN a.path, b.path ORDER BY a.path, b.path", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(rs))
	for _, r := range rs {
		out = append(out, Edge{SourceID: r.str(0), TargetID: r.str(1), Kind: EdgeKindImports})
	}
	return out, nil
}

// GetDependencies walks IMPORTS edges one query per visited file.
func (s *KuzuStore) GetDependencies(_ context.Context, nodeID string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	var cypher string
	switch dir {
	case DirectionDownstream:
		cypher = "MATCH (:File {path: $path})-[:IMPORTS]->(b:File) RETURN b.path ORDER BY b.path"
	case DirectionUpstream:
		cypher = "MATCH (a:File)-[:IMPORTS]->(:File {path: $path}) RETURN a.path ORDER BY a.path"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	return walkChains(nodeID, maxDepth, func(path string) ([]string, error) {
		rs, err := s.rows(cypher, map[string]any{"path": path})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.str(0))
		}
		return out, nil
	})
}

func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	byRole, err := s.rows("MATCH (f:File) RETURN f.role, count(*)", nil)
	if err != nil {
		return nil, err
	}
	edges, err := s.rows("MATCH ()-[r:IMPORTS]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}

	stats := &GraphStats{}
	for _, r := range byRole {
		n := r.count(1)
		stats.FileCount += n
		switch Role(r.str(0)) {
		case RoleLibrary:
			stats.LibraryCount += n
		case RoleScript:
			stats.ScriptCount += n
		}
	}
	if len(edges) > 0 {
		stats.EdgeCount = edges[0].count(0)
	}
	return stats, nil
}

// rows runs cypher (prepared when it has parameters) and collects every
// result tuple.
func (s *KuzuStore) rows(cypher string, params map[string]any) ([]row, error) {
	var (
		res *kuzu.QueryResult
		err error
	)
	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		if stmt, err = s.conn.Prepare(cypher); err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var out []row
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		out = append(out, row(vals))
	}
	return out, nil
}

// row is one result tuple in column order.
type row []any

func (r row) str(i int) string {
	if s, ok := r[i].(string); ok {
		return s
	}
	return fmt.Sprint(r[i])
}

// count reads a count column; KuzuDB returns INT64 for count().
func (r row) count(i int) int {
	switch n := r[i].(type) {
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	}
	return 0
}

func (r row) file() FileNode {
	return FileNode{Path: r.str(0), Role: Role(r.str(1))}
}
