package graph

import "fmt"

// --- Enums ---

// Role classifies a discovered file after reachability analysis.
type Role string

const (
	RoleLibrary Role = "library"
	RoleScript  Role = "script"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindImports EdgeKind = "IMPORTS"
)

// PackageMarker is the file whose presence makes a directory importable.
const PackageMarker = "__init__.py"

// SourceExt is the canonical single-file module extension.
const SourceExt = ".py"

// --- Models ---

// ProjectFile is a discovered source file. Path is the normalized absolute
// path and serves as identity; RelPath is slash-separated and relative to
// the project root.
type ProjectFile struct {
	Path    string `json:"path"`
	RelPath string `json:"relPath"`
}

// ModuleReference is one module path named by an import statement.
type ModuleReference struct {
	Segments []string `json:"segments,omitempty"`
	Level    int      `json:"level"` // 0 = absolute, N = N dots
	Names    []string `json:"names,omitempty"`
	Text     string   `json:"text"` // e.g. "..pkg.mod"
	Line     int      `json:"line"`
}

// IsRelative reports whether the reference starts with one or more dots.
func (r ModuleReference) IsRelative() bool {
	return r.Level > 0
}

// Resolution binds a reference to the project files it could denote.
type Resolution struct {
	Ref        ModuleReference `json:"ref"`
	Candidates []string        `json:"candidates,omitempty"` // absolute paths
	// Ambiguous lists dotted paths that matched under several roots.
	Ambiguous []AmbiguousMatch `json:"ambiguous,omitempty"`
}

// Resolved reports whether at least one candidate was found.
func (r Resolution) Resolved() bool {
	return len(r.Candidates) > 0
}

// AmbiguousMatch is one dotted path that resolved under more than one root.
type AmbiguousMatch struct {
	Module     string   `json:"module"`
	Candidates []string `json:"candidates"`
}

// Edge represents a relationship between two nodes.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// FileNode is a classified file as kept by a Store.
type FileNode struct {
	Path string `json:"path"` // project-relative, slash-separated
	Role Role   `json:"role"`
}

// ClusterNode is a group of scripts connected by imports.
type ClusterNode struct {
	Name    string   `json:"name"`
	Members []string `json:"members"` // project-relative paths
}

// GraphStats summarizes a dependency graph.
type GraphStats struct {
	FileCount    int `json:"fileCount"`
	EdgeCount    int `json:"edgeCount"`
	LibraryCount int `json:"libraryCount"`
	ScriptCount  int `json:"scriptCount"`
}

// DependencyChain is an ordered sequence of nodes forming an import path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// --- Diagnostics ---

// ExternalRef is an import that did not map to any project file.
type ExternalRef struct {
	Importer  string `json:"importer"`
	Reference string `json:"reference"`
	Line      int    `json:"line"`
}

// UnparseableFile is a file whose text could not be parsed or read.
type UnparseableFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// AmbiguousRef is an import that resolved under several search roots.
type AmbiguousRef struct {
	Importer   string   `json:"importer"`
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
}

// Diagnostics collects every non-fatal condition met while building.
type Diagnostics struct {
	External    []ExternalRef     `json:"external"`
	Unparseable []UnparseableFile `json:"unparseable"`
	Ambiguous   []AmbiguousRef    `json:"ambiguous"`
}

// --- Errors ---

// ConfigurationError aborts a run: the inputs cannot define a target set.
type ConfigurationError struct {
	Reason string
	Path   string
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Reason, e.Path)
}
