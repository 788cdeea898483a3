package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

// ReportExport is the top-level JSON export structure. Paths are relative
// to the project root unless absolute paths were requested.
type ReportExport struct {
	ProjectRoot    string              `json:"projectRoot"`
	Roots          []string            `json:"roots"`
	Targets        []string            `json:"targets"`
	Libraries      []string            `json:"libraries"`
	Scripts        []string            `json:"scripts"`
	External       []ExternalExport    `json:"external"`
	Unparseable    []UnparseableExport `json:"unparseable"`
	Ambiguous      []AmbiguousExport   `json:"ambiguous"`
	Hints          []HintExport        `json:"hints"`
	ScriptClusters []graph.ClusterNode `json:"scriptClusters"`
	Stats          graph.GraphStats    `json:"stats"`
}

// ExternalExport is an import that did not resolve inside the project.
type ExternalExport struct {
	Importer  string `json:"importer"`
	Reference string `json:"reference"`
	Line      int    `json:"line"`
}

// UnparseableExport is a file with no extracted references.
type UnparseableExport struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// AmbiguousExport is an import that resolved under several roots.
type AmbiguousExport struct {
	Importer   string   `json:"importer"`
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
}

// HintExport lists files an unresolved import might denote.
type HintExport struct {
	Importer   string   `json:"importer"`
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
}

// BuildExport converts a report into its export form.
func BuildExport(r *engine.Report, absPaths bool) *ReportExport {
	p := pathMapper(r.ProjectRoot, absPaths)

	out := &ReportExport{
		ProjectRoot:    r.ProjectRoot,
		Roots:          p.all(r.Roots),
		Targets:        p.all(r.Targets),
		Libraries:      p.all(r.Libraries),
		Scripts:        p.all(r.Scripts),
		External:       []ExternalExport{},
		Unparseable:    []UnparseableExport{},
		Ambiguous:      []AmbiguousExport{},
		Hints:          []HintExport{},
		ScriptClusters: r.ScriptClusters,
		Stats:          r.Stats,
	}
	if out.ScriptClusters == nil {
		out.ScriptClusters = []graph.ClusterNode{}
	}

	for _, e := range r.External {
		out.External = append(out.External, ExternalExport{
			Importer:  p.one(e.Importer),
			Reference: e.Reference,
			Line:      e.Line,
		})
	}
	for _, u := range r.Unparseable {
		out.Unparseable = append(out.Unparseable, UnparseableExport{
			Path:   p.one(u.Path),
			Reason: u.Reason,
		})
	}
	for _, a := range r.Ambiguous {
		out.Ambiguous = append(out.Ambiguous, AmbiguousExport{
			Importer:   p.one(a.Importer),
			Reference:  a.Reference,
			Candidates: p.all(a.Candidates),
		})
	}
	for _, h := range r.Hints {
		out.Hints = append(out.Hints, HintExport{
			Importer:   p.one(h.Importer),
			Reference:  h.Reference,
			Candidates: p.all(h.Candidates),
		})
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *engine.Report, absPaths bool) error {
	out, err := json.MarshalIndent(BuildExport(r, absPaths), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

// paths rewrites absolute paths for display.
type paths struct {
	root string
	abs  bool
}

func pathMapper(root string, abs bool) paths {
	return paths{root: root, abs: abs}
}

func (p paths) one(path string) string {
	if p.abs {
		return path
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (p paths) all(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, p.one(s))
	}
	return out
}

// WriteExplanationJSON writes x as indented JSON with its paths mapped like
// the report's.
func WriteExplanationJSON(w io.Writer, root string, x *engine.Explanation, absPaths bool) error {
	p := pathMapper(root, absPaths)
	out := &engine.Explanation{
		File:      p.one(x.File),
		Role:      x.Role,
		Importers: p.all(x.Importers),
		Imports:   p.all(x.Imports),
	}
	if len(x.Chain) > 0 {
		out.Chain = p.all(x.Chain)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
