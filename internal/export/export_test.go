package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

// sampleReport returns a report rooted at root with one entry per list.
func sampleReport(root string) *engine.Report {
	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }
	return &engine.Report{
		ProjectRoot: root,
		Roots:       []string{root, p("src")},
		Targets:     []string{p("main.py")},
		Libraries:   []string{p("lib.py"), p("main.py")},
		Scripts:     []string{p("tools/a.py"), p("tools/b.py")},
		External: []graph.ExternalRef{
			{Importer: p("main.py"), Reference: "requests", Line: 3},
		},
		Unparseable: []graph.UnparseableFile{
			{Path: p("broken.py"), Reason: "syntax error at line 1, column 12"},
		},
		Ambiguous: []graph.AmbiguousRef{
			{Importer: p("main.py"), Reference: "util", Candidates: []string{p("util.py"), p("src/util.py")}},
		},
		Hints: []engine.Hint{
			{Importer: p("main.py"), Reference: "app.models", Candidates: []string{p("src/app/models.py")}},
		},
		ScriptClusters: []graph.ClusterNode{
			{Name: "tools", Members: []string{"tools/a.py", "tools/b.py"}},
		},
		Stats: graph.GraphStats{FileCount: 4, EdgeCount: 2, LibraryCount: 2, ScriptCount: 2},
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestBuildExport_RelativePaths(t *testing.T) {
	root := t.TempDir()
	e := BuildExport(sampleReport(root), false)

	assert.Equal(t, root, e.ProjectRoot)
	assert.Equal(t, []string{".", "src"}, e.Roots)
	assert.Equal(t, []string{"main.py"}, e.Targets)
	assert.Equal(t, []string{"lib.py", "main.py"}, e.Libraries)
	assert.Equal(t, []string{"tools/a.py", "tools/b.py"}, e.Scripts)
	assert.Equal(t, []ExternalExport{{Importer: "main.py", Reference: "requests", Line: 3}}, e.External)
	assert.Equal(t, []UnparseableExport{{Path: "broken.py", Reason: "syntax error at line 1, column 12"}}, e.Unparseable)
	assert.Equal(t, []AmbiguousExport{{Importer: "main.py", Reference: "util", Candidates: []string{"util.py", "src/util.py"}}}, e.Ambiguous)
	assert.Equal(t, []HintExport{{Importer: "main.py", Reference: "app.models", Candidates: []string{"src/app/models.py"}}}, e.Hints)
}

func TestBuildExport_AbsolutePaths(t *testing.T) {
	root := t.TempDir()
	r := sampleReport(root)
	e := BuildExport(r, true)

	assert.Equal(t, r.Libraries, e.Libraries)
	assert.Equal(t, r.External[0].Importer, e.External[0].Importer)
}

func TestWriteJSON_EmptyListsAreArrays(t *testing.T) {
	root := t.TempDir()
	r := &engine.Report{ProjectRoot: root, Targets: []string{filepath.Join(root, "main.py")}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r, false))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"libraries", "scripts", "external", "unparseable", "ambiguous", "hints", "scriptClusters"} {
		assert.IsType(t, []any{}, raw[key], "%s should encode as an array", key)
	}
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func TestWriteText_AllSections(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(root), AllSections(), false))

	out := buf.String()
	for _, title := range []string{"LIBRARIES", "SCRIPTS", "SCRIPT CLUSTERS", "MIGHT BE FOUND", "NOT FOUND", "AMBIGUOUS", "UNPARSEABLE"} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "tools/a.py")
	assert.Contains(t, out, "requests")
	assert.True(t, strings.HasSuffix(out, "There are 2 files that can be considered as libraries, and 2 as scripts\n"))
}

func TestWriteText_SelectedSections(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(root), Sections{Scripts: true}, false))

	out := buf.String()
	assert.Contains(t, out, "SCRIPTS")
	assert.NotContains(t, out, "LIBRARIES")
	assert.NotContains(t, out, "NOT FOUND")
	assert.Contains(t, out, "There are 2 files")
}

func TestWriteText_LargeCountsAreGrouped(t *testing.T) {
	root := t.TempDir()
	r := &engine.Report{ProjectRoot: root}
	for i := 0; i < 1200; i++ {
		r.Libraries = append(r.Libraries, filepath.Join(root, "lib", strings.Repeat("x", 1+i%7)+".py"))
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, Sections{}, false))
	assert.Equal(t, "There are 1,200 files that can be considered as libraries, and 0 as scripts\n", buf.String())
}

func TestWriteExplanation(t *testing.T) {
	root := t.TempDir()
	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	var buf bytes.Buffer
	require.NoError(t, WriteExplanation(&buf, root, &engine.Explanation{
		File:      p("pkg/util.py"),
		Role:      graph.RoleLibrary,
		Chain:     []string{p("main.py"), p("pkg/util.py")},
		Importers: []string{p("main.py"), p("tool.py")},
		Imports:   []string{p("pkg/__init__.py")},
	}, false))

	assert.Equal(t, `pkg/util.py: library
  reached via: main.py -> pkg/util.py
  imported by: main.py, tool.py
  imports: 1 project file(s)
`, buf.String())
}

func TestWriteExplanationJSON(t *testing.T) {
	root := t.TempDir()
	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }
	script := &engine.Explanation{
		File:      p("tools/a.py"),
		Role:      graph.RoleScript,
		Importers: []string{p("tools/b.py")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExplanationJSON(&buf, root, script, false))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"file":      "tools/a.py",
		"role":      "script",
		"importers": []any{"tools/b.py"},
		"imports":   []any{},
	}, got)

	buf.Reset()
	require.NoError(t, WriteExplanationJSON(&buf, root, script, true))
	assert.Contains(t, buf.String(), p("tools/b.py"))
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestWriteFileList(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "libs.log")
	require.NoError(t, WriteFileList(dest, []string{"a.py", "pkg/b.py"}))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a.py\npkg/b.py\n", string(data))
}

func TestZipFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{"main.py": "import pkg.mod\n", "pkg/mod.py": "X = 1\n"}
	var paths []string
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	sort.Strings(paths)

	dest := filepath.Join(t.TempDir(), "libs.zip")
	require.NoError(t, ZipFiles(dest, root, paths))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(data)
	}
	assert.Equal(t, files, got)
}

func TestZipFiles_MissingFile(t *testing.T) {
	root := t.TempDir()
	err := ZipFiles(filepath.Join(t.TempDir(), "out.zip"), root, []string{filepath.Join(root, "gone.py")})
	assert.ErrorContains(t, err, "gone.py")
}

// ---------------------------------------------------------------------------
// Mermaid
// ---------------------------------------------------------------------------

func TestGenerateMermaid(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	for _, f := range []graph.FileNode{
		{Path: "main.py", Role: graph.RoleLibrary},
		{Path: "pkg/lib.py", Role: graph.RoleLibrary},
		{Path: "tools/a.py", Role: graph.RoleScript},
		{Path: "tools/b.py", Role: graph.RoleScript},
	} {
		require.NoError(t, store.AddFile(ctx, f))
	}
	for _, e := range []graph.Edge{
		{SourceID: "main.py", TargetID: "pkg/lib.py", Kind: graph.EdgeKindImports},
		{SourceID: "tools/a.py", TargetID: "tools/b.py", Kind: graph.EdgeKindImports},
		{SourceID: "tools/b.py", TargetID: "tools/b.py", Kind: graph.EdgeKindImports},
	} {
		require.NoError(t, store.AddEdge(ctx, e))
	}
	require.NoError(t, store.AddCluster(ctx, graph.ClusterNode{Name: "tools", Members: []string{"tools/a.py", "tools/b.py"}}))

	out, err := GenerateMermaid(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, `graph TD
  classDef library fill:#d4edda,stroke:#28a745
  classDef script fill:#f8d7da,stroke:#dc3545
  subgraph C0["tools"]
    N2["tools/a.py"]:::script
    N3["tools/b.py"]:::script
  end
  N0["main.py"]:::library
  N1["pkg/lib.py"]:::library
  N0 --> N1
  N2 --> N3
  N3 --> N3
`, out)
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "a.py", shortPath("a.py"))
	assert.Equal(t, "pkg/a.py", shortPath("pkg/a.py"))
	assert.Equal(t, "sub/a.py", shortPath("pkg/sub/a.py"))
}
