package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns canned references keyed by RelPath.
type stubExtractor struct {
	refs        map[string][]ModuleReference
	unparseable map[string]string
	fail        map[string]error
}

func (s *stubExtractor) Extract(ctx context.Context, file ProjectFile, _ []byte) (*ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fail[file.RelPath]; err != nil {
		return nil, err
	}
	if reason, ok := s.unparseable[file.RelPath]; ok {
		return &ExtractResult{File: file, Unparseable: true, Reason: reason}, nil
	}
	return &ExtractResult{File: file, Refs: s.refs[file.RelPath]}, nil
}

func (s *stubExtractor) Close() error { return nil }

// refs parses reference texts; "pkg:a,b" adds imported names.
func refs(texts ...string) []ModuleReference {
	out := make([]ModuleReference, 0, len(texts))
	for i, text := range texts {
		module, names, found := strings.Cut(text, ":")
		ref := ParseReference(module)
		if found {
			ref.Names = strings.Split(names, ",")
		}
		ref.Line = i + 1
		out = append(out, ref)
	}
	return out
}

func readNothing(string) ([]byte, error) { return nil, nil }

// buildGraph builds a graph over rels with canned references.
func buildGraph(t *testing.T, root string, rels []string, ext *stubExtractor) (*Graph, *Diagnostics) {
	t.Helper()
	files := projectFiles(root, rels...)
	b := NewBuilder(ext, NewResolver(root, nil, files), BuilderOptions{Concurrency: 2, ReadFile: readNothing})
	g, diag, err := b.Build(context.Background(), files)
	require.NoError(t, err)
	return g, diag
}

func TestBuilder_EdgesAndDiagnostics(t *testing.T) {
	root := t.TempDir()
	g, diag := buildGraph(t, root,
		[]string{"main.py", "pkg/__init__.py", "pkg/a.py", "pkg/b.py", "broken.py"},
		&stubExtractor{
			refs: map[string][]ModuleReference{
				"main.py":  refs("pkg.a", "pkg.a", "os", "os", "requests"),
				"pkg/a.py": refs(".:b", "os"),
				"pkg/b.py": refs("pkg.b"),
			},
			unparseable: map[string]string{"broken.py": "syntax error at line 1, column 5"},
		},
	)

	main := abs(root, "main.py")[0]
	assert.Equal(t, abs(root, "pkg/a.py"), g.Imports(main), "repeated imports give one edge")
	assert.Equal(t, abs(root, "pkg/__init__.py", "pkg/b.py"), g.Imports(abs(root, "pkg/a.py")[0]))
	assert.Equal(t, abs(root, "pkg/b.py"), g.Imports(abs(root, "pkg/b.py")[0]), "self import is kept as an edge")
	assert.Equal(t, 4, g.EdgeCount())

	assert.Equal(t, []ExternalRef{
		{Importer: main, Reference: "os", Line: 3},
		{Importer: main, Reference: "requests", Line: 5},
		{Importer: abs(root, "pkg/a.py")[0], Reference: "os", Line: 2},
	}, diag.External, "unresolved references are listed once per importer")

	require.Len(t, diag.Unparseable, 1)
	assert.Equal(t, abs(root, "broken.py")[0], diag.Unparseable[0].Path)
	assert.Empty(t, g.Imports(abs(root, "broken.py")[0]))
	assert.Empty(t, diag.Ambiguous)
}

func TestBuilder_AmbiguousUnderSeveralRoots(t *testing.T) {
	root := t.TempDir()
	files := projectFiles(root, "app.py", "util.py", "src/util.py")
	ext := &stubExtractor{refs: map[string][]ModuleReference{"app.py": refs("util", "util")}}
	b := NewBuilder(ext, NewResolver(root, []string{root, filepath.Join(root, "src")}, files), BuilderOptions{ReadFile: readNothing})

	g, diag, err := b.Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, abs(root, "src/util.py", "util.py"), g.Imports(abs(root, "app.py")[0]), "every candidate becomes an edge")
	require.Len(t, diag.Ambiguous, 1, "ambiguity is reported once per importer and module")
	assert.Equal(t, "util", diag.Ambiguous[0].Reference)
	assert.Len(t, diag.Ambiguous[0].Candidates, 2)
}

func TestBuilder_ReadAndParseFailures(t *testing.T) {
	root := t.TempDir()
	files := projectFiles(root, "ok.py", "gone.py", "bad.py")
	ext := &stubExtractor{fail: map[string]error{"bad.py": errors.New("boom")}}
	b := NewBuilder(ext, NewResolver(root, nil, files), BuilderOptions{
		ReadFile: func(path string) ([]byte, error) {
			if path == abs(root, "gone.py")[0] {
				return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
			}
			return nil, nil
		},
	})

	g, diag, err := b.Build(context.Background(), files)
	require.NoError(t, err, "per-file failures are diagnostics, not errors")
	assert.Equal(t, 3, g.Len())

	reasons := map[string]string{}
	for _, u := range diag.Unparseable {
		reasons[u.Path] = u.Reason
	}
	assert.Contains(t, reasons[abs(root, "gone.py")[0]], "read:")
	assert.Contains(t, reasons[abs(root, "bad.py")[0]], "parse: boom")
	assert.NotContains(t, reasons, abs(root, "ok.py")[0])
}

func TestBuilder_ReadsFromDisk(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py": "import lib\n",
		"lib.py":  "",
	})
	files := projectFiles(root, "lib.py", "main.py")
	b := NewBuilder(NewTreeSitterExtractor(false), NewResolver(root, nil, files), BuilderOptions{})

	g, diag, err := b.Build(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, abs(root, "lib.py"), g.Imports(abs(root, "main.py")[0]))
	assert.Empty(t, diag.External)
	assert.Empty(t, diag.Unparseable)
}

func TestBuilder_Cancelled(t *testing.T) {
	root := t.TempDir()
	files := projectFiles(root, "a.py", "b.py")
	b := NewBuilder(&stubExtractor{}, NewResolver(root, nil, files), BuilderOptions{ReadFile: readNothing})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Build(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}
