package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func extract(t *testing.T, shallow bool, source string) *ExtractResult {
	t.Helper()
	e := NewTreeSitterExtractor(shallow)
	t.Cleanup(func() { _ = e.Close() })

	res, err := e.Extract(context.Background(), ProjectFile{Path: "/proj/mod.py", RelPath: "mod.py"}, []byte(source))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func refTexts(refs []ModuleReference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Text)
	}
	return out
}

// ---------------------------------------------------------------------------
// Import statements
// ---------------------------------------------------------------------------

func TestTreeSitterExtractor_ImportStatement(t *testing.T) {
	res := extract(t, false, "import os, pkg.sub as s\nimport os\n")

	require.Len(t, res.Refs, 3)
	assert.Equal(t, ModuleReference{Segments: []string{"os"}, Text: "os", Line: 1}, res.Refs[0])
	assert.Equal(t, ModuleReference{Segments: []string{"pkg", "sub"}, Text: "pkg.sub", Line: 1}, res.Refs[1])
	assert.Equal(t, 2, res.Refs[2].Line)
	assert.False(t, res.Unparseable)
}

func TestTreeSitterExtractor_FromImport(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   ModuleReference
	}{
		{
			name:   "absolute",
			source: "from pkg.mod import a, b as c\n",
			want:   ModuleReference{Segments: []string{"pkg", "mod"}, Names: []string{"a", "b"}, Text: "pkg.mod", Line: 1},
		},
		{
			name:   "bare relative",
			source: "from . import sibling\n",
			want:   ModuleReference{Level: 1, Names: []string{"sibling"}, Text: ".", Line: 1},
		},
		{
			name:   "relative with module",
			source: "\nfrom ..pkg.mod import x\n",
			want:   ModuleReference{Segments: []string{"pkg", "mod"}, Level: 2, Names: []string{"x"}, Text: "..pkg.mod", Line: 2},
		},
		{
			name:   "wildcard",
			source: "from a.b import *\n",
			want:   ModuleReference{Segments: []string{"a", "b"}, Names: []string{"*"}, Text: "a.b", Line: 1},
		},
		{
			name:   "parenthesized multiline",
			source: "from pkg import (\n    one,\n    two as second,\n)\n",
			want:   ModuleReference{Segments: []string{"pkg"}, Names: []string{"one", "two"}, Text: "pkg", Line: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := extract(t, false, tt.source)
			require.Len(t, res.Refs, 1)
			assert.Equal(t, tt.want, res.Refs[0])
		})
	}
}

func TestTreeSitterExtractor_IgnoresNonImports(t *testing.T) {
	source := `from __future__ import annotations
# import commented
s = "import quoted"
doc = """
import in_docstring
"""
`
	res := extract(t, false, source)
	assert.Empty(t, res.Refs)
	assert.False(t, res.Unparseable)
}

func TestTreeSitterExtractor_NestedImports(t *testing.T) {
	source := `import top

def f():
    import inner

try:
    import fast
except ImportError:
    import slow

class C:
    from . import member
`
	deep := extract(t, false, source)
	assert.Equal(t, []string{"top", "inner", "fast", "slow", "."}, refTexts(deep.Refs))

	shallow := extract(t, true, source)
	assert.Equal(t, []string{"top"}, refTexts(shallow.Refs))
}

func TestTreeSitterExtractor_EmptyFile(t *testing.T) {
	res := extract(t, false, "")
	assert.Empty(t, res.Refs)
	assert.False(t, res.Unparseable)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestTreeSitterExtractor_SyntaxError(t *testing.T) {
	res := extract(t, false, "import ok\n\ndef broken(:\n    pass\n")

	assert.True(t, res.Unparseable)
	assert.Empty(t, res.Refs, "an unparseable file contributes no references")
	assert.Contains(t, res.Reason, "syntax error")
}

func TestTreeSitterExtractor_CancelledContext(t *testing.T) {
	e := NewTreeSitterExtractor(false)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, ProjectFile{Path: "/proj/a.py", RelPath: "a.py"}, []byte("import os\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
