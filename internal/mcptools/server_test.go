//go:build cgo

package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := NewClassifierMCPServer(newTestService())

	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session
}

// TestMCPListTools verifies that the MCP server exposes the classification
// tools.
func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{"classify_project", "explain_file", "list_files"}, names)
}

// TestMCPClassifyProject calls classify_project through the client-server
// transport and decodes the structured report.
func TestMCPClassifyProject(t *testing.T) {
	session := setupServerClient(t)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "classify_project",
		Arguments: ClassifyProjectInput{
			ProjectRoot: fixtureAbsPath(t),
			Targets:     []string{"main.py"},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "classify_project should not return an error")
	require.NotNil(t, result.StructuredContent, "expected structured content from classify_project")

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)

	var output ClassifyProjectOutput
	require.NoError(t, json.Unmarshal(raw, &output))
	require.NotNil(t, output.Report)

	assert.Len(t, output.Report.Libraries, 5)
	assert.Len(t, output.Report.Scripts, 5)
	assert.Equal(t, 10, output.Report.Stats.EdgeCount)
	require.Len(t, output.Report.Unparseable, 1)
	assert.Equal(t, "broken.py", output.Report.Unparseable[0].Path)
	require.Len(t, output.Report.ScriptClusters, 1)
	assert.Equal(t, "scripts", output.Report.ScriptClusters[0].Name)
}

// TestMCPClassifyProjectConfigError checks that configuration problems are
// reported as tool errors.
func TestMCPClassifyProjectConfigError(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "classify_project",
		Arguments: ClassifyProjectInput{
			ProjectRoot: fixtureAbsPath(t),
			Targets:     []string{"does/not/exist.py"},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown target should set IsError")
}

// TestMCPExplainFile calls explain_file and checks the reported role.
func TestMCPExplainFile(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "explain_file",
		Arguments: ExplainFileInput{
			ProjectRoot: fixtureAbsPath(t),
			Targets:     []string{"main.py"},
			File:        "pkg/helpers.py",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)

	var output ExplainFileOutput
	require.NoError(t, json.Unmarshal(raw, &output))
	require.NotNil(t, output.Explanation)
	assert.Equal(t, "library", string(output.Explanation.Role))
	assert.Len(t, output.Explanation.Chain, 2)
}

// TestMCPCallUnknownTool verifies that calling a non-existent tool returns an
// error.
func TestMCPCallUnknownTool(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})

	// The MCP SDK may return an error at the protocol level or set IsError on
	// the result. Accept either behavior.
	if err != nil {
		return
	}

	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
