package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewClassifierMCPServer creates an MCP server with the classification tools registered.
func NewClassifierMCPServer(svc *ClassifierService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pycleaner",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_project",
		Description: "Scan a Python project and split its files into libraries (transitively imported from the core targets) and scripts (everything else). Also reports unresolved, ambiguous and unparseable imports.",
	}, svc.ClassifyProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_file",
		Description: "Explain why a file is a library or a script: the shortest import chain from a core target, plus its direct importers and imports.",
	}, svc.ExplainFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List project files classified as libraries, scripts, or both.",
	}, svc.ListFiles)

	return server
}

// RunMCPServer starts an HTTP server exposing the classification MCP tools.
func RunMCPServer(ctx context.Context, svc *ClassifierService, addr string) error {
	server := NewClassifierMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the classification tools over stdin/stdout
// until the client disconnects or ctx is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ClassifierService) error {
	return NewClassifierMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
