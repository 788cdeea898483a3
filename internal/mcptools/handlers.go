package mcptools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/export"
	"github.com/dusk-indust/pycleaner/internal/graph"
)

// defaultCacheSize bounds the number of scan reports kept in memory.
const defaultCacheSize = 16

// ClassifierService runs scans for MCP tool handlers and caches their
// reports by scan options.
type ClassifierService struct {
	logger      *slog.Logger
	concurrency int
	reports     *lru.Cache[string, *engine.Report]
}

// NewClassifierService creates a ClassifierService. A nil logger discards
// output; a non-positive concurrency uses the engine default.
func NewClassifierService(logger *slog.Logger, concurrency int) *ClassifierService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache, err := lru.New[string, *engine.Report](defaultCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &ClassifierService{logger: logger, concurrency: concurrency, reports: cache}
}

// ClassifyProject scans a project and returns the full classification.
func (s *ClassifierService) ClassifyProject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyProjectInput,
) (*mcp.CallToolResult, ClassifyProjectOutput, error) {
	report, err := s.scan(ctx, input.scanInput())
	if err != nil {
		return nil, ClassifyProjectOutput{}, err
	}
	return nil, ClassifyProjectOutput{Report: export.BuildExport(report, input.AbsPaths)}, nil
}

// ExplainFile reports a file's role together with the import chain that
// makes it a library.
func (s *ClassifierService) ExplainFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExplainFileInput,
) (*mcp.CallToolResult, ExplainFileOutput, error) {
	if input.File == "" {
		return nil, ExplainFileOutput{}, fmt.Errorf("file is required")
	}
	report, err := s.scan(ctx, input.scanInput())
	if err != nil {
		return nil, ExplainFileOutput{}, err
	}
	x, err := report.Explain(input.File)
	if err != nil {
		return nil, ExplainFileOutput{}, err
	}
	return nil, ExplainFileOutput{Explanation: x}, nil
}

// ListFiles returns project-relative paths, optionally filtered by role.
func (s *ClassifierService) ListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	role := graph.Role(strings.ToLower(input.Role))
	if role != "" && role != graph.RoleLibrary && role != graph.RoleScript {
		return nil, ListFilesOutput{}, fmt.Errorf("unknown role %q", input.Role)
	}
	report, err := s.scan(ctx, input.scanInput())
	if err != nil {
		return nil, ListFilesOutput{}, err
	}

	e := export.BuildExport(report, false)
	var files []string
	switch role {
	case graph.RoleLibrary:
		files = e.Libraries
	case graph.RoleScript:
		files = e.Scripts
	default:
		files = append(append(files, e.Libraries...), e.Scripts...)
	}
	return nil, ListFilesOutput{Files: files, Total: len(files)}, nil
}

func (s *ClassifierService) scan(ctx context.Context, in ScanInput) (*engine.Report, error) {
	if in.ProjectRoot == "" {
		return nil, fmt.Errorf("projectRoot is required")
	}
	if len(in.Targets) == 0 {
		return nil, fmt.Errorf("targets is required")
	}

	key := cacheKey(in)
	if !in.Refresh {
		if r, ok := s.reports.Get(key); ok {
			s.logger.Debug("report cache hit", "root", in.ProjectRoot)
			return r, nil
		}
	}

	report, err := engine.Analyze(ctx, engine.Options{
		ProjectRoot: in.ProjectRoot,
		Targets:     in.Targets,
		Roots:       in.Roots,
		Exclude:     in.Exclude,
		Shallow:     in.Shallow,
		Concurrency: s.concurrency,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.reports.Add(key, report)
	return report, nil
}

func cacheKey(in ScanInput) string {
	var sb strings.Builder
	sb.WriteString(in.ProjectRoot)
	for _, group := range [][]string{in.Targets, in.Roots, in.Exclude} {
		sb.WriteByte(0)
		sb.WriteString(strings.Join(group, "\x1f"))
	}
	fmt.Fprintf(&sb, "\x00%t", in.Shallow)
	return sb.String()
}
