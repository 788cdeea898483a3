package mcptools

import (
	"github.com/dusk-indust/pycleaner/internal/engine"
	"github.com/dusk-indust/pycleaner/internal/export"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ScanInput carries the scan options shared by every tool.
type ScanInput struct {
	ProjectRoot string
	Targets     []string
	Roots       []string
	Exclude     []string
	Shallow     bool
	Refresh     bool
}

// ClassifyProjectInput is the input for the classify_project MCP tool.
type ClassifyProjectInput struct {
	ProjectRoot string   `json:"projectRoot" jsonschema:"the absolute path to the Python project"`
	Targets     []string `json:"targets" jsonschema:"core files or directories, relative to projectRoot"`
	Roots       []string `json:"roots,omitempty" jsonschema:"extra search roots for absolute imports (e.g. src)"`
	Exclude     []string `json:"exclude,omitempty" jsonschema:"doublestar patterns of paths to skip (e.g. tests/**)"`
	Shallow     bool     `json:"shallow,omitempty" jsonschema:"only read module top-level import statements"`
	Refresh     bool     `json:"refresh,omitempty" jsonschema:"rescan even if a cached report exists"`
	AbsPaths    bool     `json:"absPaths,omitempty" jsonschema:"report absolute paths instead of project-relative ones"`
}

func (in ClassifyProjectInput) scanInput() ScanInput {
	return ScanInput{in.ProjectRoot, in.Targets, in.Roots, in.Exclude, in.Shallow, in.Refresh}
}

// ClassifyProjectOutput is the result of the classify_project MCP tool.
type ClassifyProjectOutput struct {
	Report *export.ReportExport `json:"report"`
}

// ExplainFileInput is the input for the explain_file MCP tool.
type ExplainFileInput struct {
	ProjectRoot string   `json:"projectRoot" jsonschema:"the absolute path to the Python project"`
	Targets     []string `json:"targets" jsonschema:"core files or directories, relative to projectRoot"`
	Roots       []string `json:"roots,omitempty" jsonschema:"extra search roots for absolute imports (e.g. src)"`
	Exclude     []string `json:"exclude,omitempty" jsonschema:"doublestar patterns of paths to skip (e.g. tests/**)"`
	Shallow     bool     `json:"shallow,omitempty" jsonschema:"only read module top-level import statements"`
	Refresh     bool     `json:"refresh,omitempty" jsonschema:"rescan even if a cached report exists"`
	File        string   `json:"file" jsonschema:"file to explain, relative to projectRoot"`
}

func (in ExplainFileInput) scanInput() ScanInput {
	return ScanInput{in.ProjectRoot, in.Targets, in.Roots, in.Exclude, in.Shallow, in.Refresh}
}

// ExplainFileOutput is the result of the explain_file MCP tool.
type ExplainFileOutput struct {
	Explanation *engine.Explanation `json:"explanation"`
}

// ListFilesInput is the input for the list_files MCP tool.
type ListFilesInput struct {
	ProjectRoot string   `json:"projectRoot" jsonschema:"the absolute path to the Python project"`
	Targets     []string `json:"targets" jsonschema:"core files or directories, relative to projectRoot"`
	Roots       []string `json:"roots,omitempty" jsonschema:"extra search roots for absolute imports (e.g. src)"`
	Exclude     []string `json:"exclude,omitempty" jsonschema:"doublestar patterns of paths to skip (e.g. tests/**)"`
	Shallow     bool     `json:"shallow,omitempty" jsonschema:"only read module top-level import statements"`
	Refresh     bool     `json:"refresh,omitempty" jsonschema:"rescan even if a cached report exists"`
	Role        string   `json:"role,omitempty" jsonschema:"filter by role: library or script (empty lists both)"`
}

func (in ListFilesInput) scanInput() ScanInput {
	return ScanInput{in.ProjectRoot, in.Targets, in.Roots, in.Exclude, in.Shallow, in.Refresh}
}

// ListFilesOutput is the result of the list_files MCP tool.
type ListFilesOutput struct {
	Files []string `json:"files"`
	Total int      `json:"total"`
}
