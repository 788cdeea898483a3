package graph

import "context"

// ExtractResult holds the module references found in a single file.
type ExtractResult struct {
	File ProjectFile       `json:"file"`
	Refs []ModuleReference `json:"refs"` // source order

	// Unparseable is set when the text has syntax errors. Refs is empty then.
	Unparseable bool   `json:"unparseable,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Extractor pulls import references out of source files.
// Implementations: TreeSitterExtractor (production), stubExtractor (testing).
type Extractor interface {
	// Extract parses source and returns the references it imports. A syntax
	// error is reported through ExtractResult.Unparseable, not as an error.
	Extract(ctx context.Context, file ProjectFile, source []byte) (*ExtractResult, error)

	// Close releases parser resources (Tree-sitter C memory).
	Close() error
}
