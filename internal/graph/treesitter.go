package graph

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// TreeSitterExtractor implements Extractor using the tree-sitter Python
// grammar. A new tree-sitter parser is created per Extract call, so one
// TreeSitterExtractor may be shared by concurrent goroutines.
type TreeSitterExtractor struct {
	language *tree_sitter.Language
	py       *pyExtractor
}

// NewTreeSitterExtractor creates a TreeSitterExtractor. When shallow is set
// only module top-level import statements are collected.
func NewTreeSitterExtractor(shallow bool) *TreeSitterExtractor {
	return &TreeSitterExtractor{
		language: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		py:       &pyExtractor{shallow: shallow},
	}
}

// Extract parses source and returns its import references in source order.
func (p *TreeSitterExtractor) Extract(ctx context.Context, file ProjectFile, source []byte) (*ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("set language python: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", file.RelPath)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return &ExtractResult{
			File:        file,
			Unparseable: true,
			Reason:      syntaxErrorReason(root),
		}, nil
	}

	return &ExtractResult{
		File: file,
		Refs: p.py.Extract(root, source),
	}, nil
}

// Close is a no-op because parsers are created per Extract call.
func (p *TreeSitterExtractor) Close() error {
	return nil
}

// syntaxErrorReason locates the first ERROR or MISSING node for diagnostics.
func syntaxErrorReason(root *tree_sitter.Node) string {
	cursor := root.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		if node.IsError() || node.IsMissing() {
			pos := node.StartPosition()
			return fmt.Sprintf("syntax error at line %d, column %d", pos.Row+1, pos.Column+1)
		}
		// Descend only into subtrees that contain the error.
		if node.HasError() && cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return "syntax error"
			}
		}
	}
}
