package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor collects module references from a parsed Python tree.
type pyExtractor struct {
	shallow bool
}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) []ModuleReference {
	var refs []ModuleReference

	if e.shallow {
		for i := uint(0); i < root.NamedChildCount(); i++ {
			if child := root.NamedChild(i); child != nil {
				e.visit(child, source, &refs)
			}
		}
		return refs
	}

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &refs)
	return refs
}

func (e *pyExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, refs *[]ModuleReference) {
	if e.visit(cursor.Node(), source, refs) {
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, refs)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, refs)
		}
		cursor.GotoParent()
	}
}

// visit appends the references of an import statement and reports whether
// node was one.
func (e *pyExtractor) visit(node *tree_sitter.Node, source []byte, refs *[]ModuleReference) bool {
	switch node.Kind() {
	case "import_statement":
		*refs = append(*refs, e.extractImport(node, source)...)
		return true

	case "import_from_statement":
		if ref := e.extractFromImport(node, source); ref != nil {
			*refs = append(*refs, *ref)
		}
		return true

	case "future_import_statement":
		// Compiler directive, not a module dependency.
		return true
	}
	return false
}

// extractImport handles `import a.b, c as d`, one reference per distinct path.
func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte) []ModuleReference {
	var refs []ModuleReference
	seen := make(map[string]bool)
	line := int(node.StartPosition().Row) + 1

	for i := uint(0); i < node.NamedChildCount(); i++ {
		segments := importedSegments(node.NamedChild(i), source)
		if len(segments) == 0 {
			continue
		}
		text := strings.Join(segments, ".")
		if seen[text] {
			continue
		}
		seen[text] = true
		refs = append(refs, ModuleReference{
			Segments: segments,
			Text:     text,
			Line:     line,
		})
	}
	return refs
}

// extractFromImport handles `from [dots][a.b] import x, y as z` and
// `from a import *`.
func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte) *ModuleReference {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}

	ref := &ModuleReference{Line: int(node.StartPosition().Row) + 1}

	switch moduleNode.Kind() {
	case "relative_import":
		for i := uint(0); i < moduleNode.NamedChildCount(); i++ {
			child := moduleNode.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "import_prefix":
				ref.Level = strings.Count(child.Utf8Text(source), ".")
			case "dotted_name":
				ref.Segments = dottedSegments(child, source)
			}
		}
		if ref.Level == 0 {
			return nil
		}
	case "dotted_name":
		ref.Segments = dottedSegments(moduleNode, source)
		if len(ref.Segments) == 0 {
			return nil
		}
	default:
		return nil
	}

	// Imported names follow the module node.
	moduleEnd := moduleNode.EndByte()
	seen := make(map[string]bool)
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.StartByte() < moduleEnd {
			continue
		}
		var name string
		if child.Kind() == "wildcard_import" {
			name = "*"
		} else {
			name = strings.Join(importedSegments(child, source), ".")
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		ref.Names = append(ref.Names, name)
	}

	ref.Text = strings.Repeat(".", ref.Level) + strings.Join(ref.Segments, ".")
	return ref
}

// importedSegments returns the dotted path of a dotted_name or the name
// part of an aliased_import.
func importedSegments(node *tree_sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "dotted_name":
		return dottedSegments(node, source)
	case "aliased_import":
		return dottedSegments(node.ChildByFieldName("name"), source)
	}
	return nil
}

// dottedSegments joins identifiers structurally so `a . b` reads as a.b.
func dottedSegments(node *tree_sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	var segments []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "identifier" {
			segments = append(segments, child.Utf8Text(source))
		}
	}
	return segments
}
