package graph

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Resolver maps module references to project files. It is built once per
// run from the project root, the search roots and the set of discovered
// files, and never touches the filesystem afterwards.
type Resolver struct {
	projectRoot string
	roots       []string
	fileSet     map[string]bool
	slashPaths  []string // sorted, for hint lookups
}

// NewResolver builds a Resolver. roots are absolute search roots for
// absolute imports; when empty the project root is the only one.
func NewResolver(projectRoot string, roots []string, files []ProjectFile) *Resolver {
	r := &Resolver{
		projectRoot: filepath.Clean(projectRoot),
		fileSet:     make(map[string]bool, len(files)),
		slashPaths:  make([]string, 0, len(files)),
	}

	seen := make(map[string]bool)
	for _, root := range roots {
		root = filepath.Clean(root)
		if !seen[root] {
			seen[root] = true
			r.roots = append(r.roots, root)
		}
	}
	if len(r.roots) == 0 {
		r.roots = []string{r.projectRoot}
	}

	for _, f := range files {
		r.fileSet[f.Path] = true
		r.slashPaths = append(r.slashPaths, filepath.ToSlash(f.Path))
	}
	sort.Strings(r.slashPaths)

	return r
}

// Roots returns the search roots used for absolute imports.
func (r *Resolver) Roots() []string {
	return slices.Clone(r.roots)
}

// Resolve returns every project file ref could denote when imported from
// importer. For `from M import n` both M and the submodule M.n are probed.
func (r *Resolver) Resolve(ref ModuleReference, importer ProjectFile) Resolution {
	res := Resolution{Ref: ref}

	anchors := r.anchors(ref, importer)
	if len(anchors) == 0 {
		return res
	}

	seen := make(map[string]bool)
	probe := func(module string, segments []string) {
		var hits []string
		for _, anchor := range anchors {
			if path, ok := r.descend(anchor, segments); ok && !slices.Contains(hits, path) {
				hits = append(hits, path)
			}
		}
		if len(hits) > 1 {
			res.Ambiguous = append(res.Ambiguous, AmbiguousMatch{Module: module, Candidates: hits})
		}
		for _, h := range hits {
			if !seen[h] {
				seen[h] = true
				res.Candidates = append(res.Candidates, h)
			}
		}
	}

	// A bare absolute reference has no segments and denotes nothing.
	if ref.IsRelative() || len(ref.Segments) > 0 {
		probe(ref.Text, ref.Segments)
	}

	for _, name := range ref.Names {
		if name == "*" {
			continue
		}
		sub := append(slices.Clone(ref.Segments), strings.Split(name, ".")...)
		module := ref.Text + "." + name
		if strings.HasSuffix(ref.Text, ".") || ref.Text == "" {
			module = ref.Text + name
		}
		probe(module, sub)
	}

	return res
}

// anchors returns the directories a reference is resolved against.
// Level 1 is the importer's own package; each extra level walks up once.
// Walking above the project root yields no anchor.
func (r *Resolver) anchors(ref ModuleReference, importer ProjectFile) []string {
	if !ref.IsRelative() {
		return r.roots
	}

	dir := filepath.Dir(importer.Path)
	if !isWithin(r.projectRoot, dir) {
		return nil
	}
	for i := 1; i < ref.Level; i++ {
		if dir == r.projectRoot {
			return nil
		}
		dir = filepath.Dir(dir)
	}
	return []string{dir}
}

// descend walks segments down from anchor. Intermediate segments must be
// packages; the last one is a package or a module file, in that order.
func (r *Resolver) descend(anchor string, segments []string) (string, bool) {
	if len(segments) == 0 {
		marker := filepath.Join(anchor, PackageMarker)
		return marker, r.fileSet[marker]
	}

	dir := anchor
	for _, seg := range segments[:len(segments)-1] {
		dir = filepath.Join(dir, seg)
		if !r.fileSet[filepath.Join(dir, PackageMarker)] {
			return "", false
		}
	}

	last := segments[len(segments)-1]
	if marker := filepath.Join(dir, last, PackageMarker); r.fileSet[marker] {
		return marker, true
	}
	if module := filepath.Join(dir, last+SourceExt); r.fileSet[module] {
		return module, true
	}
	return "", false
}

// Hints lists project files whose path ends like ref's dotted path, falling
// back to the parent path. They hint at a missing search root and never
// become edges.
func (r *Resolver) Hints(ref ModuleReference) []string {
	segments := ref.Segments
	for len(segments) > 0 {
		suffix := strings.Join(segments, "/")
		var hits []string
		for _, p := range r.slashPaths {
			if hasPathSuffix(p, suffix+SourceExt) || hasPathSuffix(p, suffix+"/"+PackageMarker) {
				hits = append(hits, filepath.FromSlash(p))
			}
		}
		if len(hits) > 0 {
			return hits
		}
		segments = segments[:len(segments)-1]
	}
	return nil
}

// hasPathSuffix reports whether p ends with suffix at a path boundary.
func hasPathSuffix(p, suffix string) bool {
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}

// isWithin reports whether path equals root or lies below it.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ParseReference rebuilds a ModuleReference from its raw text, e.g.
// "..pkg.mod". Names and Line are left empty.
func ParseReference(text string) ModuleReference {
	ref := ModuleReference{Text: text}
	rest := strings.TrimLeft(text, ".")
	ref.Level = len(text) - len(rest)
	if rest != "" {
		ref.Segments = strings.Split(rest, ".")
	}
	return ref
}
