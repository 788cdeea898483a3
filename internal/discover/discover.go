// Package discover lists the Python files of a project tree and expands
// operator targets into discovered files.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dusk-indust/pycleaner/internal/graph"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"node_modules": true,
	".pycleaner":   true,
	".tox":         true,
}

// Options controls a walk.
type Options struct {
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root, e.g. "tests/**" or "**/migrations".
	Exclude []string
}

// Root normalizes a project root to an absolute, symlink-free directory.
func Root(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &graph.ConfigurationError{Reason: "invalid project root", Path: dir}
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", &graph.ConfigurationError{Reason: "project root is not a directory", Path: dir}
	}
	return abs, nil
}

// Walk returns every .py file under root sorted by relative path. root
// must already be normalized by Root.
func Walk(root string, opts Options) ([]graph.ProjectFile, error) {
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, &graph.ConfigurationError{Reason: "invalid exclude pattern", Path: p}
		}
	}

	var files []graph.ProjectFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || strings.HasPrefix(name, ".") || excluded(opts.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != graph.SourceExt || excluded(opts.Exclude, rel) {
			return nil
		}
		if !d.Type().IsRegular() {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}

		files = append(files, graph.ProjectFile{Path: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ExpandTargets maps operator targets, relative to root or absolute, to the
// absolute paths of discovered files. Directories expand to every discovered
// file beneath them. Repeated or nested targets collapse into one set.
func ExpandTargets(root string, targets []string, files []graph.ProjectFile) ([]string, error) {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		abs := t
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, t)
		}
		abs = filepath.Clean(abs)
		if !within(root, abs) {
			// root is symlink-free; the target may reach it through a link.
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}
		}

		if !within(root, abs) {
			return nil, &graph.ConfigurationError{Reason: "target outside project root", Path: t}
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, &graph.ConfigurationError{Reason: "target not found", Path: t}
		}

		if !info.IsDir() {
			if !known[abs] {
				return nil, &graph.ConfigurationError{Reason: "target is not a discovered source file", Path: t}
			}
			add(abs)
			continue
		}

		n := 0
		for _, f := range files {
			if within(abs, f.Path) {
				add(f.Path)
				n++
			}
		}
		if n == 0 {
			return nil, &graph.ConfigurationError{Reason: "target directory holds no discovered source files", Path: t}
		}
	}

	if len(out) == 0 {
		return nil, &graph.ConfigurationError{Reason: "empty target set"}
	}
	sort.Strings(out)
	return out, nil
}

// within reports whether path equals root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
