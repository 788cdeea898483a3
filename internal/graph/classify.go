package graph

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Classification partitions every node of a graph into libraries, the
// files reachable from the targets, and scripts, everything else. Paths
// are absolute and sorted.
type Classification struct {
	Targets   []string `json:"targets"`
	Libraries []string `json:"libraries"`
	Scripts   []string `json:"scripts"`

	reached *roaring.Bitmap
}

// Role returns the role of an indexed node.
func (c *Classification) Role(i int) Role {
	if c.reached != nil && c.reached.Contains(uint32(i)) {
		return RoleLibrary
	}
	return RoleScript
}

// Classify runs a breadth-first traversal from all targets at once and
// splits the graph into libraries and scripts. Each node is expanded at
// most once, so cycles terminate.
func Classify(g *Graph, targets []string) (*Classification, error) {
	if len(targets) == 0 {
		return nil, &ConfigurationError{Reason: "empty target set"}
	}

	reached := roaring.New()
	queue := make([]int, 0, len(targets))
	seenTargets := make(map[string]bool, len(targets))
	var targetPaths []string

	for _, t := range targets {
		i, ok := g.Index(t)
		if !ok {
			return nil, &ConfigurationError{Reason: "target not among discovered files", Path: t}
		}
		if seenTargets[t] {
			continue
		}
		seenTargets[t] = true
		targetPaths = append(targetPaths, t)
		if reached.CheckedAdd(uint32(i)) {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, s := range g.Successors(n) {
			if reached.CheckedAdd(uint32(s)) {
				queue = append(queue, s)
			}
		}
	}

	cls := &Classification{reached: reached}
	for i := 0; i < g.Len(); i++ {
		if reached.Contains(uint32(i)) {
			cls.Libraries = append(cls.Libraries, g.File(i).Path)
		} else {
			cls.Scripts = append(cls.Scripts, g.File(i).Path)
		}
	}
	sort.Strings(targetPaths)
	sort.Strings(cls.Libraries)
	sort.Strings(cls.Scripts)
	cls.Targets = targetPaths
	return cls, nil
}

// ImportChain returns the shortest import path from any target to path,
// target first. It is nil when path is not reachable.
func ImportChain(g *Graph, targets []string, path string) []string {
	goal, ok := g.Index(path)
	if !ok {
		return nil
	}

	parent := make(map[int]int, g.Len())
	var queue []int
	for _, t := range targets {
		i, ok := g.Index(t)
		if !ok {
			continue
		}
		if _, seen := parent[i]; seen {
			continue
		}
		parent[i] = -1
		queue = append(queue, i)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == goal {
			var chain []string
			for cur := n; cur != -1; cur = parent[cur] {
				chain = append(chain, g.File(cur).Path)
			}
			for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
				chain[l], chain[r] = chain[r], chain[l]
			}
			return chain
		}
		for _, s := range g.Successors(n) {
			if _, seen := parent[s]; !seen {
				parent[s] = n
				queue = append(queue, s)
			}
		}
	}
	return nil
}
