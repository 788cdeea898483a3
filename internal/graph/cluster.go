package graph

import (
	"sort"
	"strings"
)

// ScriptClusters finds connected components among scripts in the
// undirected import graph. Components with fewer than two files are
// dropped. Members are project-relative and sorted; clusters are ordered
// by name.
//
// A cluster is dead code that only imports itself and can be reviewed as
// a unit.
func ScriptClusters(g *Graph, cls *Classification) []ClusterNode {
	adj := buildAdjacency(g, cls)

	visited := make(map[int]bool, len(adj))
	var clusters []ClusterNode

	for i := 0; i < g.Len(); i++ {
		if cls.Role(i) != RoleScript || visited[i] {
			continue
		}
		component := bfsComponent(i, adj, visited)
		if len(component) < 2 {
			continue
		}
		members := make([]string, 0, len(component))
		for _, n := range component {
			members = append(members, g.File(n).RelPath)
		}
		sort.Strings(members)
		clusters = append(clusters, ClusterNode{
			Name:    clusterName(members),
			Members: members,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Name != clusters[j].Name {
			return clusters[i].Name < clusters[j].Name
		}
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}

// buildAdjacency constructs a bidirectional adjacency list over script
// nodes only.
func buildAdjacency(g *Graph, cls *Classification) map[int]map[int]bool {
	adj := make(map[int]map[int]bool)
	for i := 0; i < g.Len(); i++ {
		if cls.Role(i) == RoleScript {
			adj[i] = make(map[int]bool)
		}
	}
	for from := range adj {
		for _, to := range g.Successors(from) {
			if to == from || adj[to] == nil {
				continue
			}
			adj[from][to] = true
			adj[to][from] = true
		}
	}
	return adj
}

// bfsComponent performs BFS from start on the adjacency list and returns
// all reachable nodes. It marks visited nodes as it goes.
func bfsComponent(start int, adj map[int]map[int]bool, visited map[int]bool) []int {
	var component []int
	queue := []int{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return component
}

// clusterName is the members' common directory, or "." at the root.
func clusterName(paths []string) string {
	prefix := longestCommonPrefix(paths)
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return "."
	}
	return prefix
}

// longestCommonPrefix finds the longest common directory prefix among a set
// of slash-separated paths, including the trailing slash. Returns an empty
// string if no common prefix is found.
func longestCommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	prefix := paths[0]
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		prefix = prefix[:idx+1]
	} else {
		return ""
	}

	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			trimmed := strings.TrimSuffix(prefix, "/")
			idx := strings.LastIndex(trimmed, "/")
			if idx < 0 {
				return ""
			}
			prefix = trimmed[:idx+1]
		}
	}
	return prefix
}
