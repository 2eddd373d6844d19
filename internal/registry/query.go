package registry

import (
	"fmt"

	"worldkg/internal/kg"
)

// PathQuery asks for all simple directed paths from Source to Target with
// at most MaxLen hops. A zero MaxLen means the caller's configured default
// applies before the query reaches the registry.
type PathQuery struct {
	Source string
	Target string
	MaxLen int
}

// Query selects graph content. Empty fields match everything; set fields
// combine independently (kind filters fill Nodes/Edges, Path fills Paths).
type Query struct {
	NodeKind kg.NodeKind
	EdgeKind kg.EdgeKind
	Path     *PathQuery
}

// QueryResult is the answer to one Query.
type QueryResult struct {
	Nodes []kg.Node  `json:"nodes,omitempty"`
	Edges []kg.Edge  `json:"edges,omitempty"`
	Paths [][]string `json:"paths,omitempty"`
}

// RunQuery evaluates q against the named graph.
func (m *Manager) RunQuery(name string, q Query) (QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.graphs[name]
	if !ok {
		return QueryResult{}, fmt.Errorf("query %q: %w", name, ErrGraphNotFound)
	}
	b := entry.builder

	var res QueryResult
	if q.NodeKind != "" {
		if !q.NodeKind.Valid() {
			return res, fmt.Errorf("query %q: unknown node kind %q", name, q.NodeKind)
		}
		for _, n := range b.Nodes() {
			if n.Kind == q.NodeKind {
				res.Nodes = append(res.Nodes, n)
			}
		}
	}
	if q.EdgeKind != "" {
		if !q.EdgeKind.Valid() {
			return res, fmt.Errorf("query %q: unknown edge kind %q", name, q.EdgeKind)
		}
		for _, e := range b.Edges() {
			if e.Kind == q.EdgeKind {
				res.Edges = append(res.Edges, e)
			}
		}
	}
	if q.Path != nil {
		res.Paths = simplePaths(b, q.Path.Source, q.Path.Target, q.Path.MaxLen)
	}
	return res, nil
}

// simplePaths enumerates all simple directed paths from source to target
// within maxLen hops. Edges with unresolved endpoints are invisible here.
func simplePaths(b *kg.Builder, source, target string, maxLen int) [][]string {
	if _, ok := b.Node(source); !ok {
		return nil
	}
	if _, ok := b.Node(target); !ok {
		return nil
	}

	adj := make(map[string][]string)
	for _, e := range b.Edges() {
		if _, ok := b.Node(e.Source); !ok {
			continue
		}
		if _, ok := b.Node(e.Target); !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	var paths [][]string
	onPath := map[string]bool{source: true}
	path := []string{source}

	var walk func(node string)
	walk = func(node string) {
		if node == target {
			paths = append(paths, append([]string(nil), path...))
			return
		}
		if len(path)-1 >= maxLen {
			return
		}
		for _, next := range adj[node] {
			if onPath[next] {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
			onPath[next] = false
		}
	}
	walk(source)
	return paths
}
