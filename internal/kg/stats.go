package kg

// Statistics is a read-only aggregate over one graph instance.
type Statistics struct {
	TotalNodes      int              `json:"total_nodes"`
	TotalEdges      int              `json:"total_edges"`
	NodeKindCounts  map[NodeKind]int `json:"node_kinds"`
	EdgeKindCounts  map[EdgeKind]int `json:"edge_kinds"`
	Density         float64          `json:"density"`
	WeaklyConnected bool             `json:"is_weakly_connected"`
	DanglingEdges   int              `json:"dangling_edges"`
}

// Statistics computes the aggregate counts for this instance. Density is
// the directed-graph density e/(n*(n-1)); a graph with fewer than two nodes
// has density 0. Weak connectivity treats edges as undirected and only
// considers edges whose endpoints resolve.
func (b *Builder) Statistics() Statistics {
	s := Statistics{
		TotalNodes:     len(b.nodes),
		TotalEdges:     len(b.edges),
		NodeKindCounts: make(map[NodeKind]int),
		EdgeKindCounts: make(map[EdgeKind]int),
	}
	for _, n := range b.nodes {
		s.NodeKindCounts[n.Kind]++
	}
	for _, e := range b.edges {
		s.EdgeKindCounts[e.Kind]++
	}
	if n := len(b.nodes); n > 1 {
		s.Density = float64(len(b.edges)) / float64(n*(n-1))
	}
	s.WeaklyConnected = b.weaklyConnected()
	s.DanglingEdges = len(b.DanglingEdges())
	return s
}

// weaklyConnected runs a union-find over the undirected view of the graph.
func (b *Builder) weaklyConnected() bool {
	if len(b.nodes) == 0 {
		return false
	}
	if len(b.nodes) == 1 {
		return true
	}

	parent := make(map[string]string, len(b.nodes))
	for id := range b.nodes {
		parent[id] = id
	}
	var find func(string) string
	find = func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, c string) {
		ra, rc := find(a), find(c)
		if ra != rc {
			parent[ra] = rc
		}
	}

	for _, e := range b.edges {
		if _, ok := b.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := b.nodes[e.Target]; !ok {
			continue
		}
		union(e.Source, e.Target)
	}

	root := ""
	for id := range b.nodes {
		r := find(id)
		if root == "" {
			root = r
		} else if r != root {
			return false
		}
	}
	return true
}
