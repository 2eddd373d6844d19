// Package kg implements the typed knowledge-graph model for game-world
// semantics: actions, entities, states, rules, results and conditions,
// connected by a closed set of relationship kinds. Graphs are multigraphs
// owned by a Builder; serialization lives in json.go and graphml.go.
package kg

// NodeKind is the closed set of node categories.
type NodeKind string

const (
	NodeAction    NodeKind = "action"
	NodeEntity    NodeKind = "entity"
	NodeState     NodeKind = "state"
	NodeRule      NodeKind = "rule"
	NodeResult    NodeKind = "result"
	NodeCondition NodeKind = "condition"
)

// NodeKinds lists every valid node kind.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeAction, NodeEntity, NodeState, NodeRule, NodeResult, NodeCondition}
}

// Valid reports whether k is one of the defined node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeAction, NodeEntity, NodeState, NodeRule, NodeResult, NodeCondition:
		return true
	}
	return false
}

// EdgeKind is the closed set of relationship categories.
type EdgeKind string

const (
	EdgeRequires    EdgeKind = "requires"
	EdgeProduces    EdgeKind = "produces"
	EdgeModifies    EdgeKind = "modifies"
	EdgeEnables     EdgeKind = "enables"
	EdgePrevents    EdgeKind = "prevents"
	EdgeTransitions EdgeKind = "transitions"
	EdgeContains    EdgeKind = "contains"
	EdgeHasState    EdgeKind = "has_state"
)

// Valid reports whether k is one of the defined edge kinds.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeRequires, EdgeProduces, EdgeModifies, EdgeEnables,
		EdgePrevents, EdgeTransitions, EdgeContains, EdgeHasState:
		return true
	}
	return false
}

// Node is a single typed graph node. Nodes are created once by a Builder
// call and never mutated through the API afterwards.
type Node struct {
	ID    string
	Kind  NodeKind
	Name  string
	Attrs Attrs
}

// Edge is a directed typed relationship between two node ids. The graph is
// a multigraph: several edges may connect the same ordered pair, including
// same-kind duplicates with different attributes.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
	Attrs  Attrs
}
