package kg

import (
	"fmt"
	"strconv"
	"strings"
)

// Builder owns the node and edge collections of one graph instance and is
// the only sanctioned mutation entry point. Ids are allocated by a single
// monotonic per-instance counter and are never reset or reused; there is no
// deletion operation.
//
// Builder is not safe for concurrent use; callers in multi-threaded
// environments must serialize access.
type Builder struct {
	nodes     map[string]Node
	nodeOrder []string
	edges     []Edge
	counter   int
}

// NewBuilder returns an empty graph instance.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]Node)}
}

// nextID allocates the next id for the given kind prefix, e.g. "action_3".
func (b *Builder) nextID(prefix string) string {
	b.counter++
	return fmt.Sprintf("%s_%d", prefix, b.counter)
}

// advanceCounter bumps the allocator past n. Used by the JSON importer so
// that ids added after a rehydration cannot collide with imported ones.
func (b *Builder) advanceCounter(n int) {
	if n > b.counter {
		b.counter = n
	}
}

func (b *Builder) insertNode(n Node) string {
	b.nodes[n.ID] = n
	b.nodeOrder = append(b.nodeOrder, n.ID)
	return n.ID
}

// AddActionNode adds an action node and returns its id.
func (b *Builder) AddActionNode(name string, attrs Attrs) string {
	if attrs == nil {
		attrs = Attrs{}
	}
	return b.insertNode(Node{ID: b.nextID("action"), Kind: NodeAction, Name: name, Attrs: attrs})
}

// AddEntityNode adds an entity node. The entity kind ("scene", "furniture",
// "object", "agent", ...) is stored in the attributes, not the node kind.
func (b *Builder) AddEntityNode(name, entityKind string, attrs Attrs) string {
	attrs = attrs.Clone()
	if attrs == nil {
		attrs = Attrs{}
	}
	attrs["entity_type"] = String(entityKind)
	return b.insertNode(Node{ID: b.nextID("entity"), Kind: NodeEntity, Name: name, Attrs: attrs})
}

// AddStateNode adds a state node carrying its state value as an attribute.
func (b *Builder) AddStateNode(name, stateValue string, attrs Attrs) string {
	attrs = attrs.Clone()
	if attrs == nil {
		attrs = Attrs{}
	}
	attrs["state_value"] = String(stateValue)
	return b.insertNode(Node{ID: b.nextID("state"), Kind: NodeState, Name: name, Attrs: attrs})
}

// AddRuleNode adds a rule node. Conditions and actions are recorded as rule
// attributes only; satellite condition/action nodes are the RuleBuilder's
// job, so empty lists here produce exactly one node and nothing else.
func (b *Builder) AddRuleNode(name, ruleKind string, conditions, actions []string, attrs Attrs) string {
	attrs = attrs.Clone()
	if attrs == nil {
		attrs = Attrs{}
	}
	attrs["rule_type"] = String(ruleKind)
	attrs["conditions"] = Strings(conditions...)
	attrs["actions"] = Strings(actions...)
	return b.insertNode(Node{ID: b.nextID("rule"), Kind: NodeRule, Name: name, Attrs: attrs})
}

// AddResultNode adds a result node carrying its outcome value.
func (b *Builder) AddResultNode(name, resultValue string, attrs Attrs) string {
	attrs = attrs.Clone()
	if attrs == nil {
		attrs = Attrs{}
	}
	attrs["result_value"] = String(resultValue)
	return b.insertNode(Node{ID: b.nextID("result"), Kind: NodeResult, Name: name, Attrs: attrs})
}

// AddConditionNode adds a condition node (used for rule satellites).
func (b *Builder) AddConditionNode(name string, attrs Attrs) string {
	if attrs == nil {
		attrs = Attrs{}
	}
	return b.insertNode(Node{ID: b.nextID("condition"), Kind: NodeCondition, Name: name, Attrs: attrs})
}

// AddEdge records a directed edge unconditionally. Endpoints are not
// checked for existence: an edge referencing an unknown id is kept and
// reported through DanglingEdges rather than dropped or rejected.
func (b *Builder) AddEdge(source, target string, kind EdgeKind, attrs Attrs) {
	if attrs == nil {
		attrs = Attrs{}
	}
	b.edges = append(b.edges, Edge{Source: source, Target: target, Kind: kind, Attrs: attrs})
}

// ImportNode inserts a node carrying an externally supplied id, as merges
// and the JSON importer produce. The allocator is advanced past any
// numeric suffix in the id so later additions cannot collide.
func (b *Builder) ImportNode(n Node) { b.importNode(n) }

func (b *Builder) importNode(n Node) {
	if _, exists := b.nodes[n.ID]; !exists {
		b.nodeOrder = append(b.nodeOrder, n.ID)
	}
	b.nodes[n.ID] = n
	if i := strings.LastIndex(n.ID, "_"); i >= 0 {
		if num, err := strconv.Atoi(n.ID[i+1:]); err == nil {
			b.advanceCounter(num)
		}
	}
}

// Node returns the node for id.
func (b *Builder) Node(id string) (Node, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (b *Builder) Nodes() []Node {
	out := make([]Node, 0, len(b.nodeOrder))
	for _, id := range b.nodeOrder {
		out = append(out, b.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (b *Builder) Edges() []Edge {
	out := make([]Edge, len(b.edges))
	copy(out, b.edges)
	return out
}

// NodeCount returns the number of nodes.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// EdgeCount returns the number of edges.
func (b *Builder) EdgeCount() int { return len(b.edges) }

// NodeIDs returns the raw id set in insertion order.
func (b *Builder) NodeIDs() []string {
	out := make([]string, len(b.nodeOrder))
	copy(out, b.nodeOrder)
	return out
}

// DanglingEdges lists edges whose source or target id does not resolve to a
// node in this instance. Such edges are legal but invisible to id-based
// consumers, so they are reportable here and counted in Statistics.
func (b *Builder) DanglingEdges() []Edge {
	var out []Edge
	for _, e := range b.edges {
		if _, ok := b.nodes[e.Source]; !ok {
			out = append(out, e)
			continue
		}
		if _, ok := b.nodes[e.Target]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// Pattern holds the node ids created by BuildActionStatePattern.
type Pattern struct {
	ActionID    string
	EntityID    string
	PreStateID  string
	PostStateID string
	ResultID    string // empty when no result name was given
}

// BuildActionStatePattern creates the canonical state-machine transition
// fragment: an action modifying an entity that moves from a pre-state to a
// post-state, optionally producing a result.
//
// Edges wired: action-[modifies]->entity, entity-[requires]->pre-state,
// action-[produces]->post-state, pre-state-[transitions]->post-state and,
// with a result name, action-[produces]->result.
func (b *Builder) BuildActionStatePattern(actionName, entityName, entityKind, preState, postState, resultName string) Pattern {
	p := Pattern{
		ActionID:    b.AddActionNode(actionName, nil),
		EntityID:    b.AddEntityNode(entityName, entityKind, nil),
		PreStateID:  b.AddStateNode(entityName+"_pre", preState, nil),
		PostStateID: b.AddStateNode(entityName+"_post", postState, nil),
	}
	if resultName != "" {
		p.ResultID = b.AddResultNode(resultName, "action_outcome", nil)
	}

	b.AddEdge(p.ActionID, p.EntityID, EdgeModifies, nil)
	b.AddEdge(p.EntityID, p.PreStateID, EdgeRequires, nil)
	b.AddEdge(p.ActionID, p.PostStateID, EdgeProduces, nil)
	b.AddEdge(p.PreStateID, p.PostStateID, EdgeTransitions, nil)
	if p.ResultID != "" {
		b.AddEdge(p.ActionID, p.ResultID, EdgeProduces, nil)
	}
	return p
}
