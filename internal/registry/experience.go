package registry

import (
	"fmt"

	"go.uber.org/zap"

	"worldkg/internal/kg"
)

// StateTransition records one observed action moving an entity between
// states during play.
type StateTransition struct {
	Action     string `json:"action"`
	Entity     string `json:"entity"`
	EntityKind string `json:"entity_kind,omitempty"`
	FromState  string `json:"from_state"`
	ToState    string `json:"to_state"`
	Result     string `json:"result,omitempty"`
}

// ActionEffect records one observed consequence of an action.
type ActionEffect struct {
	Action string `json:"action"`
	Effect string `json:"effect"`
}

// Experience is one gameplay episode's worth of observations to fold back
// into a graph.
type Experience struct {
	Transitions []StateTransition `json:"state_transitions,omitempty"`
	Effects     []ActionEffect    `json:"action_effects,omitempty"`
}

// UpdateFromExperience folds observed gameplay back into the named graph.
// Each state transition becomes a full action-state pattern; each action
// effect becomes a learned result node produced by the matching action
// node, creating the action when the graph has not seen it yet.
func (m *Manager) UpdateFromExperience(name string, exp Experience) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.graphs[name]
	if !ok {
		return fmt.Errorf("update %q: %w", name, ErrGraphNotFound)
	}
	b := entry.builder

	for _, t := range exp.Transitions {
		kind := t.EntityKind
		if kind == "" {
			kind = "object"
		}
		b.BuildActionStatePattern(t.Action, t.Entity, kind, t.FromState, t.ToState, t.Result)
	}

	for _, e := range exp.Effects {
		actionID := findActionByName(b, e.Action)
		if actionID == "" {
			actionID = b.AddActionNode(e.Action, kg.Attrs{
				"learned": kg.Bool(true),
			})
		}
		resultID := b.AddResultNode(e.Action+"_effect", e.Effect, kg.Attrs{
			"learned": kg.Bool(true),
		})
		b.AddEdge(actionID, resultID, kg.EdgeProduces, kg.Attrs{
			"relationship": kg.String("learned_effect"),
		})
	}

	entry.meta.LastUpdated = m.now().UTC()
	m.log.Info("experience applied",
		zap.String("graph", name),
		zap.Int("transitions", len(exp.Transitions)),
		zap.Int("effects", len(exp.Effects)))
	return nil
}

// findActionByName returns the first action node with the given name, in
// insertion order, or "".
func findActionByName(b *kg.Builder, name string) string {
	for _, n := range b.Nodes() {
		if n.Kind == kg.NodeAction && n.Name == name {
			return n.ID
		}
	}
	return ""
}
