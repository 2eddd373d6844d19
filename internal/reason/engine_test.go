package reason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkg/internal/kg"
)

func hydratedEngine(t *testing.T) (*Engine, *kg.Builder) {
	t.Helper()

	b := kg.NewBuilder()
	action := b.AddActionNode("open chest", nil)
	entity := b.AddEntityNode("chest", "container", nil)
	closed := b.AddStateNode("chest_closed", "closed", nil)
	open := b.AddStateNode("chest_open", "open", nil)
	result := b.AddResultNode("chest_opened", "opened", nil)
	b.AddEdge(action, entity, kg.EdgeModifies, nil)
	b.AddEdge(entity, closed, kg.EdgeHasState, nil)
	b.AddEdge(closed, open, kg.EdgeTransitions, nil)
	b.AddEdge(action, result, kg.EdgeProduces, nil)

	e, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.Hydrate(b))
	return e, b
}

func TestNewEngineCompilesSchema(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	assert.Zero(t, e.FactCount())

	// Every declared predicate carries a mode, so each is queryable.
	for _, pred := range []string{"node", "edge", "attr", "reachable",
		"action_result", "transition", "rule_prevents", "condition_enables",
		"entity_state"} {
		sym, ok := e.predicateIndex[pred]
		require.True(t, ok, "predicate %q", pred)
		decl := e.queryContext.PredToDecl[sym]
		require.NotNil(t, decl, "predicate %q", pred)
		assert.NotEmpty(t, decl.Modes(), "predicate %q", pred)
	}
}

func TestHydrateAssertsBaseFacts(t *testing.T) {
	e, b := hydratedEngine(t)

	// One node fact per node, one edge fact per edge, plus one attr fact
	// per scalar attribute (entity_type, state_value x2, result_value).
	want := b.NodeCount() + b.EdgeCount() + 4
	assert.Equal(t, want, e.FactCount())
}

func TestQueryBaseFacts(t *testing.T) {
	e, b := hydratedEngine(t)

	res, err := e.Query(context.Background(), "node(Id, Kind, Name)")
	require.NoError(t, err)
	assert.Len(t, res.Bindings, b.NodeCount())

	res, err = e.Query(context.Background(), `node(Id, "action", Name)`)
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "open chest", res.Bindings[0]["Name"])
}

func TestQueryDerivedPredicates(t *testing.T) {
	e, _ := hydratedEngine(t)

	res, err := e.Query(context.Background(), "action_result(A, R)")
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "action_1", res.Bindings[0]["A"])
	assert.Equal(t, "result_5", res.Bindings[0]["R"])

	res, err = e.Query(context.Background(), "transition(From, To)")
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "state_3", res.Bindings[0]["From"])

	// The action reaches the open state through entity and closed state.
	res, err = e.Query(context.Background(), `reachable("action_1", "state_4")`)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Bindings)
}

func TestQueryRejectsUnknownPredicate(t *testing.T) {
	e, _ := hydratedEngine(t)

	_, err := e.Query(context.Background(), "flying_carpet(X)")
	assert.Error(t, err)

	_, err = e.Query(context.Background(), "")
	assert.Error(t, err)
}

func TestHydrateReplacesPreviousFacts(t *testing.T) {
	e, _ := hydratedEngine(t)

	small := kg.NewBuilder()
	small.AddActionNode("wait", nil)
	require.NoError(t, e.Hydrate(small))

	res, err := e.Query(context.Background(), "node(Id, Kind, Name)")
	require.NoError(t, err)
	assert.Len(t, res.Bindings, 1)
}
