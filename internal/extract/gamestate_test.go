package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkg/internal/kg"
)

func sampleGameState() *GameState {
	return &GameState{
		Objective:   "unlock the chest",
		MaxScore:    3,
		HasScore:    true,
		Walkthrough: []string{"take key", "unlock chest with key"},
		AdmissibleCommands: []string{
			"go north",
			"dance wildly", // unrecognized verb, must be ignored
			"take key",     // duplicate of a walkthrough step
		},
		Rooms: []Room{{ID: "r1", Name: "kitchen", Type: "room"}},
		Objects: []Object{
			{ID: "o1", Name: "chest", TypeCode: "c"},
			{ID: "o2", Name: "key", TypeCode: "k"},
			{ID: "p1", Name: "you", TypeCode: "P"},
		},
		Player: &Player{ID: "p1", Room: "r1"},
	}
}

func TestGameStateGraphCounts(t *testing.T) {
	b := kg.NewBuilder()

	counts, err := GameStateGraph(b, sampleGameState(), "episode1", 20)
	require.NoError(t, err)

	// Scene 1; agent 1 + 3 states; room 1 + 3 states; chest 1 + 4 states;
	// key 1 + 3 states; 3 recognized actions with one result each.
	assert.Equal(t, 1+4+4+5+4+6, counts.NodesExtracted)
	assert.Equal(t, 2, counts.ObjectsProcessed)
	assert.Equal(t, b.NodeCount(), counts.NodesExtracted)
	assert.Equal(t, b.EdgeCount(), counts.EdgesExtracted)
}

func TestGameStateSceneAttributes(t *testing.T) {
	b := kg.NewBuilder()
	_, err := GameStateGraph(b, sampleGameState(), "episode1", 20)
	require.NoError(t, err)

	var scene kg.Node
	for _, n := range b.Nodes() {
		if n.Name == "episode1" {
			scene = n
		}
	}
	require.NotEmpty(t, scene.ID)
	assert.True(t, scene.Attrs["objective"].Equal(kg.String("unlock the chest")))
	assert.True(t, scene.Attrs["max_score"].Equal(kg.Int(3)))
	assert.True(t, scene.Attrs["walkthrough_steps"].Equal(kg.Int(2)))
}

func TestGameStateActionParsing(t *testing.T) {
	b := kg.NewBuilder()
	_, err := GameStateGraph(b, sampleGameState(), "episode1", 20)
	require.NoError(t, err)

	actions := make(map[string]kg.Node)
	for _, n := range b.Nodes() {
		if n.Kind == kg.NodeAction {
			actions[n.Name] = n
		}
	}
	require.Len(t, actions, 3)

	take := actions["take key"]
	assert.True(t, take.Attrs["target"].Equal(kg.String("key")))
	assert.True(t, take.Attrs["is_core_action"].Equal(kg.Bool(true)))

	unlock := actions["unlock chest with key"]
	assert.True(t, unlock.Attrs["target"].Equal(kg.String("chest")))
	assert.True(t, unlock.Attrs["instrument"].Equal(kg.String("key")))

	goNorth := actions["go north"]
	assert.True(t, goNorth.Attrs["direction"].Equal(kg.String("north")))
	assert.True(t, goNorth.Attrs["is_core_action"].Equal(kg.Bool(false)))

	// Every action produces exactly one result satellite.
	for _, a := range actions {
		results := 0
		for _, e := range b.Edges() {
			if e.Source != a.ID || e.Kind != kg.EdgeProduces {
				continue
			}
			target, ok := b.Node(e.Target)
			require.True(t, ok)
			if target.Kind == kg.NodeResult {
				results++
			}
		}
		assert.Equal(t, 1, results, "action %q", a.Name)
	}
}

func TestGameStateObjectStates(t *testing.T) {
	b := kg.NewBuilder()
	_, err := GameStateGraph(b, sampleGameState(), "episode1", 20)
	require.NoError(t, err)

	var chest kg.Node
	for _, n := range b.Nodes() {
		if n.Name == "chest" {
			chest = n
		}
	}
	require.NotEmpty(t, chest.ID)
	assert.True(t, chest.Attrs["entity_type"].Equal(kg.String("container")))
	assert.True(t, chest.Attrs["initial_state"].Equal(kg.String("closed")))

	states := make(map[string]bool)
	for _, e := range b.Edges() {
		if e.Source == chest.ID && e.Kind == kg.EdgeHasState {
			state, ok := b.Node(e.Target)
			require.True(t, ok)
			v, _ := state.Attrs["state_value"].AsString()
			states[v] = true
		}
	}
	assert.Equal(t, map[string]bool{"closed": true, "open": true, "locked": true, "unlocked": true}, states)
}

func TestGameStateActionEffectTransitions(t *testing.T) {
	b := kg.NewBuilder()
	_, err := GameStateGraph(b, sampleGameState(), "episode1", 20)
	require.NoError(t, err)

	transitions := make(map[string]string)
	for _, e := range b.Edges() {
		if e.Kind != kg.EdgeTransitions {
			continue
		}
		from, ok := b.Node(e.Source)
		require.True(t, ok)
		to, ok := b.Node(e.Target)
		require.True(t, ok)
		transitions[from.Name+" -> "+to.Name], _ = e.Attrs["action"].AsString()
	}

	// "take key" moves the key, "unlock chest with key" unlocks the
	// chest; "go north" has no target entity.
	assert.Equal(t, map[string]string{
		"key_obtainable -> key_taken":    "take key",
		"chest_locked -> chest_unlocked": "unlock chest with key",
	}, transitions)
}

func TestGameStateUnknownTypeCode(t *testing.T) {
	gs := sampleGameState()
	gs.Objects = append(gs.Objects, Object{ID: "o9", Name: "mystery", TypeCode: "z"})

	_, err := GameStateGraph(kg.NewBuilder(), gs, "episode1", 20)
	require.Error(t, err)

	var typeErr *UnknownTypeCodeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "z", typeErr.Code)
	assert.Contains(t, typeErr.Known, "c")
	assert.Contains(t, err.Error(), `"z"`)
}

func TestGameStateCommandCap(t *testing.T) {
	gs := &GameState{
		AdmissibleCommands: []string{"go north", "go south", "go east", "go west"},
	}
	b := kg.NewBuilder()

	_, err := GameStateGraph(b, gs, "episode1", 2)
	require.NoError(t, err)

	actions := 0
	for _, n := range b.Nodes() {
		if n.Kind == kg.NodeAction {
			actions++
		}
	}
	assert.Equal(t, 2, actions)
}

func TestParseGameState(t *testing.T) {
	data := []byte(`{
		"objective": "win",
		"max_score": 0,
		"walkthrough": ["take key"],
		"rooms": [{"id": "r1", "name": "kitchen", "type": "room"}],
		"objects": [{"id": "o1", "name": "chest", "type": "c"}],
		"player": {"id": "p1", "room": "r1"}
	}`)

	gs, err := ParseGameState(data)
	require.NoError(t, err)

	score, ok := gs.Score()
	assert.True(t, ok, "explicit zero score must count as present")
	assert.Equal(t, 0, score)

	_, ok = gs.Commands()
	assert.False(t, ok)

	player, ok := gs.PlayerRecord()
	require.True(t, ok)
	assert.Equal(t, "r1", player.Room)

	noScore, err := ParseGameState([]byte(`{"objective": "win"}`))
	require.NoError(t, err)
	_, ok = noScore.Score()
	assert.False(t, ok)
}
