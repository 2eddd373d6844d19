package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkg/internal/kg"
)

func TestLayoutExtractsPositionedEntity(t *testing.T) {
	b := kg.NewBuilder()
	layout := map[string]kg.Value{
		"Cabinet|1.0|2.0|0.0": kg.Map(map[string]kg.Value{"open": kg.Bool(false)}),
	}

	counts := Layout(b, layout, "kitchen")

	// Scene, entity and availability state plus contains and has_state.
	assert.Equal(t, 3, counts.NodesExtracted)
	assert.Equal(t, 2, counts.EdgesExtracted)
	assert.Equal(t, 1, counts.ObjectsProcessed)
	assert.Equal(t, 3, b.NodeCount())
	assert.Equal(t, 2, b.EdgeCount())

	var cabinet kg.Node
	for _, n := range b.Nodes() {
		if n.Name == "Cabinet" {
			cabinet = n
		}
	}
	require.NotEmpty(t, cabinet.ID)
	assert.Equal(t, kg.NodeEntity, cabinet.Kind)
	assert.True(t, cabinet.Attrs["entity_type"].Equal(kg.String("furniture")))
	assert.True(t, cabinet.Attrs["position_x"].Equal(kg.Number(1)))
	assert.True(t, cabinet.Attrs["position_y"].Equal(kg.Number(2)))
	assert.True(t, cabinet.Attrs["position_z"].Equal(kg.Number(0)))
	assert.True(t, cabinet.Attrs["openable"].Equal(kg.Bool(true)))
	assert.True(t, cabinet.Attrs["receptacle"].Equal(kg.Bool(true)))
	assert.True(t, cabinet.Attrs["original_key"].Equal(kg.String("Cabinet|1.0|2.0|0.0")))
}

func TestLayoutClassifiesNonFurnitureAsObject(t *testing.T) {
	b := kg.NewBuilder()
	layout := map[string]kg.Value{
		"Apple|0.5|0.5|0.1": kg.String("raw"),
	}

	Layout(b, layout, "kitchen")

	var apple kg.Node
	for _, n := range b.Nodes() {
		if n.Name == "Apple" {
			apple = n
		}
	}
	require.NotEmpty(t, apple.ID)
	assert.True(t, apple.Attrs["entity_type"].Equal(kg.String("object")))
	assert.True(t, apple.Attrs["openable"].Equal(kg.Bool(false)))
}

func TestLayoutSkipsMalformedKeys(t *testing.T) {
	b := kg.NewBuilder()
	layout := map[string]kg.Value{
		"Cabinet|1.0":        kg.String("too few parts"),
		"Table|x|y|z":        kg.String("bad coordinates"),
		"Drawer|3.0|1.0|0.5": kg.String("good"),
	}

	counts := Layout(b, layout, "kitchen")

	assert.Equal(t, 1, counts.ObjectsProcessed)
	// Scene plus one entity and one state.
	assert.Equal(t, 3, b.NodeCount())
}

func TestLayoutStateNodeNaming(t *testing.T) {
	b := kg.NewBuilder()
	layout := map[string]kg.Value{
		"Fridge|0.0|0.0|0.0": kg.String("x"),
	}

	Layout(b, layout, "kitchen")

	var state kg.Node
	for _, n := range b.Nodes() {
		if n.Kind == kg.NodeState {
			state = n
		}
	}
	require.NotEmpty(t, state.ID)
	assert.Equal(t, "Fridge_available", state.Name)
	assert.True(t, state.Attrs["state_value"].Equal(kg.String("accessible")))
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout([]byte(`{"Cabinet|1.0|2.0|0.0": {"open": false}}`))
	require.NoError(t, err)
	require.Len(t, layout, 1)

	m, ok := layout["Cabinet|1.0|2.0|0.0"].AsMap()
	require.True(t, ok)
	assert.True(t, m["open"].Equal(kg.Bool(false)))

	_, err = ParseLayout([]byte("not json"))
	assert.Error(t, err)
}
