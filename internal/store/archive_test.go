package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkg/internal/kg"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "worldkg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleBuilder() *kg.Builder {
	b := kg.NewBuilder()
	action := b.AddActionNode("open", nil)
	entity := b.AddEntityNode("door", "door", kg.Attrs{"room": kg.String("hall")})
	b.AddEdge(action, entity, kg.EdgeModifies, nil)
	return b
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	a := newTestArchive(t)
	b := sampleBuilder()

	id, err := a.SaveSnapshot("hall", "layout", b)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored, info, err := a.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "hall", info.GraphName)
	assert.Equal(t, "layout", info.Kind)
	assert.Equal(t, 2, info.NodeCount)
	assert.Equal(t, 1, info.EdgeCount)
	assert.Equal(t, b.NodeCount(), restored.NodeCount())
	assert.Equal(t, b.EdgeCount(), restored.EdgeCount())

	node, ok := restored.Node("entity_2")
	require.True(t, ok)
	assert.True(t, node.Attrs["room"].Equal(kg.String("hall")))
}

func TestLoadMissingSnapshot(t *testing.T) {
	a := newTestArchive(t)

	_, _, err := a.LoadSnapshot("no-such-id")
	assert.Error(t, err)
}

func TestLatestSnapshot(t *testing.T) {
	a := newTestArchive(t)

	first := kg.NewBuilder()
	first.AddActionNode("v1", nil)
	_, err := a.SaveSnapshot("g", "layout", first)
	require.NoError(t, err)

	second := kg.NewBuilder()
	second.AddActionNode("v2", nil)
	second.AddActionNode("v2b", nil)
	_, err = a.SaveSnapshot("g", "layout", second)
	require.NoError(t, err)

	restored, info, err := a.LatestSnapshot("g")
	require.NoError(t, err)
	assert.Equal(t, 2, info.NodeCount)
	assert.Equal(t, 2, restored.NodeCount())

	_, _, err = a.LatestSnapshot("unknown")
	assert.Error(t, err)
}

func TestListSnapshots(t *testing.T) {
	a := newTestArchive(t)

	_, err := a.SaveSnapshot("g1", "layout", sampleBuilder())
	require.NoError(t, err)
	_, err = a.SaveSnapshot("g2", "pddl", sampleBuilder())
	require.NoError(t, err)

	all, err := a.ListSnapshots("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := a.ListSnapshots("g1")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "g1", only[0].GraphName)
}

func TestLogExperience(t *testing.T) {
	a := newTestArchive(t)

	payload := map[string]any{"effects": []string{"door opened"}}
	require.NoError(t, a.LogExperience("g", 1, 1, payload))
	require.NoError(t, a.LogExperience("g", 0, 2, payload))
}
