package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"worldkg/internal/kg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type ManagerSuite struct {
	suite.Suite
	m *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.m = NewManager()
}

func (s *ManagerSuite) TestCreateAndGet() {
	b, err := s.m.Create("kitchen", "layout", map[string]string{"source": "test"})
	s.Require().NoError(err)
	s.Require().NotNil(b)

	got, err := s.m.Get("kitchen")
	s.Require().NoError(err)
	s.Same(b, got)

	infos := s.m.List()
	s.Require().Len(infos, 1)
	s.Equal("kitchen", infos[0].Name)
	s.Equal("layout", infos[0].Meta.Kind)
	s.NotEmpty(infos[0].Meta.UUID)
	s.False(infos[0].Meta.CreatedAt.IsZero())
}

func (s *ManagerSuite) TestCreateDuplicateFails() {
	_, err := s.m.Create("kitchen", "layout", nil)
	s.Require().NoError(err)

	_, err = s.m.Create("kitchen", "pddl", nil)
	s.Require().Error(err)
	s.ErrorIs(err, ErrGraphExists)
}

func (s *ManagerSuite) TestGetUnknownFails() {
	_, err := s.m.Get("nope")
	s.ErrorIs(err, ErrGraphNotFound)

	_, err = s.m.Stats("nope")
	s.ErrorIs(err, ErrGraphNotFound)
}

func (s *ManagerSuite) TestMergeUnionPrefixesIDs() {
	a, err := s.m.Create("a", "layout", nil)
	s.Require().NoError(err)
	aAction := a.AddActionNode("open", nil)
	aEntity := a.AddEntityNode("door", "door", nil)
	a.AddEdge(aAction, aEntity, kg.EdgeModifies, nil)

	b, err := s.m.Create("b", "layout", nil)
	s.Require().NoError(err)
	bAction := b.AddActionNode("close", nil)
	bEntity := b.AddEntityNode("door", "door", nil)
	b.AddEdge(bAction, bEntity, kg.EdgeModifies, nil)

	s.Require().NoError(s.m.MergeUnion("merged", []string{"a", "b"}))

	merged, err := s.m.Get("merged")
	s.Require().NoError(err)
	s.Equal(4, merged.NodeCount())
	s.Equal(2, merged.EdgeCount())

	node, ok := merged.Node("a_" + aAction)
	s.Require().True(ok)
	s.Equal("open", node.Name)
	s.True(node.Attrs["source_graph"].Equal(kg.String("a")))

	_, ok = merged.Node("b_" + bAction)
	s.True(ok)
	s.Empty(merged.DanglingEdges())
}

func (s *ManagerSuite) TestMergeUnionMissingSource() {
	_, err := s.m.Create("a", "layout", nil)
	s.Require().NoError(err)

	err = s.m.MergeUnion("merged", []string{"a", "ghost"})
	s.ErrorIs(err, ErrGraphNotFound)

	// The failed merge must not leave a half-registered target behind.
	_, err = s.m.Get("merged")
	s.ErrorIs(err, ErrGraphNotFound)
}

func (s *ManagerSuite) TestMergeIntersectionKeepsSharedIDs() {
	a, err := s.m.Create("a", "layout", nil)
	s.Require().NoError(err)
	// Raw ids line up across sources: action_1 and entity_2 in both.
	aN1 := a.AddActionNode("open", nil)
	aN2 := a.AddEntityNode("door", "door", nil)
	a.AddEdge(aN1, aN2, kg.EdgeModifies, nil)
	a.AddStateNode("only in a", "x", nil)

	b, err := s.m.Create("b", "layout", nil)
	s.Require().NoError(err)
	bN1 := b.AddActionNode("open elsewhere", nil)
	bN2 := b.AddEntityNode("door", "door", nil)
	b.AddEdge(bN1, bN2, kg.EdgeModifies, nil)

	s.Require().NoError(s.m.MergeIntersection("common", []string{"a", "b"}))

	common, err := s.m.Get("common")
	s.Require().NoError(err)
	s.Equal(2, common.NodeCount())
	// The intersection is a pure node overlap; edges are never copied,
	// even when both sources hold the same edge.
	s.Equal(0, common.EdgeCount())

	// Payloads come from the first source, ids stay raw.
	node, ok := common.Node(aN1)
	s.Require().True(ok)
	s.Equal("open", node.Name)
}

func (s *ManagerSuite) TestMergeMetadataRecordsSources() {
	_, err := s.m.Create("a", "layout", nil)
	s.Require().NoError(err)
	_, err = s.m.Create("b", "pddl", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.m.MergeUnion("merged", []string{"a", "b"}))
	s.Require().NoError(s.m.MergeIntersection("common", []string{"a", "b"}))

	for name, strategy := range map[string]string{"merged": "union", "common": "intersection"} {
		var meta Metadata
		for _, info := range s.m.List() {
			if info.Name == name {
				meta = info.Meta
			}
		}
		s.Equal("merged", meta.Kind, name)
		s.Equal(strategy, meta.Extra["merge_strategy"], name)
		s.Equal("a,b", meta.Extra["source_kgs"], name)
	}
}

func (s *ManagerSuite) TestQueryByKind() {
	b, err := s.m.Create("g", "layout", nil)
	s.Require().NoError(err)
	action := b.AddActionNode("open", nil)
	entity := b.AddEntityNode("door", "door", nil)
	b.AddEdge(action, entity, kg.EdgeModifies, nil)

	res, err := s.m.RunQuery("g", Query{NodeKind: kg.NodeAction})
	s.Require().NoError(err)
	s.Require().Len(res.Nodes, 1)
	s.Equal("open", res.Nodes[0].Name)

	res, err = s.m.RunQuery("g", Query{EdgeKind: kg.EdgeModifies})
	s.Require().NoError(err)
	s.Len(res.Edges, 1)

	_, err = s.m.RunQuery("g", Query{NodeKind: "widget"})
	s.Error(err)
}

func (s *ManagerSuite) TestQueryPaths() {
	b, err := s.m.Create("g", "layout", nil)
	s.Require().NoError(err)
	n1 := b.AddActionNode("a", nil)
	n2 := b.AddEntityNode("b", "object", nil)
	n3 := b.AddStateNode("c", "v", nil)
	b.AddEdge(n1, n2, kg.EdgeModifies, nil)
	b.AddEdge(n2, n3, kg.EdgeHasState, nil)
	b.AddEdge(n1, n3, kg.EdgeProduces, nil)

	res, err := s.m.RunQuery("g", Query{Path: &PathQuery{Source: n1, Target: n3, MaxLen: 5}})
	s.Require().NoError(err)
	s.Require().Len(res.Paths, 2)

	// A one-hop bound removes the two-hop path.
	res, err = s.m.RunQuery("g", Query{Path: &PathQuery{Source: n1, Target: n3, MaxLen: 1}})
	s.Require().NoError(err)
	s.Require().Len(res.Paths, 1)
	s.Equal([]string{n1, n3}, res.Paths[0])
}

func (s *ManagerSuite) TestUpdateFromExperience() {
	b, err := s.m.Create("g", "game_state", nil)
	s.Require().NoError(err)
	existing := b.AddActionNode("open chest", nil)

	exp := Experience{
		Transitions: []StateTransition{{
			Action:    "unlock chest",
			Entity:    "chest",
			FromState: "locked",
			ToState:   "unlocked",
			Result:    "chest_unlocked",
		}},
		Effects: []ActionEffect{
			{Action: "open chest", Effect: "chest is open"},
			{Action: "shout", Effect: "nothing happens"},
		},
	}
	s.Require().NoError(s.m.UpdateFromExperience("g", exp))

	// Transition adds the 5-node pattern; the known action gains a result,
	// the unknown one is created alongside its result.
	s.Equal(1+5+1+2, b.NodeCount())

	producedByExisting := 0
	for _, e := range b.Edges() {
		if e.Source == existing && e.Kind == kg.EdgeProduces {
			producedByExisting++
		}
	}
	s.Equal(1, producedByExisting)

	shoutFound := false
	for _, n := range b.Nodes() {
		if n.Kind == kg.NodeAction && n.Name == "shout" {
			shoutFound = true
			s.True(n.Attrs["learned"].Equal(kg.Bool(true)))
		}
	}
	s.True(shoutFound)
}

func (s *ManagerSuite) TestExportAllAndImportDir() {
	b, err := s.m.Create("kitchen", "layout", nil)
	s.Require().NoError(err)
	action := b.AddActionNode("open", nil)
	entity := b.AddEntityNode("door", "door", nil)
	b.AddEdge(action, entity, kg.EdgeModifies, nil)

	_, err = s.m.Create("hall", "pddl", nil)
	s.Require().NoError(err)

	dir := s.T().TempDir()
	s.Require().NoError(s.m.ExportAll(dir))

	for _, name := range []string{"kitchen.json", "kitchen.graphml", "hall.json", "hall.graphml", ManifestFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		s.NoError(err, "missing %s", name)
	}

	fresh := NewManager()
	s.Require().NoError(fresh.ImportDir(dir))

	restored, err := fresh.Get("kitchen")
	s.Require().NoError(err)
	s.Equal(2, restored.NodeCount())
	s.Equal(1, restored.EdgeCount())

	origInfos := s.m.List()
	freshInfos := fresh.List()
	s.Require().Len(freshInfos, 2)
	s.Equal(origInfos[0].Meta.UUID, freshInfos[0].Meta.UUID)

	// Importing into a registry that already holds one of the names fails.
	s.Error(fresh.ImportDir(dir))
}

func (s *ManagerSuite) TestImportDirWithoutManifest() {
	s.Error(s.m.ImportDir(s.T().TempDir()))
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func TestTouchBumpsLastUpdated(t *testing.T) {
	m := NewManager()
	_, err := m.Create("g", "layout", nil)
	require.NoError(t, err)

	before := m.List()[0].Meta.LastUpdated
	m.Touch("g")
	after := m.List()[0].Meta.LastUpdated
	assert.False(t, after.Before(before))
}
