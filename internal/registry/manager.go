// Package registry keeps the named graph instances of one process: create,
// lookup, merge, query, experience updates and directory export/import.
// The registry mutex serializes all operations; individual builders are
// never touched outside it.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"worldkg/internal/kg"
	"worldkg/internal/logging"
)

var (
	// ErrGraphExists reports a Create with an already registered name.
	ErrGraphExists = errors.New("graph already exists")
	// ErrGraphNotFound reports a lookup for an unregistered name.
	ErrGraphNotFound = errors.New("graph not found")
)

// Metadata describes one registered graph.
type Metadata struct {
	UUID        string            `json:"uuid"`
	Kind        string            `json:"kind"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUpdated time.Time         `json:"last_updated"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// GraphInfo pairs a graph name with its metadata and current statistics.
type GraphInfo struct {
	Name  string        `json:"name"`
	Meta  Metadata      `json:"metadata"`
	Stats kg.Statistics `json:"statistics"`
}

type graphEntry struct {
	builder *kg.Builder
	meta    Metadata
}

// Manager is the process-wide registry of named graph instances.
type Manager struct {
	mu     sync.RWMutex
	graphs map[string]*graphEntry
	log    *zap.Logger
	now    func() time.Time
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{
		graphs: make(map[string]*graphEntry),
		log:    logging.Get(logging.CategoryRegistry),
		now:    time.Now,
	}
}

// Create registers a new empty graph under name. Kind is free-form
// provenance ("layout", "pddl", "game_state", "merged", ...). Creating a
// name that already exists is an error, never a silent replacement.
func (m *Manager) Create(name, kind string, extra map[string]string) (*kg.Builder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(name, kind, extra)
}

func (m *Manager) createLocked(name, kind string, extra map[string]string) (*kg.Builder, error) {
	if _, exists := m.graphs[name]; exists {
		return nil, fmt.Errorf("create %q: %w", name, ErrGraphExists)
	}
	now := m.now().UTC()
	entry := &graphEntry{
		builder: kg.NewBuilder(),
		meta: Metadata{
			UUID:        uuid.NewString(),
			Kind:        kind,
			CreatedAt:   now,
			LastUpdated: now,
			Extra:       extra,
		},
	}
	m.graphs[name] = entry
	m.log.Info("graph created", zap.String("name", name), zap.String("kind", kind))
	return entry.builder, nil
}

// Get returns the builder registered under name.
func (m *Manager) Get(name string) (*kg.Builder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.graphs[name]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, ErrGraphNotFound)
	}
	return entry.builder, nil
}

// Touch bumps a graph's last-updated timestamp after external mutation,
// such as an extractor run against the builder returned by Create.
func (m *Manager) Touch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.graphs[name]; ok {
		entry.meta.LastUpdated = m.now().UTC()
	}
}

// List returns name, metadata and fresh statistics for every registered
// graph, sorted by name.
func (m *Manager) List() []GraphInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GraphInfo, 0, len(m.graphs))
	for name, entry := range m.graphs {
		out = append(out, GraphInfo{
			Name:  name,
			Meta:  entry.meta,
			Stats: entry.builder.Statistics(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MergeUnion combines the named source graphs into a new graph registered
// under targetName. Every node id is prefixed with its source graph name
// ("kitchen_entity_1"), so same-id nodes from different sources stay
// distinct and edges never collide across sources.
func (m *Manager) MergeUnion(targetName string, sources []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*graphEntry, len(sources))
	for i, src := range sources {
		entry, ok := m.graphs[src]
		if !ok {
			return fmt.Errorf("merge union source %q: %w", src, ErrGraphNotFound)
		}
		entries[i] = entry
	}

	merged, err := m.createLocked(targetName, "merged", map[string]string{
		"merge_strategy": "union",
		"source_kgs":     strings.Join(sources, ","),
	})
	if err != nil {
		return err
	}

	for i, entry := range entries {
		prefix := sources[i] + "_"
		for _, n := range entry.builder.Nodes() {
			attrs := n.Attrs.Clone()
			if attrs == nil {
				attrs = kg.Attrs{}
			}
			attrs["source_graph"] = kg.String(sources[i])
			merged.ImportNode(kg.Node{
				ID:    prefix + n.ID,
				Kind:  n.Kind,
				Name:  n.Name,
				Attrs: attrs,
			})
		}
		for _, e := range entry.builder.Edges() {
			merged.AddEdge(prefix+e.Source, prefix+e.Target, e.Kind, e.Attrs.Clone())
		}
	}

	m.log.Info("graphs merged",
		zap.String("target", targetName),
		zap.Strings("sources", sources),
		zap.String("strategy", "union"),
		zap.Int("nodes", merged.NodeCount()),
		zap.Int("edges", merged.EdgeCount()))
	return nil
}

// MergeIntersection registers a new graph under targetName holding only the
// raw node ids present in every source. Node payloads come from the first
// source and ids are not prefixed; edges are never copied, the result is a
// pure node overlap.
func (m *Manager) MergeIntersection(targetName string, sources []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(sources) == 0 {
		return fmt.Errorf("merge intersection: no sources")
	}
	entries := make([]*graphEntry, len(sources))
	for i, src := range sources {
		entry, ok := m.graphs[src]
		if !ok {
			return fmt.Errorf("merge intersection source %q: %w", src, ErrGraphNotFound)
		}
		entries[i] = entry
	}

	shared := make(map[string]bool)
	for _, id := range entries[0].builder.NodeIDs() {
		shared[id] = true
	}
	for _, entry := range entries[1:] {
		present := make(map[string]bool)
		for _, id := range entry.builder.NodeIDs() {
			present[id] = true
		}
		for id := range shared {
			if !present[id] {
				delete(shared, id)
			}
		}
	}

	merged, err := m.createLocked(targetName, "merged", map[string]string{
		"merge_strategy": "intersection",
		"source_kgs":     strings.Join(sources, ","),
	})
	if err != nil {
		return err
	}

	for _, n := range entries[0].builder.Nodes() {
		if shared[n.ID] {
			merged.ImportNode(kg.Node{ID: n.ID, Kind: n.Kind, Name: n.Name, Attrs: n.Attrs.Clone()})
		}
	}

	m.log.Info("graphs merged",
		zap.String("target", targetName),
		zap.Strings("sources", sources),
		zap.String("strategy", "intersection"),
		zap.Int("nodes", merged.NodeCount()),
		zap.Int("edges", merged.EdgeCount()))
	return nil
}

// Stats returns fresh statistics for one graph.
func (m *Manager) Stats(name string) (kg.Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.graphs[name]
	if !ok {
		return kg.Statistics{}, fmt.Errorf("stats %q: %w", name, ErrGraphNotFound)
	}
	return entry.builder.Statistics(), nil
}
