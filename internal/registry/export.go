package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"worldkg/internal/kg"
)

// ManifestFile is the per-directory manifest written next to the graph
// files. Import trusts this manifest, not directory listings: a graph
// without a manifest entry is not part of the export set.
const ManifestFile = "kg_metadata.json"

// manifestEntry is the persisted per-graph record in kg_metadata.json.
type manifestEntry struct {
	Meta  Metadata      `json:"metadata"`
	Stats kg.Statistics `json:"statistics"`
}

// ExportAll writes every registered graph into dir: one lossless
// "<name>.json", one lossy "<name>.graphml" and the shared manifest. The
// directory is created if missing.
func (m *Manager) ExportAll(dir string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	manifest := make(map[string]manifestEntry, len(m.graphs))
	for name, entry := range m.graphs {
		if err := entry.builder.ExportJSON(filepath.Join(dir, name+".json")); err != nil {
			return fmt.Errorf("export %q: %w", name, err)
		}
		if err := entry.builder.ExportGraphML(filepath.Join(dir, name+".graphml")); err != nil {
			return fmt.Errorf("export %q: %w", name, err)
		}
		manifest[name] = manifestEntry{
			Meta:  entry.meta,
			Stats: entry.builder.Statistics(),
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	m.log.Info("graphs exported", zap.String("dir", dir), zap.Int("count", len(manifest)))
	return nil
}

// ImportDir loads every graph named in dir's manifest from its JSON file,
// restoring the persisted metadata. GraphML files are export-only and are
// never read back. Importing a name that is already registered fails the
// whole import.
func (m *Manager) ImportDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var manifest map[string]manifestEntry
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	for name := range manifest {
		if _, exists := m.graphs[name]; exists {
			return fmt.Errorf("import %q: %w", name, ErrGraphExists)
		}
	}

	staged := make(map[string]*graphEntry, len(manifest))
	for name, me := range manifest {
		b := kg.NewBuilder()
		if err := b.ImportJSON(filepath.Join(dir, name+".json")); err != nil {
			return fmt.Errorf("import %q: %w", name, err)
		}
		staged[name] = &graphEntry{builder: b, meta: me.Meta}
	}
	for name, entry := range staged {
		m.graphs[name] = entry
	}

	m.log.Info("graphs imported", zap.String("dir", dir), zap.Int("count", len(manifest)))
	return nil
}
