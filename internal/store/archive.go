// Package store persists graph snapshots and experience logs in SQLite.
// The archive is append-only: snapshots are immutable rows keyed by UUID,
// so any historical graph state can be rehydrated later.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"worldkg/internal/kg"
	"worldkg/internal/logging"
)

// Archive is the SQLite-backed snapshot and experience store.
type Archive struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	log    *zap.Logger
}

// SnapshotInfo describes one archived graph snapshot.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	GraphName string    `json:"graph_name"`
	Kind      string    `json:"kind"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedAt time.Time `json:"created_at"`
}

// NewArchive opens (creating if needed) the archive database at path.
func NewArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	a := &Archive{db: db, dbPath: path, log: logging.Get(logging.CategoryStore)}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) initialize() error {
	snapshotTable := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		graph_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		edge_count INTEGER NOT NULL,
		graph_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(graph_name);
	`

	experienceTable := `
	CREATE TABLE IF NOT EXISTS experience_log (
		id TEXT PRIMARY KEY,
		graph_name TEXT NOT NULL,
		transitions INTEGER NOT NULL,
		effects INTEGER NOT NULL,
		payload_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_experience_name ON experience_log(graph_name);
	`

	for _, table := range []string{snapshotTable, experienceTable} {
		if _, err := a.db.Exec(table); err != nil {
			return fmt.Errorf("create archive table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveSnapshot archives the current state of b under graphName and returns
// the snapshot id.
func (a *Archive) SaveSnapshot(graphName, kind string, b *kg.Builder) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := b.MarshalJSONGraph()
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = a.db.Exec(
		"INSERT INTO snapshots (id, graph_name, kind, node_count, edge_count, graph_json) VALUES (?, ?, ?, ?, ?, ?)",
		id, graphName, kind, b.NodeCount(), b.EdgeCount(), string(data),
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	a.log.Info("snapshot archived",
		zap.String("graph", graphName),
		zap.String("snapshot_id", id),
		zap.Int("nodes", b.NodeCount()),
		zap.Int("edges", b.EdgeCount()))
	return id, nil
}

// LoadSnapshot rehydrates one archived snapshot into a fresh builder.
func (a *Archive) LoadSnapshot(id string) (*kg.Builder, SnapshotInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var (
		info      SnapshotInfo
		graphJSON string
	)
	err := a.db.QueryRow(
		"SELECT id, graph_name, kind, node_count, edge_count, graph_json, created_at FROM snapshots WHERE id = ?",
		id,
	).Scan(&info.ID, &info.GraphName, &info.Kind, &info.NodeCount, &info.EdgeCount, &graphJSON, &info.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, info, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, info, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	b := kg.NewBuilder()
	if err := b.UnmarshalJSONGraph([]byte(graphJSON)); err != nil {
		return nil, info, fmt.Errorf("rehydrate snapshot %s: %w", id, err)
	}
	return b, info, nil
}

// LatestSnapshot rehydrates the most recent snapshot for graphName.
func (a *Archive) LatestSnapshot(graphName string) (*kg.Builder, SnapshotInfo, error) {
	a.mu.RLock()
	var id string
	err := a.db.QueryRow(
		"SELECT id FROM snapshots WHERE graph_name = ? ORDER BY rowid DESC LIMIT 1",
		graphName,
	).Scan(&id)
	a.mu.RUnlock()

	if err == sql.ErrNoRows {
		return nil, SnapshotInfo{}, fmt.Errorf("no snapshots for graph %q", graphName)
	}
	if err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("find latest snapshot for %q: %w", graphName, err)
	}
	return a.LoadSnapshot(id)
}

// ListSnapshots returns snapshot descriptors, newest first. An empty
// graphName lists every snapshot.
func (a *Archive) ListSnapshots(graphName string) ([]SnapshotInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	query := "SELECT id, graph_name, kind, node_count, edge_count, created_at FROM snapshots"
	var args []any
	if graphName != "" {
		query += " WHERE graph_name = ?"
		args = append(args, graphName)
	}
	query += " ORDER BY rowid DESC"

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.GraphName, &info.Kind, &info.NodeCount, &info.EdgeCount, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LogExperience records one applied experience payload for audit and
// replay. The payload is stored as JSON verbatim.
func (a *Archive) LogExperience(graphName string, transitions, effects int, payload any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal experience: %w", err)
	}

	_, err = a.db.Exec(
		"INSERT INTO experience_log (id, graph_name, transitions, effects, payload_json) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), graphName, transitions, effects, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert experience: %w", err)
	}
	return nil
}
