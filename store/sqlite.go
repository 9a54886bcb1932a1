// Package store provides SQLite-backed persistence for graph
// definitions and message events, grounded in the teacher's
// server/store_sqlite.go pattern (WAL mode, schema-create-if-missing,
// scanner-interface row decoding).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/graphdef"

	_ "modernc.org/sqlite"
)

var (
	// ErrGraphExists is returned by SaveGraph when a graph with the
	// same id is already present.
	ErrGraphExists = errors.New("store: graph definition already exists")
	// ErrGraphNotFound is returned when a graph id has no stored record.
	ErrGraphNotFound = errors.New("store: graph definition not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS graph_definitions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT,
	definition BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS message_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	payload BLOB NOT NULL,
	stored_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_events_node
ON message_events(node_id);`

// SQLiteStore persists graph definitions and message events in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite-backed store at dsn.
func Open(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveGraph inserts a new graph definition record keyed by def.ID.
func (s *SQLiteStore) SaveGraph(ctx context.Context, def *graphdef.GraphDefinition) error {
	if def.ID == "" {
		return errors.New("store: graph definition id is required")
	}
	graphdef.EnsurePositions(def)

	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("store: marshal graph definition: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO graph_definitions (id, name, definition, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`, def.ID, def.Name, data, now, now)
	if err != nil {
		if isUniqueViolation(err, "graph_definitions.id") {
			return ErrGraphExists
		}
		return fmt.Errorf("store: save graph: %w", err)
	}
	return nil
}

// UpdateGraph overwrites an existing graph definition record.
func (s *SQLiteStore) UpdateGraph(ctx context.Context, def *graphdef.GraphDefinition) error {
	graphdef.EnsurePositions(def)
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("store: marshal graph definition: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE graph_definitions SET name = ?, definition = ?, updated_at = ?
WHERE id = ?`, def.Name, data, time.Now().UTC().Format(time.RFC3339Nano), def.ID)
	if err != nil {
		return fmt.Errorf("store: update graph: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update graph affected rows: %w", err)
	}
	if affected == 0 {
		return ErrGraphNotFound
	}
	return nil
}

// GetGraph loads a stored graph definition by id.
func (s *SQLiteStore) GetGraph(ctx context.Context, id string) (*graphdef.GraphDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT definition FROM graph_definitions WHERE id = ?`, id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("store: get graph: %w", err)
	}

	var def graphdef.GraphDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("store: unmarshal graph definition: %w", err)
	}
	return &def, nil
}

// ListGraphs returns the id and name of every stored graph, in
// insertion order.
func (s *SQLiteStore) ListGraphs(ctx context.Context) ([]GraphSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name FROM graph_definitions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list graphs: %w", err)
	}
	defer rows.Close()

	var summaries []GraphSummary
	for rows.Next() {
		var sum GraphSummary
		var name sql.NullString
		if err := rows.Scan(&sum.ID, &name); err != nil {
			return nil, fmt.Errorf("store: scan graph summary: %w", err)
		}
		sum.Name = name.String
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list graphs rows: %w", err)
	}
	return summaries, nil
}

// DeleteGraph removes a stored graph definition by id.
func (s *SQLiteStore) DeleteGraph(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graph_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete graph: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete graph affected rows: %w", err)
	}
	if affected == 0 {
		return ErrGraphNotFound
	}
	return nil
}

// GraphSummary is the lightweight listing shape returned by ListGraphs.
type GraphSummary struct {
	ID   string
	Name string
}

// SaveMessageEvent appends a MessageEventValue persisted on behalf of
// nodeID, the sqlite-backed substitute this module uses in place of the
// original implementation's MySQL persistence node (see DESIGN.md).
func (s *SQLiteStore) SaveMessageEvent(ctx context.Context, nodeID string, event flowcore.MessageEventValue) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("store: marshal message event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO message_events (message_id, node_id, payload, stored_at)
VALUES (?, ?, ?, ?)`, event.MessageID, nodeID, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: save message event: %w", err)
	}
	return nil
}

// ListMessageEvents returns every message event persisted for nodeID,
// oldest first.
func (s *SQLiteStore) ListMessageEvents(ctx context.Context, nodeID string) ([]flowcore.MessageEventValue, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT payload FROM message_events WHERE node_id = ? ORDER BY seq ASC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("store: list message events: %w", err)
	}
	defer rows.Close()

	var events []flowcore.MessageEventValue
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: scan message event: %w", err)
		}
		var event flowcore.MessageEventValue
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("store: unmarshal message event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list message events rows: %w", err)
	}
	return events, nil
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+constraint)
}
