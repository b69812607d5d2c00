// Package sessionlog persists session transcripts to SQLite. It is a
// caller-side collaborator: the engine never reads it, so a missing or
// broken log cannot affect session routing.
package sessionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/c360studio/prodtrap/sim"
)

// Store writes sessions and their transcript events to a SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	learner_id  TEXT NOT NULL,
	scenario_id TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq);
`

// Open opens (creating if needed) the transcript database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("transcript database ping failed: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transcript schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records a new session. Re-recording an existing session ID
// is a no-op, so crash-replayed sessions do not error.
func (s *Store) CreateSession(ctx context.Context, state *sim.SessionState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, learner_id, scenario_id, created_at) VALUES (?, ?, ?, ?)`,
		state.SessionID, state.LearnerID, state.Scenario.ID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// AppendEvents records transcript events for a session. Events are keyed by
// their IDs, so appending an already-recorded batch is a no-op — the same
// idempotence the in-memory transcript merge provides.
func (s *Store) AppendEvents(ctx context.Context, sessionID string, events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE session_id = ?`, sessionID).Scan(&seq); err != nil {
		return fmt.Errorf("read event sequence: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range events {
		e = sim.EnsureID(e)
		seq++
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO events (id, session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, sessionID, seq, string(e.Role), e.Content, now); err != nil {
			return fmt.Errorf("record event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}
	return nil
}

// Events returns a session's transcript in insertion order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]sim.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content FROM events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []sim.Event
	for rows.Next() {
		var e sim.Event
		var role string
		if err := rows.Scan(&e.ID, &role, &e.Content); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Role = sim.Role(role)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Sessions returns the IDs of all recorded sessions for a learner, most
// recent first.
func (s *Store) Sessions(ctx context.Context, learnerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE learner_id = ? ORDER BY created_at DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return ids, nil
}
