package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

const (
	createSessionsTable = `
		CREATE TABLE IF NOT EXISTS checkout_sessions (
			visitor_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			state      TEXT NOT NULL,
			payload    JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	createStateIndex = `CREATE INDEX IF NOT EXISTS checkout_sessions_state_idx ON checkout_sessions (state, updated_at)`

	loadSessionQuery = `SELECT payload FROM checkout_sessions WHERE visitor_id = $1`

	saveSessionQuery = `
		INSERT INTO checkout_sessions (visitor_id, session_id, state, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (visitor_id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
			state = EXCLUDED.state,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	deleteSessionQuery = `DELETE FROM checkout_sessions WHERE visitor_id = $1`

	purgeSessionsQuery = `DELETE FROM checkout_sessions WHERE state = ANY($1) AND updated_at < $2`
)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the sessions table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createSessionsTable, createStateIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure checkout schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, visitorID string) (Snapshot, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, loadSessionQuery, visitorID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load checkout session: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode checkout session: %w", err)
	}
	return snap, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, visitorID string, snap Snapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = s.now().UTC()
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, saveSessionQuery, visitorID, snap.SessionID, string(snap.State), raw, snap.UpdatedAt); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, visitorID string) error {
	if _, err := s.db.ExecContext(ctx, deleteSessionQuery, visitorID); err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}

// PurgeFinished removes confirmed and invalidated sessions last touched
// before olderThan ago.
func (s *PostgresStore) PurgeFinished(ctx context.Context, olderThan time.Duration) (int64, error) {
	states := []string{string(StateConfirmed), string(StateInvalidated)}
	cutoff := s.now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, purgeSessionsQuery, pq.Array(states), cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge checkout sessions: %w", err)
	}
	return res.RowsAffected()
}
