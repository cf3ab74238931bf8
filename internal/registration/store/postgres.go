package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
)

// Schema for the snapshot table. The whole registration is one JSONB payload;
// the engine owns the shape, the database only keys and timestamps it.
const Schema = `
CREATE TABLE IF NOT EXISTS registration_snapshots (
    registration_id UUID PRIMARY KEY,
    event_id        TEXT NOT NULL,
    status          TEXT NOT NULL,
    payload         JSONB NOT NULL,
    saved_at        TIMESTAMPTZ NOT NULL
);
`

// PostgresStore persists snapshots in PostgreSQL via database/sql (lib/pq).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshot table if missing. Used by tests and by
// deployments without a migration step.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registration_snapshots (registration_id, event_id, status, payload, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration_id)
		DO UPDATE SET event_id = EXCLUDED.event_id,
		              status = EXCLUDED.status,
		              payload = EXCLUDED.payload,
		              saved_at = EXCLUDED.saved_at`,
		snap.RegistrationID.String(), snap.EventID, string(snap.Status), payload, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, registrationID id.RegistrationID) (Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM registration_snapshots WHERE registration_id = $1`,
		registrationID.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM registration_snapshots WHERE registration_id = $1`,
		registrationID.String())
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
