// Package postgres keeps collection snapshots in a PostgreSQL table, one JSONB
// row per snapshot name.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const (
	createSnapshotsTable = `
		CREATE TABLE IF NOT EXISTS snapshots (
			name       TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	upsertSnapshot = `
		INSERT INTO snapshots (name, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	selectSnapshot = `
		SELECT payload
		FROM snapshots
		WHERE name = $1
	`
)

// SnapshotStore implements snapshot.Store for PostgreSQL
type SnapshotStore struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ snapshot.Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates the store on top of the database pool.
func NewSnapshotStore(logger *slog.Logger, db *persistence.PostgresDB) *SnapshotStore {
	return &SnapshotStore{
		querier: db.Pool(),
		logger:  logger,
	}
}

// EnsureSchema creates the snapshots table when it does not exist yet.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.querier.Exec(ctx, createSnapshotsTable); err != nil {
		s.logger.Error("Failed to create snapshots table", "error", err)
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return nil
}

// Write replaces the payload stored under name.
func (s *SnapshotStore) Write(ctx context.Context, name string, payload []byte) error {
	_, err := s.querier.Exec(ctx, upsertSnapshot, name, payload)
	if err != nil {
		s.logger.Error("Failed to write snapshot", "snapshot", name, "error", err)
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

// Read returns the payload stored under name, or snapshot.ErrNotFound.
func (s *SnapshotStore) Read(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.querier.QueryRow(ctx, selectSnapshot, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, snapshot.ErrNotFound
		}
		s.logger.Error("Failed to read snapshot", "snapshot", name, "error", err)
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	return payload, nil
}
