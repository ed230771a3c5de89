// Package sqlite keeps collection snapshots in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/data/snapshot"
)

// SnapshotStore implements snapshot.Store on a single sqlite table.
type SnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ snapshot.Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates the snapshots table if needed and returns the store.
func NewSnapshotStore(ctx context.Context, logger *slog.Logger, db *sql.DB) (*SnapshotStore, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		name       TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return &SnapshotStore{db: db, logger: logger}, nil
}

func (s *SnapshotStore) Write(ctx context.Context, name string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(name, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, payload)
	if err != nil {
		s.logger.Error("Failed to write snapshot", "snapshot", name, "error", err)
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

func (s *SnapshotStore) Read(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	return payload, nil
}
