package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/data/postgres"
	"github.com/infyemailer-backoffice/internal/data/s3store"
	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/data/sqlite"
	"github.com/infyemailer-backoffice/internal/platform/persistence"
)

// Backend is the snapshot store selected by configuration together with the
// connection it owns.
type Backend struct {
	snapshot.Store
	Driver string
	close  func() error
}

// Close releases the backend's connection, if it has one.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend connects the snapshot store named by cfg.Storage.Driver.
func OpenBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Backend, error) {
	driver := cfg.Storage.Driver
	logger = logger.With("storage_driver", driver)

	switch driver {
	case config.StorageDriverFS:
		fs, err := snapshot.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open fs snapshot store: %w", err)
		}
		logger.Info("Using filesystem snapshot store", "dir", fs.Dir())
		return &Backend{Store: fs, Driver: driver}, nil

	case config.StorageDriverSQLite:
		db, err := persistence.NewSQLiteDB(ctx, logger, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		st, err := sqlite.NewSnapshotStore(ctx, logger, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{Store: st, Driver: driver, close: db.Close}, nil

	case config.StorageDriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		st := postgres.NewSnapshotStore(logger, db)
		if err := st.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{Store: st, Driver: driver, close: func() error { db.Close(); return nil }}, nil

	case config.StorageDriverS3:
		client, err := persistence.NewS3Client(ctx, logger, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s3store.NewSnapshotStore(logger, client, cfg.S3.Bucket, cfg.S3.Prefix), Driver: driver}, nil

	case config.StorageDriverMemory:
		logger.Warn("Using in-memory snapshot store, data will not survive a restart")
		return &Backend{Store: snapshot.NewMemoryStore(), Driver: driver}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", driver)
}
