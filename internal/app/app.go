// Package app wires the storage backend, the optional event sinks and the store
// into the runtime shared by the back office binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/data/mongo"
	"github.com/infyemailer-backoffice/internal/ledger/events"
	"github.com/infyemailer-backoffice/internal/platform/messaging/producers"
	"github.com/infyemailer-backoffice/internal/platform/persistence"
	"github.com/infyemailer-backoffice/internal/store"
)

// Runtime owns every long-lived resource of a process.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Backend    *store.Backend
	Storage    *store.Storage
	Dispatcher *events.Dispatcher
	Mirror     *mongo.HistoryMirror // nil unless MongoDB is enabled

	producer *producers.LedgerEventProducer
	mongoDB  *persistence.MongoDB
}

// Start opens the snapshot backend, connects the enabled sinks, starts the event
// dispatcher and loads the store. Resources opened before a failure are released.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			rt.release(ctx)
			rt = nil
		}
	}()

	rt.Backend, err = store.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return rt, fmt.Errorf("failed to open snapshot backend: %w", err)
	}

	var sinks []events.Sink
	if cfg.Kafka.Enabled {
		rt.producer, err = producers.NewLedgerEventProducer(ctx, logger, &cfg.Kafka)
		if err != nil {
			return rt, fmt.Errorf("failed to initialize ledger event producer: %w", err)
		}
		sinks = append(sinks, rt.producer)
	}
	if cfg.MongoDB.Enabled {
		rt.mongoDB, err = persistence.NewMongoDB(ctx, logger, &cfg.MongoDB)
		if err != nil {
			return rt, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		rt.Mirror = mongo.NewHistoryMirror(logger, rt.mongoDB.Database())
		if err = rt.Mirror.EnsureIndexes(ctx); err != nil {
			return rt, err
		}
		sinks = append(sinks, rt.Mirror)
	}

	rt.Dispatcher, err = events.NewDispatcher(cfg.WorkerPool, logger, sinks...)
	if err != nil {
		return rt, fmt.Errorf("failed to start event dispatcher: %w", err)
	}

	rt.Storage = store.Open(ctx, logger, cfg, rt.Backend, store.WithPublisher(rt.Dispatcher))
	return rt, nil
}

// Flusher returns a flusher retrying the store's dirty snapshots at the configured interval.
func (rt *Runtime) Flusher() *store.Flusher {
	return store.NewFlusher(rt.Storage, rt.Config.Storage.FlushInterval, rt.Logger)
}

// Close drains pending event deliveries, flushes the store and releases every
// connection. All failures are reported together.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Dispatcher != nil {
		rt.Dispatcher.Shutdown(ctx)
	}
	if rt.Storage != nil {
		if err := rt.Storage.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, rt.release(ctx))
	return errors.Join(errs...)
}

// release closes the connections Start opened.
func (rt *Runtime) release(ctx context.Context) error {
	var errs []error
	if rt.producer != nil {
		if err := rt.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Kafka producer: %w", err))
		}
	}
	if rt.mongoDB != nil {
		if err := rt.mongoDB.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.Backend != nil {
		if err := rt.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close snapshot backend: %w", err))
		}
	}
	return errors.Join(errs...)
}
