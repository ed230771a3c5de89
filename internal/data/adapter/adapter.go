// Package adapter round-trips one collection of records to a named snapshot.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/platform/codec"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
)

// Identified is the one thing an adapter needs from a record.
type Identified interface {
	GetID() int64
}

// ErrPersistence is matched by every PersistenceError.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError reports a failed snapshot encode, write or read.
type PersistenceError struct {
	Snapshot string
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot %s: %v", e.Op, e.Snapshot, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Adapter saves and loads the full record set of one kind.
type Adapter[T Identified] struct {
	name   string
	store  snapshot.Store
	logger *slog.Logger
}

func New[T Identified](logger *slog.Logger, store snapshot.Store, name string) *Adapter[T] {
	return &Adapter[T]{
		name:   name,
		store:  store,
		logger: logger.With("snapshot", name),
	}
}

func (a *Adapter[T]) Name() string { return a.name }

// Save overwrites the snapshot with records.
func (a *Adapter[T]) Save(ctx context.Context, records []T) error {
	data, err := codec.Encode(records)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(a.name, metrics.OutcomeError).Inc()
		return &PersistenceError{Snapshot: a.name, Op: "encode", Err: err}
	}
	if err := a.store.Write(ctx, a.name, data); err != nil {
		metrics.SnapshotWrites.WithLabelValues(a.name, metrics.OutcomeError).Inc()
		return &PersistenceError{Snapshot: a.name, Op: "write", Err: err}
	}
	metrics.SnapshotWrites.WithLabelValues(a.name, metrics.OutcomeSuccess).Inc()
	a.logger.Debug("Snapshot saved", "records", len(records))
	return nil
}

// Load returns the persisted records. A missing, unreadable or unparsable
// snapshot yields an empty slice; the cause is logged, never returned.
func (a *Adapter[T]) Load(ctx context.Context) []T {
	data, err := a.store.Read(ctx, a.name)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			a.logger.Info("No snapshot found, starting empty")
		} else {
			a.logger.Warn("Failed to read snapshot, starting empty", "error", err)
		}
		return []T{}
	}

	records, err := codec.Decode[T](data)
	if err != nil {
		a.logger.Warn("Failed to parse snapshot, starting empty", "error", err)
		return []T{}
	}

	a.logger.Info("Snapshot loaded", "records", len(records))
	return records
}

// NextID returns one more than the largest identifier in records, or 1 when empty.
func NextID[T Identified](records []T) int64 {
	var highest int64
	for _, r := range records {
		if id := r.GetID(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

// NextID returns the identifier the next record added to records should receive.
func (a *Adapter[T]) NextID(records []T) int64 {
	return NextID(records)
}
