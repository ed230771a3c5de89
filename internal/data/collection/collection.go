// Package collection provides the generic in-memory record collection that backs
// every entity kind. A collection owns its records, hands out identifiers and
// writes a full snapshot through its persister after each successful mutation.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/infyemailer-backoffice/internal/data/adapter"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
)

// Record is implemented by every kind stored in a collection.
type Record[T any] interface {
	GetID() int64
	// WithIdentity returns a copy carrying id, the creation time and kind defaults.
	WithIdentity(id int64, now time.Time) T
	// Touched returns a copy with its update timestamp set to now.
	Touched(now time.Time) T
}

// Patch merges caller-supplied fields over a record.
type Patch[T any] interface {
	Apply(T) T
}

// Persister saves and loads the full record set. *adapter.Adapter satisfies it.
type Persister[T any] interface {
	Name() string
	Save(ctx context.Context, records []T) error
	Load(ctx context.Context) []T
}

// DeleteHook runs before a record is removed. Returning an error aborts the delete.
type DeleteHook[T any] func(ctx context.Context, rec T) error

// Collection is safe for concurrent use.
type Collection[T Record[T]] struct {
	mu       sync.RWMutex
	kind     entity.Kind
	records  map[int64]T
	order    []int64
	nextID   int64
	dirty    bool
	persist  Persister[T]
	logger   *slog.Logger
	now      func() time.Time
	defaults []T
	onDelete []DeleteHook[T]
}

type Option[T Record[T]] func(*Collection[T])

// WithClock overrides the time source used for identity and update stamps.
func WithClock[T Record[T]](now func() time.Time) Option[T] {
	return func(c *Collection[T]) { c.now = now }
}

// WithDefaults seeds the collection when the persister returns no records.
func WithDefaults[T Record[T]](defaults []T) Option[T] {
	return func(c *Collection[T]) { c.defaults = defaults }
}

// New loads the collection from persist. Loaded records replace any defaults;
// defaults are only seeded into an empty collection and are not written until
// the first mutation.
func New[T Record[T]](ctx context.Context, logger *slog.Logger, persist Persister[T], opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		kind:    entity.Kind(persist.Name()),
		records: make(map[int64]T),
		nextID:  1,
		persist: persist,
		logger:  logger.With("collection", persist.Name()),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}

	loaded := persist.Load(ctx)
	if len(loaded) > 0 {
		for _, rec := range loaded {
			c.put(rec)
		}
		c.nextID = adapter.NextID(loaded)
		c.logger.Info("Collection loaded", "records", len(c.order), "next_id", c.nextID)
	} else if len(c.defaults) > 0 {
		now := c.now()
		for _, rec := range c.defaults {
			c.put(rec.WithIdentity(c.nextID, now))
			c.nextID++
		}
		c.logger.Info("Collection seeded with defaults", "records", len(c.order))
	}
	c.reportSize()
	return c
}

func (c *Collection[T]) put(rec T) {
	id := rec.GetID()
	if _, exists := c.records[id]; !exists {
		c.order = append(c.order, id)
	}
	c.records[id] = rec
}

// Kind returns the record kind, which is also the snapshot name.
func (c *Collection[T]) Kind() entity.Kind { return c.kind }

// Create assigns the next identifier, stamps rec and stores it.
// A failed snapshot write is logged and leaves the collection dirty.
func (c *Collection[T]) Create(ctx context.Context, rec T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	rec = rec.WithIdentity(id, c.now())
	c.put(rec)
	c.saveLocked(ctx)
	return rec
}

// Get returns the record and whether it exists.
func (c *Collection[T]) Get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

// MustGet is Get returning ErrRecordNotFound for a missing id.
func (c *Collection[T]) MustGet(id int64) (T, error) {
	rec, ok := c.Get(id)
	if !ok {
		return rec, entity.ErrRecordNotFound{Kind: c.kind, ID: id}
	}
	return rec, nil
}

// Update applies mutate to the stored record under the collection lock.
// An error from mutate aborts the update and is returned unchanged.
func (c *Collection[T]) Update(ctx context.Context, id int64, mutate func(T) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	cur, ok := c.records[id]
	if !ok {
		return zero, entity.ErrRecordNotFound{Kind: c.kind, ID: id}
	}

	next, err := mutate(cur)
	if err != nil {
		return zero, err
	}
	if next.GetID() != id {
		return zero, fmt.Errorf("update of %s record %d changed its id to %d", c.kind, id, next.GetID())
	}

	next = next.Touched(c.now())
	c.records[id] = next
	c.saveLocked(ctx)
	return next, nil
}

// Patch merges p over the stored record.
func (c *Collection[T]) Patch(ctx context.Context, id int64, p Patch[T]) (T, error) {
	return c.Update(ctx, id, func(cur T) (T, error) {
		return p.Apply(cur), nil
	})
}

// OnDelete registers a hook that runs before each delete, typically to cascade
// the delete into collections that reference this one.
func (c *Collection[T]) OnDelete(hook DeleteHook[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDelete = append(c.onDelete, hook)
}

// Delete runs the delete hooks and then removes the record.
func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		return entity.ErrRecordNotFound{Kind: c.kind, ID: id}
	}

	for _, hook := range c.onDelete {
		if err := hook(ctx, rec); err != nil {
			return fmt.Errorf("failed to delete %s record %d: %w", c.kind, id, err)
		}
	}

	c.removeLocked(id)
	c.saveLocked(ctx)
	return nil
}

// DeleteWhere removes every record matching pred and saves once. Delete hooks do not run.
func (c *Collection[T]) DeleteWhere(ctx context.Context, pred func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []int64
	for _, id := range c.order {
		if pred(c.records[id]) {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return 0
	}
	for _, id := range doomed {
		c.removeLocked(id)
	}
	c.saveLocked(ctx)
	c.logger.Debug("Records removed", "count", len(doomed))
	return len(doomed)
}

func (c *Collection[T]) removeLocked(id int64) {
	delete(c.records, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// List returns a copy of all records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Find returns the records matching pred in insertion order.
func (c *Collection[T]) Find(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, id := range c.order {
		if rec := c.records[id]; pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// NextID returns the identifier the next Create will assign.
func (c *Collection[T]) NextID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextID
}

// Dirty reports whether the last snapshot write failed.
func (c *Collection[T]) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Flush rewrites the snapshot if the collection is dirty and returns the write error, if any.
func (c *Collection[T]) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	return c.saveLocked(ctx)
}

func (c *Collection[T]) snapshotLocked() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// saveLocked writes the full snapshot. The in-memory state stands whether or not
// the write succeeds; a failure marks the collection dirty for a later Flush.
func (c *Collection[T]) saveLocked(ctx context.Context) error {
	c.reportSize()
	err := c.persist.Save(ctx, c.snapshotLocked())
	if err != nil {
		c.logger.Error("Failed to save collection snapshot", "records", len(c.order), "error", err)
		c.dirty = true
		metrics.DirtyCollections.WithLabelValues(string(c.kind)).Set(1)
		return err
	}
	if c.dirty {
		c.logger.Info("Collection snapshot recovered")
	}
	c.dirty = false
	metrics.DirtyCollections.WithLabelValues(string(c.kind)).Set(0)
	return nil
}

func (c *Collection[T]) reportSize() {
	metrics.CollectionSize.WithLabelValues(string(c.kind)).Set(float64(len(c.order)))
}
