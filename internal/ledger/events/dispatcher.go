// Package events fans committed ledger entries out to external sinks on a
// bounded worker pool. Delivery is best effort: the history snapshot remains
// the source of truth and a ledger operation never waits for a sink.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
	"github.com/panjf2000/ants/v2"
)

// Sink receives ledger events. Deliver may be called concurrently.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event *credit.LedgerEvent) error
}

// Dispatcher implements ledger.Publisher.
type Dispatcher struct {
	pool   *ants.Pool
	sinks  []Sink
	logger *slog.Logger
	now    func() time.Time

	// mu guards closed and every wg.Add, so no delivery is added once Shutdown waits
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(cfg config.WorkerPoolConfig, logger *slog.Logger, sinks ...Sink) (*Dispatcher, error) {
	logger = logger.With("component", "event_dispatcher")

	// A full pool rejects work instead of blocking the ledger
	pool, err := ants.NewPool(cfg.Size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("Panic while delivering ledger event", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("Event dispatcher started", "workers", cfg.Size, "sinks", names)

	return &Dispatcher{
		pool:   pool,
		sinks:  sinks,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Publish submits one delivery task per entry and returns immediately.
func (d *Dispatcher) Publish(ctx context.Context, entries ...credit.HistoryEntry) {
	if len(d.sinks) == 0 {
		return
	}
	// Deliveries outlive the request that produced them
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("Event dispatcher is shut down, ledger events not delivered", "entries", len(entries))
		d.reject(len(entries))
		return
	}

	for _, entry := range entries {
		event := credit.NewLedgerEvent(entry, d.now())

		d.wg.Add(1)
		err := d.pool.Submit(func() {
			defer d.wg.Done()
			d.deliver(ctx, event)
		})
		if err != nil {
			d.wg.Done()
			d.logger.Error("Failed to submit ledger event to worker pool",
				"event_id", event.EventID.String(),
				"scope", entry.Scope,
				"entry_id", entry.ID,
				"error", err,
			)
			d.reject(1)
		}
	}
}

func (d *Dispatcher) reject(n int) {
	for _, s := range d.sinks {
		metrics.EventsPublished.WithLabelValues(s.Name(), metrics.OutcomeRejected).Add(float64(n))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *credit.LedgerEvent) {
	for _, s := range d.sinks {
		if err := s.Deliver(ctx, event); err != nil {
			metrics.EventsPublished.WithLabelValues(s.Name(), metrics.OutcomeError).Inc()
			d.logger.Warn("Ledger event delivery failed",
				"sink", s.Name(),
				"event_id", event.EventID.String(),
				"error", err,
			)
			continue
		}
		metrics.EventsPublished.WithLabelValues(s.Name(), metrics.OutcomeSuccess).Inc()
	}
}

// Shutdown waits for in-flight deliveries, bounded by ctx, and releases the pool.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.logger.Info("Shutting down event dispatcher", "running_workers", d.pool.Running())

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("Event dispatcher shutdown timed out, pending deliveries dropped")
	}
	d.pool.Release()
}

// Running returns the number of running workers in the pool.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (d *Dispatcher) Capacity() int {
	return d.pool.Cap()
}
