// Package metrics declares the Prometheus collectors exported by the back office.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// Outcome label values
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeInsufficient = "insufficient_balance"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// LedgerOperations counts credit ledger calls by scope, type and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Credit ledger operations by scope, transaction type and outcome.",
}, []string{"scope", "type", "outcome"})

// SystemBalance tracks the current system credit balance.
var SystemBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "system_balance",
	Help:      "Current system credit balance.",
})

// CreditsMoved sums the credits moved by successful ledger operations.
var CreditsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "credits_moved_total",
	Help:      "Credits moved by successful add, deduct and allocate operations.",
}, []string{"scope", "type"})

// SnapshotWrites counts snapshot saves by snapshot name and outcome.
var SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "storage",
	Name:      "snapshot_writes_total",
	Help:      "Snapshot writes by snapshot name and outcome.",
}, []string{"snapshot", "outcome"})

// DirtyCollections reports whether a collection has unsaved changes (1) or not (0).
var DirtyCollections = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "storage",
	Name:      "collection_dirty",
	Help:      "1 when the collection's last snapshot write failed and awaits a flush.",
}, []string{"collection"})

// CollectionSize tracks the number of records per collection.
var CollectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "storage",
	Name:      "collection_records",
	Help:      "Number of records held by each collection.",
}, []string{"collection"})

// EventsPublished counts ledger event deliveries by sink and outcome.
var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Ledger events delivered to sinks by sink and outcome.",
}, []string{"sink", "outcome"})

// HTTPRequests counts gateway requests by route and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status code.",
}, []string{"method", "route", "status"})
