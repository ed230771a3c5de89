package credit

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// LedgerEvent announces a committed history entry to downstream sinks.
type LedgerEvent struct {
	EventID    uuid.UUID    `json:"event_id" bson:"event_id"`
	Entry      HistoryEntry `json:"entry" bson:"entry"`
	OccurredAt time.Time    `json:"occurred_at" bson:"occurred_at"`
}

func NewLedgerEvent(entry HistoryEntry, now time.Time) *LedgerEvent {
	return &LedgerEvent{
		EventID:    uuid.New(),
		Entry:      entry,
		OccurredAt: now,
	}
}

// Key identifies the balance the event belongs to, so that all events of one
// balance land on the same partition.
func (e *LedgerEvent) Key() string {
	if e.Entry.Scope == ScopeClient {
		return "client-" + strconv.FormatInt(e.Entry.ClientID, 10)
	}
	return string(ScopeSystem)
}
