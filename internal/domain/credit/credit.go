// Package credit holds the credit ledger's data types: the system balance,
// immutable history entries and the filters used to query them.
package credit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/platform/codec"
)

// Snapshot names of the ledger's persisted collections.
const (
	SystemCreditsSnapshot = "system_credits"
	SystemHistorySnapshot = "system_credit_history"
	ClientHistorySnapshot = "client_credit_history"
)

// Scope identifies which balance a history entry belongs to.
type Scope string

const (
	ScopeSystem Scope = "system"
	ScopeClient Scope = "client"
)

// TransactionType is the kind of balance mutation an entry records.
type TransactionType string

const (
	TransactionAdd      TransactionType = "add"
	TransactionDeduct   TransactionType = "deduct"
	TransactionSet      TransactionType = "set"
	TransactionAllocate TransactionType = "allocate" // system scope only
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionAdd, TransactionDeduct, TransactionSet, TransactionAllocate:
		return true
	}
	return false
}

// SourceSystem marks a client entry funded by a system allocation.
const SourceSystem = "system"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrBalanceOverflow     = errors.New("balance overflow")

	// ErrClientNotFound matches a missing client of any id.
	ErrClientNotFound = entity.ErrRecordNotFound{Kind: entity.KindClient}
)

// Add returns total + amount for a positive amount. A sum that does not fit in an
// int64 is rejected with an error matching both ErrBalanceOverflow and ErrInvalidAmount.
func Add(total, amount int64) (int64, error) {
	if amount > math.MaxInt64-total {
		return total, fmt.Errorf("%w: %w: %d + %d exceeds %d", ErrInvalidAmount, ErrBalanceOverflow, total, amount, int64(math.MaxInt64))
	}
	return total + amount, nil
}

// InsufficientBalanceError describes a rejected deduct or allocation.
type InsufficientBalanceError struct {
	Scope     Scope
	ClientID  int64
	Balance   int64
	Requested int64
}

func (e InsufficientBalanceError) Error() string {
	if e.Scope == ScopeClient {
		return fmt.Sprintf("insufficient balance for client %d: requested %d, available %d", e.ClientID, e.Requested, e.Balance)
	}
	return fmt.Sprintf("insufficient system balance: requested %d, available %d", e.Requested, e.Balance)
}

func (e InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Metadata is the free-form context attached to an entry.
type Metadata struct {
	ClientID      int64             `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ClientName    string            `json:"client_name,omitempty" bson:"client_name,omitempty"`
	Source        string            `json:"source,omitempty" bson:"source,omitempty"`
	LinkedEntryID int64             `json:"linked_entry_id,omitempty" bson:"linked_entry_id,omitempty"`
	Notes         map[string]string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// HistoryEntry is an immutable audit record of one balance mutation.
//
// For add, NewBalance = PreviousBalance + Amount. For deduct and allocate the
// amount is subtracted. For set, Amount is the signed delta.
type HistoryEntry struct {
	ID              int64           `json:"id" bson:"entry_id"`
	Scope           Scope           `json:"scope" bson:"scope"`
	ClientID        int64           `json:"client_id,omitempty" bson:"client_id,omitempty"`
	Type            TransactionType `json:"type" bson:"type"`
	Amount          int64           `json:"amount" bson:"amount"`
	PreviousBalance int64           `json:"previous_balance" bson:"previous_balance"`
	NewBalance      int64           `json:"new_balance" bson:"new_balance"`
	Reason          string          `json:"reason" bson:"reason"`
	ActorID         int64           `json:"actor_id" bson:"actor_id"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	Metadata        *Metadata       `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

func (e HistoryEntry) GetID() int64 { return e.ID }

// WithIdentity assigns the entry identifier. A creation time set by the ledger is kept.
func (e HistoryEntry) WithIdentity(id int64, now time.Time) HistoryEntry {
	e.ID = id
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return e
}

// Touched is a no-op; entries are never updated.
func (e HistoryEntry) Touched(time.Time) HistoryEntry { return e }

func (e HistoryEntry) Rehydrate() HistoryEntry {
	e.CreatedAt = codec.Time(e.CreatedAt)
	return e
}

// SystemCreditsID is the identifier of the only SystemCredits record.
const SystemCreditsID int64 = 1

// SystemCredits is the single process-wide balance. It is persisted as a
// one-element snapshot whose ID is always SystemCreditsID.
type SystemCredits struct {
	ID          int64     `json:"id"`
	Balance     int64     `json:"balance"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastReason  string    `json:"last_reason,omitempty"`
	LastActorID int64     `json:"last_actor_id,omitempty"`
}

func (s SystemCredits) GetID() int64 { return s.ID }

func (s SystemCredits) WithIdentity(id int64, now time.Time) SystemCredits {
	s.ID = id
	s.UpdatedAt = now
	if s.Balance < 0 {
		s.Balance = 0
	}
	return s
}

func (s SystemCredits) Touched(now time.Time) SystemCredits {
	s.UpdatedAt = now
	return s
}

func (s SystemCredits) Rehydrate() SystemCredits {
	s.UpdatedAt = codec.Time(s.UpdatedAt)
	return s
}
