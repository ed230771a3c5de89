// Package ledger implements the credit ledger: a system-wide balance, a balance
// per client and an append-only history of every change to either.
//
// All balance mutations are serialized by a single mutex. Client balances live
// on the client records themselves and are changed through the client
// collection's Update so that the check-then-apply of a deduct is atomic with
// respect to every other writer of that client.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/infyemailer-backoffice/internal/data/collection"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
)

// Publisher receives history entries once they are committed. Implementations
// must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, entries ...credit.HistoryEntry)
}

// Result is the state left behind by a ledger operation.
type Result struct {
	System  *credit.SystemCredits `json:"system,omitempty"`
	Client  *entity.Client        `json:"client,omitempty"`
	Entries []credit.HistoryEntry `json:"entries"`
}

type Ledger struct {
	mu            sync.Mutex
	system        *collection.Collection[credit.SystemCredits]
	systemID      int64
	clients       *collection.Collection[entity.Client]
	systemHistory *collection.Collection[credit.HistoryEntry]
	clientHistory *collection.Collection[credit.HistoryEntry]
	publisher     Publisher
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Ledger)

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New wires the ledger over its collections. When system holds no record one
// is created with a zero balance.
func New(
	ctx context.Context,
	logger *slog.Logger,
	system *collection.Collection[credit.SystemCredits],
	clients *collection.Collection[entity.Client],
	systemHistory *collection.Collection[credit.HistoryEntry],
	clientHistory *collection.Collection[credit.HistoryEntry],
	opts ...Option,
) *Ledger {
	l := &Ledger{
		system:        system,
		clients:       clients,
		systemHistory: systemHistory,
		clientHistory: clientHistory,
		logger:        logger.With("component", "ledger"),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}

	records := system.List()
	if len(records) == 0 {
		rec := system.Create(ctx, credit.SystemCredits{})
		l.systemID = rec.ID
	} else {
		l.systemID = records[0].ID
		if len(records) > 1 {
			l.logger.Warn("Multiple system credit records found, using the first", "id", l.systemID, "count", len(records))
		}
	}

	sys, _ := system.Get(l.systemID)
	metrics.SystemBalance.Set(float64(sys.Balance))
	l.logger.Info("Ledger ready", "system_balance", sys.Balance)
	return l
}

// SystemBalance returns the current system credits.
func (l *Ledger) SystemBalance() credit.SystemCredits {
	sys, _ := l.system.Get(l.systemID)
	return sys
}

// ClientBalance returns the client record carrying its credit fields.
func (l *Ledger) ClientBalance(clientID int64) (entity.Client, error) {
	return l.clients.MustGet(clientID)
}

// AddSystemCredits increases the system balance by amount.
func (l *Ledger) AddSystemCredits(ctx context.Context, amount, actorID int64, reason string) (*Result, error) {
	if err := requirePositive(amount); err != nil {
		l.record(credit.ScopeSystem, credit.TransactionAdd, err)
		return nil, err
	}
	return l.changeSystem(ctx, credit.TransactionAdd, amount, actorID, reason, func(balance int64) (int64, error) {
		return credit.Add(balance, amount)
	})
}

// DeductSystemCredits decreases the system balance by amount. The balance
// never goes negative.
func (l *Ledger) DeductSystemCredits(ctx context.Context, amount, actorID int64, reason string) (*Result, error) {
	if err := requirePositive(amount); err != nil {
		l.record(credit.ScopeSystem, credit.TransactionDeduct, err)
		return nil, err
	}
	return l.changeSystem(ctx, credit.TransactionDeduct, amount, actorID, reason, func(balance int64) (int64, error) {
		if amount > balance {
			return 0, credit.InsufficientBalanceError{Scope: credit.ScopeSystem, Balance: balance, Requested: amount}
		}
		return balance - amount, nil
	})
}

// SetSystemCredits replaces the system balance. The entry amount is the signed delta.
func (l *Ledger) SetSystemCredits(ctx context.Context, amount, actorID int64, reason string) (*Result, error) {
	if err := requireNonNegative(amount); err != nil {
		l.record(credit.ScopeSystem, credit.TransactionSet, err)
		return nil, err
	}
	return l.changeSystem(ctx, credit.TransactionSet, amount, actorID, reason, func(int64) (int64, error) {
		return amount, nil
	})
}

func (l *Ledger) changeSystem(
	ctx context.Context,
	txType credit.TransactionType,
	amount, actorID int64,
	reason string,
	apply func(balance int64) (int64, error),
) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var previous int64
	updated, err := l.system.Update(ctx, l.systemID, func(s credit.SystemCredits) (credit.SystemCredits, error) {
		next, err := apply(s.Balance)
		if err != nil {
			return s, err
		}
		previous = s.Balance
		s.Balance = next
		s.LastReason = reason
		s.LastActorID = actorID
		return s, nil
	})
	if err != nil {
		l.record(credit.ScopeSystem, txType, err)
		l.logger.Warn("System credit change rejected", "type", txType, "amount", amount, "error", err)
		return nil, err
	}

	entryAmount := amount
	if txType == credit.TransactionSet {
		entryAmount = updated.Balance - previous
	}
	entry := l.systemHistory.Create(ctx, credit.HistoryEntry{
		Scope:           credit.ScopeSystem,
		Type:            txType,
		Amount:          entryAmount,
		PreviousBalance: previous,
		NewBalance:      updated.Balance,
		Reason:          reason,
		ActorID:         actorID,
		CreatedAt:       l.now(),
	})

	l.record(credit.ScopeSystem, txType, nil)
	l.moved(credit.ScopeSystem, txType, entryAmount)
	metrics.SystemBalance.Set(float64(updated.Balance))
	l.logger.Info("System credits changed",
		"type", txType, "amount", entryAmount,
		"previous_balance", previous, "new_balance", updated.Balance,
		"actor_id", actorID, "entry_id", entry.ID,
	)
	l.publish(ctx, entry)

	return &Result{System: &updated, Entries: []credit.HistoryEntry{entry}}, nil
}

// AddClientCredits increases a client's balance and purchased total by amount.
func (l *Ledger) AddClientCredits(ctx context.Context, clientID, amount, actorID int64, reason string) (*Result, error) {
	if err := requirePositive(amount); err != nil {
		l.record(credit.ScopeClient, credit.TransactionAdd, err)
		return nil, err
	}
	return l.changeClient(ctx, clientID, credit.TransactionAdd, amount, actorID, reason, nil, func(c entity.Client) (entity.Client, error) {
		return creditClient(c, amount)
	})
}

// creditClient adds amount to the balance and the purchased total, leaving c
// unchanged when either would overflow.
func creditClient(c entity.Client, amount int64) (entity.Client, error) {
	credits, err := credit.Add(c.Credits, amount)
	if err != nil {
		return c, err
	}
	purchased, err := credit.Add(c.CreditsPurchased, amount)
	if err != nil {
		return c, err
	}
	c.Credits = credits
	c.CreditsPurchased = purchased
	return c, nil
}

// DeductClientCredits decreases a client's balance by amount and adds it to the
// used total. A client balance never goes negative.
func (l *Ledger) DeductClientCredits(ctx context.Context, clientID, amount, actorID int64, reason string) (*Result, error) {
	if err := requirePositive(amount); err != nil {
		l.record(credit.ScopeClient, credit.TransactionDeduct, err)
		return nil, err
	}
	return l.changeClient(ctx, clientID, credit.TransactionDeduct, amount, actorID, reason, nil, func(c entity.Client) (entity.Client, error) {
		if amount > c.Credits {
			return c, credit.InsufficientBalanceError{Scope: credit.ScopeClient, ClientID: c.ID, Balance: c.Credits, Requested: amount}
		}
		used, err := credit.Add(c.CreditsUsed, amount)
		if err != nil {
			return c, err
		}
		c.Credits -= amount
		c.CreditsUsed = used
		return c, nil
	})
}

// SetClientCredits replaces a client's balance. Purchased and used totals are left as they are.
func (l *Ledger) SetClientCredits(ctx context.Context, clientID, amount, actorID int64, reason string) (*Result, error) {
	if err := requireNonNegative(amount); err != nil {
		l.record(credit.ScopeClient, credit.TransactionSet, err)
		return nil, err
	}
	return l.changeClient(ctx, clientID, credit.TransactionSet, amount, actorID, reason, nil, func(c entity.Client) (entity.Client, error) {
		c.Credits = amount
		return c, nil
	})
}

func (l *Ledger) changeClient(
	ctx context.Context,
	clientID int64,
	txType credit.TransactionType,
	amount, actorID int64,
	reason string,
	meta *credit.Metadata,
	apply func(entity.Client) (entity.Client, error),
) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated, entry, err := l.applyClientLocked(ctx, clientID, txType, amount, actorID, reason, meta, apply)
	l.record(credit.ScopeClient, txType, err)
	if err != nil {
		l.logger.Warn("Client credit change rejected", "client_id", clientID, "type", txType, "amount", amount, "error", err)
		return nil, err
	}

	l.moved(credit.ScopeClient, txType, entry.Amount)
	l.publish(ctx, entry)
	return &Result{Client: &updated, Entries: []credit.HistoryEntry{entry}}, nil
}

// applyClientLocked changes one client balance and appends its history entry.
// The caller holds l.mu.
func (l *Ledger) applyClientLocked(
	ctx context.Context,
	clientID int64,
	txType credit.TransactionType,
	amount, actorID int64,
	reason string,
	meta *credit.Metadata,
	apply func(entity.Client) (entity.Client, error),
) (entity.Client, credit.HistoryEntry, error) {
	now := l.now()
	var previous int64
	updated, err := l.clients.Update(ctx, clientID, func(c entity.Client) (entity.Client, error) {
		previous = c.Credits
		next, err := apply(c)
		if err != nil {
			return c, err
		}
		next.CreditsLastUpdated = &now
		return next, nil
	})
	if err != nil {
		return entity.Client{}, credit.HistoryEntry{}, err
	}

	entryAmount := amount
	if txType == credit.TransactionSet {
		entryAmount = updated.Credits - previous
	}
	entry := l.clientHistory.Create(ctx, credit.HistoryEntry{
		Scope:           credit.ScopeClient,
		ClientID:        clientID,
		Type:            txType,
		Amount:          entryAmount,
		PreviousBalance: previous,
		NewBalance:      updated.Credits,
		Reason:          reason,
		ActorID:         actorID,
		CreatedAt:       now,
		Metadata:        meta,
	})

	l.logger.Info("Client credits changed",
		"client_id", clientID, "type", txType, "amount", entryAmount,
		"previous_balance", previous, "new_balance", updated.Credits,
		"actor_id", actorID, "entry_id", entry.ID,
	)
	return updated, entry, nil
}

// AllocateClientCreditsFromSystem moves amount from the system balance to a
// client. Either both balances change and both entries are written, or
// nothing changes.
func (l *Ledger) AllocateClientCreditsFromSystem(ctx context.Context, clientID, amount, actorID int64, reason string) (*Result, error) {
	res, err := l.allocate(ctx, clientID, amount, actorID, reason)
	l.record(credit.ScopeSystem, credit.TransactionAllocate, err)
	if err != nil {
		l.logger.Warn("Allocation rejected", "client_id", clientID, "amount", amount, "error", err)
		return nil, err
	}
	return res, nil
}

func (l *Ledger) allocate(ctx context.Context, clientID, amount, actorID int64, reason string) (*Result, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// 1. Preconditions, checked before anything changes
	client, err := l.clients.MustGet(clientID)
	if err != nil {
		return nil, err
	}
	sys, _ := l.system.Get(l.systemID)
	if amount > sys.Balance {
		return nil, credit.InsufficientBalanceError{Scope: credit.ScopeSystem, Balance: sys.Balance, Requested: amount}
	}
	if _, err := creditClient(client, amount); err != nil {
		return nil, err
	}

	// 2. Credit the client. A client deleted since the check leaves the system untouched.
	now := l.now()
	var clientPrevious int64
	updatedClient, err := l.clients.Update(ctx, clientID, func(c entity.Client) (entity.Client, error) {
		clientPrevious = c.Credits
		next, err := creditClient(c, amount)
		if err != nil {
			return c, err
		}
		next.CreditsLastUpdated = &now
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Debit the system. The mutex guarantees the balance checked above still holds.
	updatedSystem, err := l.system.Update(ctx, l.systemID, func(s credit.SystemCredits) (credit.SystemCredits, error) {
		s.Balance -= amount
		s.LastReason = reason
		s.LastActorID = actorID
		return s, nil
	})
	if err != nil {
		l.rollbackClient(ctx, clientID, clientPrevious, amount)
		return nil, fmt.Errorf("failed to debit system credits: %w", err)
	}

	// 4. History, system side first so the client entry can link to it
	systemEntry := l.systemHistory.Create(ctx, credit.HistoryEntry{
		Scope:           credit.ScopeSystem,
		Type:            credit.TransactionAllocate,
		Amount:          amount,
		PreviousBalance: sys.Balance,
		NewBalance:      updatedSystem.Balance,
		Reason:          reason,
		ActorID:         actorID,
		CreatedAt:       now,
		Metadata:        &credit.Metadata{ClientID: clientID, ClientName: client.Name},
	})
	clientEntry := l.clientHistory.Create(ctx, credit.HistoryEntry{
		Scope:           credit.ScopeClient,
		ClientID:        clientID,
		Type:            credit.TransactionAdd,
		Amount:          amount,
		PreviousBalance: clientPrevious,
		NewBalance:      updatedClient.Credits,
		Reason:          reason,
		ActorID:         actorID,
		CreatedAt:       now,
		Metadata:        &credit.Metadata{Source: credit.SourceSystem, LinkedEntryID: systemEntry.ID},
	})

	metrics.SystemBalance.Set(float64(updatedSystem.Balance))
	l.moved(credit.ScopeSystem, credit.TransactionAllocate, amount)
	l.logger.Info("Credits allocated to client",
		"client_id", clientID, "amount", amount,
		"system_balance", updatedSystem.Balance, "client_balance", updatedClient.Credits,
		"system_entry_id", systemEntry.ID, "client_entry_id", clientEntry.ID,
	)
	l.publish(ctx, systemEntry, clientEntry)

	return &Result{
		System:  &updatedSystem,
		Client:  &updatedClient,
		Entries: []credit.HistoryEntry{systemEntry, clientEntry},
	}, nil
}

// rollbackClient undoes the client side of a failed allocation.
func (l *Ledger) rollbackClient(ctx context.Context, clientID, previous, amount int64) {
	_, err := l.clients.Update(ctx, clientID, func(c entity.Client) (entity.Client, error) {
		c.Credits = previous
		c.CreditsPurchased -= amount
		return c, nil
	})
	if err != nil {
		l.logger.Error("Failed to roll back client credit after allocation failure", "client_id", clientID, "error", err)
	}
}

// SystemHistory returns system entries matching filter, newest first.
func (l *Ledger) SystemHistory(filter credit.HistoryFilter) []credit.HistoryEntry {
	return credit.Select(l.systemHistory.List(), filter)
}

// ClientHistory returns one client's entries matching filter, newest first.
func (l *Ledger) ClientHistory(clientID int64, filter credit.HistoryFilter) []credit.HistoryEntry {
	entries := l.clientHistory.Find(func(e credit.HistoryEntry) bool { return e.ClientID == clientID })
	return credit.Select(entries, filter)
}

// Flush retries the snapshot writes of every ledger collection that is dirty.
func (l *Ledger) Flush(ctx context.Context) error {
	return errors.Join(
		l.system.Flush(ctx),
		l.systemHistory.Flush(ctx),
		l.clientHistory.Flush(ctx),
	)
}

func (l *Ledger) publish(ctx context.Context, entries ...credit.HistoryEntry) {
	if l.publisher == nil {
		return
	}
	l.publisher.Publish(ctx, entries...)
}

func (l *Ledger) record(scope credit.Scope, txType credit.TransactionType, err error) {
	metrics.LedgerOperations.WithLabelValues(string(scope), string(txType), outcome(err)).Inc()
}

func (l *Ledger) moved(scope credit.Scope, txType credit.TransactionType, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	metrics.CreditsMoved.WithLabelValues(string(scope), string(txType)).Add(float64(amount))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, credit.ErrInsufficientBalance):
		return metrics.OutcomeInsufficient
	case errors.Is(err, entity.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, credit.ErrInvalidAmount):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func requirePositive(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d", credit.ErrInvalidAmount, amount)
	}
	return nil
}

func requireNonNegative(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount must not be negative, got %d", credit.ErrInvalidAmount, amount)
	}
	return nil
}
