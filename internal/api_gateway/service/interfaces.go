package service

import (
	"context"

	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/ledger"
)

// EntityService defines the CRUD operations shared by every record kind
type EntityService[T any, P any] interface {
	// Create stores rec under a newly assigned identifier and returns the stored record
	Create(ctx context.Context, rec T) (T, error)

	// List returns every record in insertion order
	List(ctx context.Context) []T

	// Get retrieves a record by its ID
	// Returns an error matching entity.ErrNotFound if the record doesn't exist
	Get(ctx context.Context, id int64) (T, error)

	// Update merges patch over the stored record
	Update(ctx context.Context, id int64, patch P) (T, error)

	// Delete removes the record and anything that references it
	Delete(ctx context.Context, id int64) error
}

// MembershipService defines the list membership operations
type MembershipService interface {
	// Contacts returns the contacts belonging to a list
	Contacts(ctx context.Context, listID int64) ([]entity.Contact, error)

	// AddContact adds a contact to a list. Adding an existing member is a no-op
	AddContact(ctx context.Context, listID, contactID int64) (entity.ContactList, error)

	// RemoveContact removes a contact from a list
	RemoveContact(ctx context.Context, listID, contactID int64) error
}

// CreditService defines the credit ledger operations exposed over HTTP
type CreditService interface {
	SystemBalance(ctx context.Context) credit.SystemCredits

	// ChangeSystem applies an add, deduct or set to the system balance
	ChangeSystem(ctx context.Context, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error)

	SystemHistory(ctx context.Context, filter credit.HistoryFilter) []credit.HistoryEntry

	// ClientBalance returns the client record carrying its credit fields
	ClientBalance(ctx context.Context, clientID int64) (entity.Client, error)

	// ChangeClient applies an add, deduct, set or allocate to a client balance.
	// An allocate moves the amount from the system balance.
	ChangeClient(ctx context.Context, clientID int64, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error)

	// ClientHistory returns the history of an existing client
	ClientHistory(ctx context.Context, clientID int64, filter credit.HistoryFilter) ([]credit.HistoryEntry, error)
}
