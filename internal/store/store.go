// Package store is the single entry point to the back office's data: one
// collection per record kind plus the credit ledger, all persisted through the
// same snapshot backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/data/adapter"
	"github.com/infyemailer-backoffice/internal/data/collection"
	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/ledger"
)

// Storage aggregates the entity collections and the ledger.
type Storage struct {
	clients      *collection.Collection[entity.Client]
	contacts     *collection.Collection[entity.Contact]
	lists        *collection.Collection[entity.List]
	contactLists *collection.Collection[entity.ContactList]
	campaigns    *collection.Collection[entity.Campaign]
	templates    *collection.Collection[entity.Template]
	domains      *collection.Collection[entity.Domain]
	emails       *collection.Collection[entity.Email]
	ledger       *ledger.Ledger

	// membership serializes every change to list memberships, including the
	// cascades of DeleteList and DeleteContact. Taken before any collection lock.
	membership sync.Mutex
	logger     *slog.Logger
}

type options struct {
	publisher ledger.Publisher
	now       func() time.Time
}

type Option func(*options)

// WithPublisher forwards committed ledger entries to p.
func WithPublisher(p ledger.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithClock overrides the time source of every collection and the ledger.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Open loads every collection from backend, seeding defaults into empty ones
// when cfg.Storage.SeedDefaults is set, and wires the ledger over them.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config, backend snapshot.Store, opts ...Option) *Storage {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	seed := cfg.Storage.SeedDefaults

	s := &Storage{logger: logger.With("component", "store")}
	s.clients = openCollection[entity.Client](ctx, logger, adapter.NewClientAdapter(logger, backend), o.now, seed, entity.DefaultClients())
	s.contacts = openCollection[entity.Contact](ctx, logger, adapter.NewContactAdapter(logger, backend), o.now, false, nil)
	s.lists = openCollection[entity.List](ctx, logger, adapter.NewListAdapter(logger, backend), o.now, seed, entity.DefaultLists())
	s.contactLists = openCollection[entity.ContactList](ctx, logger, adapter.NewContactListAdapter(logger, backend), o.now, false, nil)
	s.campaigns = openCollection[entity.Campaign](ctx, logger, adapter.NewCampaignAdapter(logger, backend), o.now, false, nil)
	s.templates = openCollection[entity.Template](ctx, logger, adapter.NewTemplateAdapter(logger, backend), o.now, seed, entity.DefaultTemplates())
	s.domains = openCollection[entity.Domain](ctx, logger, adapter.NewDomainAdapter(logger, backend), o.now, seed, entity.DefaultDomains())
	s.emails = openCollection[entity.Email](ctx, logger, adapter.NewEmailAdapter(logger, backend), o.now, false, nil)

	// Deleting either side of a membership removes the relation first. Use
	// DeleteList and DeleteContact so the cascade runs under s.membership.
	s.lists.OnDelete(func(ctx context.Context, l entity.List) error {
		n := s.contactLists.DeleteWhere(ctx, func(r entity.ContactList) bool { return r.ListID == l.ID })
		s.logger.Debug("Cascaded list delete", "list_id", l.ID, "memberships_removed", n)
		return nil
	})
	s.contacts.OnDelete(func(ctx context.Context, c entity.Contact) error {
		n := s.contactLists.DeleteWhere(ctx, func(r entity.ContactList) bool { return r.ContactID == c.ID })
		s.logger.Debug("Cascaded contact delete", "contact_id", c.ID, "memberships_removed", n)
		return nil
	})

	system := openCollection[credit.SystemCredits](ctx, logger, adapter.NewSystemCreditsAdapter(logger, backend), o.now, true,
		[]credit.SystemCredits{{Balance: cfg.Ledger.InitialSystemBalance}})
	systemHistory := openCollection[credit.HistoryEntry](ctx, logger, adapter.NewSystemHistoryAdapter(logger, backend), o.now, false, nil)
	clientHistory := openCollection[credit.HistoryEntry](ctx, logger, adapter.NewClientHistoryAdapter(logger, backend), o.now, false, nil)

	ledgerOpts := []ledger.Option{ledger.WithClock(o.now)}
	if o.publisher != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(o.publisher))
	}
	s.ledger = ledger.New(ctx, logger, system, s.clients, systemHistory, clientHistory, ledgerOpts...)

	s.logger.Info("Store opened",
		"clients", s.clients.Len(),
		"contacts", s.contacts.Len(),
		"lists", s.lists.Len(),
		"campaigns", s.campaigns.Len(),
		"templates", s.templates.Len(),
		"domains", s.domains.Len(),
		"emails", s.emails.Len(),
	)
	return s
}

func openCollection[T collection.Record[T]](
	ctx context.Context,
	logger *slog.Logger,
	persist collection.Persister[T],
	now func() time.Time,
	seed bool,
	defaults []T,
) *collection.Collection[T] {
	opts := []collection.Option[T]{collection.WithClock[T](now)}
	if seed && len(defaults) > 0 {
		opts = append(opts, collection.WithDefaults(defaults))
	}
	return collection.New[T](ctx, logger, persist, opts...)
}

func (s *Storage) Clients() *collection.Collection[entity.Client]           { return s.clients }
func (s *Storage) Contacts() *collection.Collection[entity.Contact]         { return s.contacts }
func (s *Storage) Lists() *collection.Collection[entity.List]               { return s.lists }
func (s *Storage) ContactLists() *collection.Collection[entity.ContactList] { return s.contactLists }
func (s *Storage) Campaigns() *collection.Collection[entity.Campaign]       { return s.campaigns }
func (s *Storage) Templates() *collection.Collection[entity.Template]       { return s.templates }
func (s *Storage) Domains() *collection.Collection[entity.Domain]           { return s.domains }
func (s *Storage) Emails() *collection.Collection[entity.Email]             { return s.emails }
func (s *Storage) Ledger() *ledger.Ledger                                   { return s.ledger }

// ErrUnknownKind is returned for a kind the store does not hold.
var ErrUnknownKind = errors.New("unknown record kind")

// NextID returns the identifier the next record of kind will receive.
func (s *Storage) NextID(kind entity.Kind) (int64, error) {
	switch kind {
	case entity.KindClient:
		return s.clients.NextID(), nil
	case entity.KindContact:
		return s.contacts.NextID(), nil
	case entity.KindList:
		return s.lists.NextID(), nil
	case entity.KindContactList:
		return s.contactLists.NextID(), nil
	case entity.KindCampaign:
		return s.campaigns.NextID(), nil
	case entity.KindTemplate:
		return s.templates.NextID(), nil
	case entity.KindDomain:
		return s.domains.NextID(), nil
	case entity.KindEmail:
		return s.emails.NextID(), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// AddContactToList records that contactID belongs to listID. Adding an existing
// member returns the existing relation.
func (s *Storage) AddContactToList(ctx context.Context, listID, contactID int64) (entity.ContactList, error) {
	s.membership.Lock()
	defer s.membership.Unlock()

	if _, err := s.lists.MustGet(listID); err != nil {
		return entity.ContactList{}, err
	}
	if _, err := s.contacts.MustGet(contactID); err != nil {
		return entity.ContactList{}, err
	}

	existing := s.contactLists.Find(func(r entity.ContactList) bool {
		return r.ListID == listID && r.ContactID == contactID
	})
	if len(existing) > 0 {
		return existing[0], nil
	}
	return s.contactLists.Create(ctx, entity.ContactList{ListID: listID, ContactID: contactID}), nil
}

// DeleteList deletes a list and its memberships.
func (s *Storage) DeleteList(ctx context.Context, id int64) error {
	s.membership.Lock()
	defer s.membership.Unlock()
	return s.lists.Delete(ctx, id)
}

// DeleteContact deletes a contact and its memberships.
func (s *Storage) DeleteContact(ctx context.Context, id int64) error {
	s.membership.Lock()
	defer s.membership.Unlock()
	return s.contacts.Delete(ctx, id)
}

// RemoveContactFromList deletes the membership of contactID in listID.
func (s *Storage) RemoveContactFromList(ctx context.Context, listID, contactID int64) error {
	s.membership.Lock()
	defer s.membership.Unlock()

	n := s.contactLists.DeleteWhere(ctx, func(r entity.ContactList) bool {
		return r.ListID == listID && r.ContactID == contactID
	})
	if n == 0 {
		return fmt.Errorf("contact %d is not on list %d: %w", contactID, listID, entity.ErrRecordNotFound{Kind: entity.KindContactList})
	}
	return nil
}

// ContactsInList returns the contacts on listID in membership order.
func (s *Storage) ContactsInList(listID int64) ([]entity.Contact, error) {
	if _, err := s.lists.MustGet(listID); err != nil {
		return nil, err
	}

	relations := s.contactLists.Find(func(r entity.ContactList) bool { return r.ListID == listID })
	contacts := make([]entity.Contact, 0, len(relations))
	for _, r := range relations {
		if c, ok := s.contacts.Get(r.ContactID); ok {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}

// Flush retries every dirty snapshot and returns the joined write errors.
func (s *Storage) Flush(ctx context.Context) error {
	return errors.Join(
		s.clients.Flush(ctx),
		s.contacts.Flush(ctx),
		s.lists.Flush(ctx),
		s.contactLists.Flush(ctx),
		s.campaigns.Flush(ctx),
		s.templates.Flush(ctx),
		s.domains.Flush(ctx),
		s.emails.Flush(ctx),
		s.ledger.Flush(ctx),
	)
}

// Close makes a final attempt to write dirty snapshots.
func (s *Storage) Close(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		s.logger.Error("Failed to flush snapshots on close", "error", err)
		return err
	}
	s.logger.Info("Store closed")
	return nil
}
