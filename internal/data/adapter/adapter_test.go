package adapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Write(ctx context.Context, name string, payload []byte) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}

func (m *MockStore) Read(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	a := NewClientAdapter(discardLogger(), store)

	clients := []entity.Client{
		{
			ID: 1, Name: "Acme", Email: "ops@acme.io", Status: entity.ClientStatusActive,
			Credits: 200, CreditsPurchased: 250, CreditsUsed: 50,
			CreditsLastUpdated: tsPtr("2024-02-01T10:00:00Z"),
			LastLogin:          tsPtr("2024-02-03T08:30:15.250Z"),
			CreatedAt:          ts("2024-01-01T00:00:00Z"),
			UpdatedAt:          tsPtr("2024-02-01T10:00:00Z"),
		},
		{ID: 3, Name: "Globex", Status: entity.ClientStatusSuspended, CreatedAt: ts("2024-01-05T12:00:00Z")},
	}

	require.NoError(t, a.Save(ctx, clients))
	loaded := a.Load(ctx)
	assert.Equal(t, clients, loaded)
	assert.Nil(t, loaded[1].LastLogin)
	assert.Equal(t, int64(4), a.NextID(loaded))
}

func TestAdapter_HistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	a := NewSystemHistoryAdapter(discardLogger(), store)

	entries := []credit.HistoryEntry{{
		ID: 1, Scope: credit.ScopeSystem, Type: credit.TransactionAllocate, Amount: 5000,
		PreviousBalance: 100000, NewBalance: 95000, Reason: "Q1 grant", ActorID: 1,
		CreatedAt: ts("2024-03-01T09:00:00Z"),
		Metadata:  &credit.Metadata{ClientID: 3, ClientName: "Acme"},
	}}

	require.NoError(t, a.Save(ctx, entries))
	assert.Equal(t, entries, a.Load(ctx))
}

func TestAdapter_LoadNeverFails(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(m *MockStore)
	}{
		{"missing snapshot", func(m *MockStore) {
			m.On("Read", ctx, "lists").Return(nil, snapshot.ErrNotFound)
		}},
		{"read error", func(m *MockStore) {
			m.On("Read", ctx, "lists").Return(nil, errors.New("disk on fire"))
		}},
		{"unparsable payload", func(m *MockStore) {
			m.On("Read", ctx, "lists").Return([]byte(`{not json`), nil)
		}},
		{"object instead of array", func(m *MockStore) {
			m.On("Read", ctx, "lists").Return([]byte(`{"id":1}`), nil)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			tc.setup(store)
			a := NewListAdapter(discardLogger(), store)

			got := a.Load(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			store.AssertExpectations(t)
		})
	}
}

func TestAdapter_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	writeErr := errors.New("read-only file system")
	store.On("Write", ctx, "contact_lists", mock.Anything).Return(writeErr)

	a := NewContactListAdapter(discardLogger(), store)
	err := a.Save(ctx, []entity.ContactList{{ID: 1, ContactID: 2, ListID: 3}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, writeErr)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "contact_lists", perr.Snapshot)
	assert.Equal(t, "write", perr.Op)
}

func TestAdapter_SaveWritesJSONArray(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	a := NewEmailAdapter(discardLogger(), store)

	require.NoError(t, a.Save(ctx, nil))
	data, err := store.Read(ctx, "emails")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestNextID(t *testing.T) {
	assert.Equal(t, int64(1), NextID[entity.List](nil))
	assert.Equal(t, int64(8), NextID([]entity.List{{ID: 3}, {ID: 7}, {ID: 1}}))
}

func TestKindAdapterNames(t *testing.T) {
	store := snapshot.NewMemoryStore()
	log := discardLogger()
	assert.Equal(t, "clients", NewClientAdapter(log, store).Name())
	assert.Equal(t, "contacts", NewContactAdapter(log, store).Name())
	assert.Equal(t, "lists", NewListAdapter(log, store).Name())
	assert.Equal(t, "contact_lists", NewContactListAdapter(log, store).Name())
	assert.Equal(t, "campaigns", NewCampaignAdapter(log, store).Name())
	assert.Equal(t, "templates", NewTemplateAdapter(log, store).Name())
	assert.Equal(t, "domains", NewDomainAdapter(log, store).Name())
	assert.Equal(t, "emails", NewEmailAdapter(log, store).Name())
	assert.Equal(t, "system_credits", NewSystemCreditsAdapter(log, store).Name())
	assert.Equal(t, "system_credit_history", NewSystemHistoryAdapter(log, store).Name())
	assert.Equal(t, "client_credit_history", NewClientHistoryAdapter(log, store).Name())
}
