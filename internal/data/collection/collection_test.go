package collection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/infyemailer-backoffice/internal/data/adapter"
	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPersister[T any] struct {
	mock.Mock
	name string
}

func (m *MockPersister[T]) Name() string { return m.name }

func (m *MockPersister[T]) Save(ctx context.Context, records []T) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockPersister[T]) Load(ctx context.Context) []T {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]T)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func clock() func() time.Time {
	return func() time.Time { return fixedNow }
}

func newTemplates(t *testing.T, store snapshot.Store, opts ...Option[entity.Template]) *Collection[entity.Template] {
	t.Helper()
	opts = append([]Option[entity.Template]{WithClock[entity.Template](clock())}, opts...)
	return New[entity.Template](context.Background(), discardLogger(), adapter.NewTemplateAdapter(discardLogger(), store), opts...)
}

func TestCollection_IdentifierSequence(t *testing.T) {
	ctx := context.Background()
	c := newTemplates(t, snapshot.NewMemoryStore())

	assert.Equal(t, int64(1), c.NextID())
	a := c.Create(ctx, entity.Template{Name: "a"})
	b := c.Create(ctx, entity.Template{Name: "b"})
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	require.NoError(t, c.Delete(ctx, b.ID))
	d := c.Create(ctx, entity.Template{Name: "d"})
	assert.Equal(t, int64(3), d.ID, "identifiers are never reused within a process")

	_, err := c.Patch(ctx, a.ID, entity.TemplatePatch{Name: ptr("a2")})
	require.NoError(t, err)
	e := c.Create(ctx, entity.Template{Name: "e"})
	assert.Equal(t, int64(4), e.ID)
}

func TestCollection_CreateStampsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	c := newTemplates(t, store)

	got := c.Create(ctx, entity.Template{Name: "Welcome", Content: "hi"})
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Equal(t, "general", got.Category)

	stored, ok := c.Get(got.ID)
	require.True(t, ok)
	assert.Equal(t, got, stored)

	reloaded := adapter.NewTemplateAdapter(discardLogger(), store).Load(ctx)
	assert.Equal(t, []entity.Template{got}, reloaded)
}

func TestCollection_GetMissing(t *testing.T) {
	c := newTemplates(t, snapshot.NewMemoryStore())
	_, ok := c.Get(42)
	assert.False(t, ok)

	_, err := c.MustGet(42)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.ErrorIs(t, err, entity.ErrRecordNotFound{Kind: entity.KindTemplate, ID: 42})
}

func TestCollection_Update(t *testing.T) {
	ctx := context.Background()
	later := fixedNow.Add(time.Hour)
	now := fixedNow
	c := New[entity.Template](ctx, discardLogger(), adapter.NewTemplateAdapter(discardLogger(), snapshot.NewMemoryStore()),
		WithClock[entity.Template](func() time.Time { return now }))

	orig := c.Create(ctx, entity.Template{Name: "Welcome", Subject: "Hello"})
	now = later

	t.Run("merges patch and restamps", func(t *testing.T) {
		got, err := c.Patch(ctx, orig.ID, entity.TemplatePatch{Subject: ptr("Hi there")})
		require.NoError(t, err)
		assert.Equal(t, "Welcome", got.Name)
		assert.Equal(t, "Hi there", got.Subject)
		assert.Equal(t, fixedNow, got.CreatedAt)
		require.NotNil(t, got.UpdatedAt)
		assert.Equal(t, later, *got.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Patch(ctx, 99, entity.TemplatePatch{})
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("mutator error leaves record unchanged", func(t *testing.T) {
		before, _ := c.Get(orig.ID)
		boom := errors.New("boom")
		_, err := c.Update(ctx, orig.ID, func(t entity.Template) (entity.Template, error) {
			t.Name = "changed"
			return t, boom
		})
		assert.ErrorIs(t, err, boom)
		after, _ := c.Get(orig.ID)
		assert.Equal(t, before, after)
	})

	t.Run("identifier cannot change", func(t *testing.T) {
		_, err := c.Update(ctx, orig.ID, func(t entity.Template) (entity.Template, error) {
			t.ID = 77
			return t, nil
		})
		assert.Error(t, err)
		_, ok := c.Get(77)
		assert.False(t, ok)
	})
}

func TestCollection_DeleteAndCascade(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	log := discardLogger()

	lists := New[entity.List](ctx, log, adapter.NewListAdapter(log, store))
	relations := New[entity.ContactList](ctx, log, adapter.NewContactListAdapter(log, store))
	lists.OnDelete(func(ctx context.Context, l entity.List) error {
		relations.DeleteWhere(ctx, func(r entity.ContactList) bool { return r.ListID == l.ID })
		return nil
	})

	news := lists.Create(ctx, entity.List{Name: "News"})
	other := lists.Create(ctx, entity.List{Name: "Other"})
	relations.Create(ctx, entity.ContactList{ContactID: 1, ListID: news.ID})
	relations.Create(ctx, entity.ContactList{ContactID: 2, ListID: news.ID})
	keep := relations.Create(ctx, entity.ContactList{ContactID: 1, ListID: other.ID})

	require.NoError(t, lists.Delete(ctx, news.ID))

	assert.Equal(t, []entity.ContactList{keep}, relations.List())
	assert.Equal(t, []entity.ContactList{keep}, adapter.NewContactListAdapter(log, store).Load(ctx))
	assert.Equal(t, []entity.List{other}, adapter.NewListAdapter(log, store).Load(ctx))

	assert.ErrorIs(t, lists.Delete(ctx, news.ID), entity.ErrNotFound)
}

func TestCollection_DeleteHookErrorAborts(t *testing.T) {
	ctx := context.Background()
	c := newTemplates(t, snapshot.NewMemoryStore())
	rec := c.Create(ctx, entity.Template{Name: "keep"})

	veto := errors.New("in use")
	c.OnDelete(func(context.Context, entity.Template) error { return veto })

	err := c.Delete(ctx, rec.ID)
	assert.ErrorIs(t, err, veto)
	_, ok := c.Get(rec.ID)
	assert.True(t, ok)
}

func TestCollection_LoadReplacesDefaults(t *testing.T) {
	ctx := context.Background()
	defaults := WithDefaults(entity.DefaultTemplates())

	t.Run("empty load seeds defaults", func(t *testing.T) {
		c := newTemplates(t, snapshot.NewMemoryStore(), defaults)
		require.Equal(t, len(entity.DefaultTemplates()), c.Len())
		assert.Equal(t, int64(1), c.List()[0].ID)
		assert.Equal(t, int64(len(entity.DefaultTemplates())+1), c.NextID())
	})

	t.Run("loaded records win and counter is recomputed", func(t *testing.T) {
		store := snapshot.NewMemoryStore()
		persisted := []entity.Template{
			{ID: 4, Name: "Four", CreatedAt: fixedNow},
			{ID: 9, Name: "Nine", CreatedAt: fixedNow},
		}
		require.NoError(t, adapter.NewTemplateAdapter(discardLogger(), store).Save(ctx, persisted))

		c := newTemplates(t, store, defaults)
		assert.Equal(t, persisted, c.List())
		assert.Equal(t, int64(10), c.NextID())
	})
}

func TestCollection_SaveFailureIsSwallowedAndFlushed(t *testing.T) {
	ctx := context.Background()
	persister := &MockPersister[entity.Domain]{name: "domains"}
	persister.On("Load", mock.Anything).Return([]entity.Domain{}).Once()
	writeErr := errors.New("disk full")
	persister.On("Save", mock.Anything, mock.Anything).Return(writeErr).Once()

	c := New[entity.Domain](ctx, discardLogger(), persister, WithClock[entity.Domain](clock()))

	got := c.Create(ctx, entity.Domain{Name: "mail.acme.io"})
	assert.Equal(t, int64(1), got.ID)
	assert.True(t, c.Dirty())
	_, ok := c.Get(got.ID)
	assert.True(t, ok, "in-memory state stands after a failed save")

	persister.On("Save", mock.Anything, []entity.Domain{got}).Return(nil).Once()
	require.NoError(t, c.Flush(ctx))
	assert.False(t, c.Dirty())

	// clean collection does not write
	require.NoError(t, c.Flush(ctx))
	persister.AssertExpectations(t)
	persister.AssertNumberOfCalls(t, "Save", 2)
}

func TestCollection_FindAndDeleteWhere(t *testing.T) {
	ctx := context.Background()
	c := newTemplates(t, snapshot.NewMemoryStore())
	c.Create(ctx, entity.Template{Name: "a", Category: "x"})
	c.Create(ctx, entity.Template{Name: "b", Category: "y"})
	c.Create(ctx, entity.Template{Name: "c", Category: "x"})

	inX := func(t entity.Template) bool { return t.Category == "x" }
	assert.Len(t, c.Find(inX), 2)
	assert.Equal(t, 0, c.DeleteWhere(ctx, func(entity.Template) bool { return false }))
	assert.Equal(t, 2, c.DeleteWhere(ctx, inX))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "b", c.List()[0].Name)
}

func TestCollection_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	c := newTemplates(t, snapshot.NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Create(ctx, entity.Template{Name: "t"})
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, rec := range c.List() {
		assert.False(t, seen[rec.ID], "duplicate id %d", rec.ID)
		seen[rec.ID] = true
	}
	assert.Len(t, seen, 50)
	assert.Equal(t, int64(51), c.NextID())
}

func ptr[T any](v T) *T { return &v }
