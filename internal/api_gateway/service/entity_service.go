package service

import (
	"context"

	"github.com/infyemailer-backoffice/internal/data/collection"
)

// EntityServiceImpl implements EntityService over a record collection
type EntityServiceImpl[T collection.Record[T], P collection.Patch[T]] struct {
	records *collection.Collection[T]
	prepare func(T) T
	remove  func(ctx context.Context, id int64) error
}

// EntityOption configures an EntityServiceImpl
type EntityOption[T collection.Record[T], P collection.Patch[T]] func(*EntityServiceImpl[T, P])

// WithPrepare rewrites a record before it is created, typically to clear
// fields callers may not set.
func WithPrepare[T collection.Record[T], P collection.Patch[T]](prepare func(T) T) EntityOption[T, P] {
	return func(s *EntityServiceImpl[T, P]) { s.prepare = prepare }
}

// WithDelete replaces the collection delete, for kinds whose delete must run
// under a store-level lock.
func WithDelete[T collection.Record[T], P collection.Patch[T]](remove func(ctx context.Context, id int64) error) EntityOption[T, P] {
	return func(s *EntityServiceImpl[T, P]) { s.remove = remove }
}

// NewEntityService creates a new entity service over records
func NewEntityService[T collection.Record[T], P collection.Patch[T]](records *collection.Collection[T], opts ...EntityOption[T, P]) EntityService[T, P] {
	s := &EntityServiceImpl[T, P]{records: records}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EntityServiceImpl[T, P]) Create(ctx context.Context, rec T) (T, error) {
	if s.prepare != nil {
		rec = s.prepare(rec)
	}
	return s.records.Create(ctx, rec), nil
}

func (s *EntityServiceImpl[T, P]) List(ctx context.Context) []T {
	return s.records.List()
}

func (s *EntityServiceImpl[T, P]) Get(ctx context.Context, id int64) (T, error) {
	return s.records.MustGet(id)
}

func (s *EntityServiceImpl[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	return s.records.Patch(ctx, id, patch)
}

func (s *EntityServiceImpl[T, P]) Delete(ctx context.Context, id int64) error {
	if s.remove != nil {
		return s.remove(ctx, id)
	}
	return s.records.Delete(ctx, id)
}
