package store

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"darkwave/pkg/domain"
)

// LazyGormStore opens the database on first use. A failed open is retried on
// the next call, so the service can start while Postgres is down and pick it
// up once the connectivity probe succeeds. One caller dials at a time; the
// others wait no longer than their own context allows.
type LazyGormStore struct {
	dsn  string
	open func(ctx context.Context, dsn string) (*GormStore, error)

	dial singleflight.Group
	mu   sync.Mutex
	// inner is set once an open succeeds.
	inner *GormStore
}

// NewLazyGormStore returns a store that connects to dsn when first needed.
func NewLazyGormStore(dsn string) *LazyGormStore {
	return &LazyGormStore{dsn: dsn, open: NewGormStore}
}

func (s *LazyGormStore) get(ctx context.Context) (*GormStore, error) {
	s.mu.Lock()
	inner := s.inner
	s.mu.Unlock()
	if inner != nil {
		return inner, nil
	}

	ch := s.dial.DoChan("open", func() (any, error) {
		opened, err := s.open(ctx, s.dsn)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.inner == nil {
			s.inner = opened
		} else {
			_ = opened.Close()
		}
		return s.inner, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, errors.Join(ErrUnavailable, res.Err)
		}
		return res.Val.(*GormStore), nil
	case <-ctx.Done():
		return nil, errors.Join(ErrUnavailable, ctx.Err())
	}
}

func (s *LazyGormStore) Projects() Table[domain.Project] {
	return lazyTable[domain.Project]{owner: s, pick: (*GormStore).Projects}
}

func (s *LazyGormStore) BlogPosts() Table[domain.BlogPost] {
	return lazyTable[domain.BlogPost]{owner: s, pick: (*GormStore).BlogPosts}
}

func (s *LazyGormStore) Messages() Table[domain.ContactMessage] {
	return lazyTable[domain.ContactMessage]{owner: s, pick: (*GormStore).Messages}
}

func (s *LazyGormStore) Ping(ctx context.Context) error {
	inner, err := s.get(ctx)
	if err != nil {
		return err
	}
	return inner.Ping(ctx)
}

func (s *LazyGormStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner == nil {
		return nil
	}
	err := s.inner.Close()
	s.inner = nil
	return err
}

type lazyTable[T domain.Entity] struct {
	owner *LazyGormStore
	pick  func(*GormStore) Table[T]
}

func (t lazyTable[T]) table(ctx context.Context) (Table[T], error) {
	inner, err := t.owner.get(ctx)
	if err != nil {
		return nil, err
	}
	return t.pick(inner), nil
}

func (t lazyTable[T]) List(ctx context.Context) ([]T, error) {
	table, err := t.table(ctx)
	if err != nil {
		return nil, err
	}
	return table.List(ctx)
}

func (t lazyTable[T]) Get(ctx context.Context, id string) (T, bool, error) {
	table, err := t.table(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return table.Get(ctx, id)
}

func (t lazyTable[T]) Insert(ctx context.Context, v T) (T, error) {
	table, err := t.table(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return table.Insert(ctx, v)
}

func (t lazyTable[T]) Update(ctx context.Context, id string, patch domain.Patch[T]) (T, bool, error) {
	table, err := t.table(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return table.Update(ctx, id, patch)
}

func (t lazyTable[T]) Delete(ctx context.Context, id string) (bool, error) {
	table, err := t.table(ctx)
	if err != nil {
		return false, err
	}
	return table.Delete(ctx, id)
}
