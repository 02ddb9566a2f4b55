package store

import (
	"context"
	"fmt"
	"sync"

	"darkwave/pkg/domain"
)

// MemoryStore keeps records in-process. It can be switched off to stand in
// for an unreachable database.
type MemoryStore struct {
	mu   sync.RWMutex
	down error

	projects  *memoryTable[domain.Project]
	blogPosts *memoryTable[domain.BlogPost]
	messages  *memoryTable[domain.ContactMessage]
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.projects = newMemoryTable[domain.Project](s, domain.KindProjects.Collection)
	s.blogPosts = newMemoryTable[domain.BlogPost](s, domain.KindBlogPosts.Collection)
	s.messages = newMemoryTable[domain.ContactMessage](s, domain.KindMessages.Collection)
	return s
}

// SetUnavailable makes every call fail with err. A nil err restores service.
func (s *MemoryStore) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = err
}

func (s *MemoryStore) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down != nil {
		return s.down
	}
	return nil
}

func (s *MemoryStore) Projects() Table[domain.Project]        { return s.projects }
func (s *MemoryStore) BlogPosts() Table[domain.BlogPost]      { return s.blogPosts }
func (s *MemoryStore) Messages() Table[domain.ContactMessage] { return s.messages }

func (s *MemoryStore) Ping(_ context.Context) error { return s.check() }
func (s *MemoryStore) Close() error                 { return nil }

type memoryTable[T domain.Entity] struct {
	owner  *MemoryStore
	name   string
	mu     sync.RWMutex
	items  map[string]T
	orders []string
}

func newMemoryTable[T domain.Entity](owner *MemoryStore, name string) *memoryTable[T] {
	return &memoryTable[T]{owner: owner, name: name, items: make(map[string]T)}
}

// List returns records newest first; equal dates keep insertion order.
func (t *memoryTable[T]) List(_ context.Context) ([]T, error) {
	if err := t.owner.check(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	t.mu.RLock()
	res := make([]T, 0, len(t.orders))
	for _, id := range t.orders {
		if v, ok := t.items[id]; ok {
			res = append(res, v)
		}
	}
	t.mu.RUnlock()
	domain.SortByDateDesc(res)
	return res, nil
}

func (t *memoryTable[T]) Get(_ context.Context, id string) (T, bool, error) {
	var zero T
	if err := t.owner.check(); err != nil {
		return zero, false, fmt.Errorf("get %s: %w", t.name, err)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[id]
	return v, ok, nil
}

func (t *memoryTable[T]) Insert(_ context.Context, v T) (T, error) {
	var zero T
	if err := t.owner.check(); err != nil {
		return zero, fmt.Errorf("insert %s: %w", t.name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id := v.EntityID()
	if _, exists := t.items[id]; exists {
		return zero, fmt.Errorf("insert %s: duplicate id %q", t.name, id)
	}
	t.items[id] = v
	t.orders = append(t.orders, id)
	return v, nil
}

func (t *memoryTable[T]) Update(_ context.Context, id string, patch domain.Patch[T]) (T, bool, error) {
	var zero T
	if err := t.owner.check(); err != nil {
		return zero, false, fmt.Errorf("update %s: %w", t.name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.items[id]
	if !ok {
		return zero, false, nil
	}
	merged := patch.Apply(current)
	t.items[id] = merged
	return merged, true, nil
}

func (t *memoryTable[T]) Delete(_ context.Context, id string) (bool, error) {
	if err := t.owner.check(); err != nil {
		return false, fmt.Errorf("delete %s: %w", t.name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[id]; !ok {
		return false, nil
	}
	delete(t.items, id)
	filtered := t.orders[:0]
	for _, item := range t.orders {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	t.orders = filtered
	return true, nil
}
