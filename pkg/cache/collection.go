package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"darkwave/pkg/domain"
)

// Collection is the cached list for one entity kind. Read and Write never
// fail: problems are logged and the caller sees an empty list or nothing.
type Collection[T domain.Entity] struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewCollection binds a backend to the cache key of kind.
func NewCollection[T domain.Entity](backend Backend, kind domain.Kind, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		backend: backend,
		key:     kind.CacheKey,
		logger:  logger.With("cache_key", kind.CacheKey),
	}
}

// Key returns the cache key.
func (c *Collection[T]) Key() string {
	return c.key
}

// Read returns the cached list, or an empty list when the key is absent,
// unreadable, or does not parse.
func (c *Collection[T]) Read(ctx context.Context) []T {
	data, ok, err := c.backend.Load(ctx, c.key)
	if err != nil {
		c.logger.Warn("cache read failed", "err", err)
		return []T{}
	}
	if !ok || len(data) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("cache value corrupt, treating as empty", "err", err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Write overwrites the cached list. Failures are logged and dropped.
func (c *Collection[T]) Write(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Error("cache encode failed", "err", err)
		return
	}
	if err := c.backend.Save(ctx, c.key, data); err != nil {
		c.logger.Error("cache write failed", "err", err, "items", len(items))
	}
}

// Init seeds the key with an empty list when it is absent.
func (c *Collection[T]) Init(ctx context.Context) {
	_, ok, err := c.backend.Load(ctx, c.key)
	if err != nil {
		c.logger.Warn("cache init probe failed", "err", err)
		return
	}
	if !ok {
		c.Write(ctx, []T{})
	}
}

// Reset removes the cached list and its pending ids.
func (c *Collection[T]) Reset(ctx context.Context) {
	for _, key := range []string{c.key, c.PendingKey()} {
		if err := c.backend.Delete(ctx, key); err != nil {
			c.logger.Error("cache reset failed", "key", key, "err", err)
		}
	}
}

// Pending lists ids whose cached state has not reached the remote store:
// entities created or patched only in the cache, and entities deleted while
// the remote delete failed.
type Pending struct {
	Changed []string `json:"changed,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// Empty reports whether nothing is pending.
func (p Pending) Empty() bool {
	return len(p.Changed) == 0 && len(p.Deleted) == 0
}

// IsChanged reports whether the cached copy of id wins over the remote one.
func (p Pending) IsChanged(id string) bool {
	return slices.Contains(p.Changed, id)
}

// IsDeleted reports whether id was removed locally.
func (p Pending) IsDeleted(id string) bool {
	return slices.Contains(p.Deleted, id)
}

// MarkChanged records a local create or patch of id.
func (p *Pending) MarkChanged(id string) {
	p.Deleted = slices.DeleteFunc(p.Deleted, func(v string) bool { return v == id })
	if !p.IsChanged(id) {
		p.Changed = append(p.Changed, id)
	}
}

// MarkDeleted records a local delete of id.
func (p *Pending) MarkDeleted(id string) {
	p.Changed = slices.DeleteFunc(p.Changed, func(v string) bool { return v == id })
	if !p.IsDeleted(id) {
		p.Deleted = append(p.Deleted, id)
	}
}

// Clear forgets id once the remote store holds its current state.
func (p *Pending) Clear(id string) {
	p.Changed = slices.DeleteFunc(p.Changed, func(v string) bool { return v == id })
	p.Deleted = slices.DeleteFunc(p.Deleted, func(v string) bool { return v == id })
}

// PendingKey returns the key the pending ids of cacheKey are stored under.
func PendingKey(cacheKey string) string {
	return cacheKey + "_pending"
}

// PendingKey returns the key the pending ids are stored under.
func (c *Collection[T]) PendingKey() string {
	return PendingKey(c.key)
}

// ReadPending returns the pending ids. Problems read as nothing pending.
func (c *Collection[T]) ReadPending(ctx context.Context) Pending {
	var p Pending
	data, ok, err := c.backend.Load(ctx, c.PendingKey())
	if err != nil {
		c.logger.Warn("pending read failed", "err", err)
		return p
	}
	if !ok || len(data) == 0 {
		return p
	}
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("pending value corrupt, ignoring", "err", err)
		return Pending{}
	}
	return p
}

// WritePending stores p, removing the key when nothing is pending.
func (c *Collection[T]) WritePending(ctx context.Context, p Pending) {
	if p.Empty() {
		if err := c.backend.Delete(ctx, c.PendingKey()); err != nil {
			c.logger.Error("pending clear failed", "err", err)
		}
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Error("pending encode failed", "err", err)
		return
	}
	if err := c.backend.Save(ctx, c.PendingKey(), data); err != nil {
		c.logger.Error("pending write failed", "err", err)
	}
}
