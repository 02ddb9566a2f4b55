package resource

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"darkwave/internal/connectivity"
	"darkwave/pkg/cache"
	"darkwave/pkg/domain"
	"darkwave/pkg/store"
)

// Descriptor tells the generic service how to handle one entity kind.
type Descriptor[T domain.Entity] struct {
	Kind domain.Kind
	// WithID returns v carrying id.
	WithID func(v T, id string) T
	// Stamp fills creation-time fields such as the date. Optional.
	Stamp func(v T, now time.Time) T
	// Normalize recomputes derived fields after a create or a patch. Optional.
	Normalize func(v T) T
	// Sample builds the placeholder shown when both stores are empty. Optional.
	Sample func(now time.Time) T
}

// Options configures a Service.
type Options struct {
	Logger  *slog.Logger
	Monitor *connectivity.Monitor
	// Timeout bounds each remote call. Defaults to 5s.
	Timeout time.Duration
	NewID   func() (string, error)
	Now     func() time.Time
}

// Service reads and writes one entity kind. It prefers the remote table and
// falls back to the local cache; no method returns an error. Remote
// failures are logged and the cache answers instead.
type Service[T domain.Entity] struct {
	desc    Descriptor[T]
	table   store.Table[T]
	cache   *cache.Collection[T]
	monitor *connectivity.Monitor
	timeout time.Duration
	newID   func() (string, error)
	now     func() time.Time
	logger  *slog.Logger

	// mu serialises cache read-modify-write sequences.
	mu sync.Mutex
}

// New builds a service. A nil table means the remote store is not configured
// and every call goes to the cache.
func New[T domain.Entity](desc Descriptor[T], table store.Table[T], collection *cache.Collection[T], opts Options) *Service[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service[T]{
		desc:    desc,
		table:   table,
		cache:   collection,
		monitor: opts.Monitor,
		timeout: opts.Timeout,
		newID:   opts.NewID,
		now:     opts.Now,
		logger:  opts.Logger.With("collection", desc.Kind.Collection),
	}
}

// NewID returns a time-ordered UUID.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Kind returns the entity kind served.
func (s *Service[T]) Kind() domain.Kind {
	return s.desc.Kind
}

// List returns every entity, newest first. The remote result is mirrored
// into the cache, keeping entities whose pending local state never reached
// the remote store. When the remote store fails and the cache is empty, a
// placeholder sample is stored in the cache and returned.
func (s *Service[T]) List(ctx context.Context) []T {
	if items, ok := s.remoteList(ctx); ok {
		s.mu.Lock()
		items = s.mergePending(ctx, items)
		domain.SortByDateDesc(items)
		s.cache.Write(ctx, items)
		s.mu.Unlock()
		return items
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cache.Read(ctx)
	if len(items) > 0 {
		domain.SortByDateDesc(items)
		return items
	}
	sample, ok := s.sample()
	if !ok {
		return items
	}
	items = []T{sample}
	s.cache.Write(ctx, items)
	s.logger.Info("cache empty, seeded placeholder sample", "id", sample.EntityID())
	return items
}

// Get looks the id up remotely, then in the cache. Ids with pending local
// state are answered from the cache only.
func (s *Service[T]) Get(ctx context.Context, id string) (T, bool) {
	s.mu.Lock()
	pending := s.cache.ReadPending(ctx)
	s.mu.Unlock()
	if !pending.IsChanged(id) && !pending.IsDeleted(id) {
		if v, found, ok := s.remoteGet(ctx, id); ok && found {
			return v, true
		}
	}
	s.mu.Lock()
	items := s.cache.Read(ctx)
	s.mu.Unlock()
	if i := indexOf(items, id); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// Create assigns a fresh id and stores v. When the remote insert fails the
// entity is kept in the cache only and recorded as pending; the caller gets
// the same result either way. It returns false only when no id could be
// generated.
func (s *Service[T]) Create(ctx context.Context, v T) (T, bool) {
	id, err := s.newID()
	if err != nil {
		s.logger.Error("generate id failed", "err", err)
		var zero T
		return zero, false
	}
	v = s.desc.WithID(v, id)
	if s.desc.Stamp != nil {
		v = s.desc.Stamp(v, s.now())
	}
	v = s.normalize(v)

	stored, ok := s.remoteInsert(ctx, v)
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cache.Read(ctx)
	if ok {
		v = stored
		items = upsert(items, v)
	} else {
		items = append([]T{v}, items...)
		s.editPending(ctx, func(p *cache.Pending) { p.MarkChanged(id) })
		s.logger.Warn("entity stored locally", "op", "create", "id", id)
	}
	s.cache.Write(ctx, items)
	return v, true
}

// Update merges patch into the entity with id. When the remote store fails
// or does not know the id, the cached copy is patched instead. Entities with
// pending local state are patched in the cache only. It returns false when
// neither store has the id.
func (s *Service[T]) Update(ctx context.Context, id string, patch domain.Patch[T]) (T, bool) {
	patch = normalizedPatch[T]{patch: patch, normalize: s.normalize}

	s.mu.Lock()
	pending := s.cache.ReadPending(ctx)
	s.mu.Unlock()
	var (
		updated   T
		found, ok bool
	)
	if !pending.IsChanged(id) && !pending.IsDeleted(id) {
		updated, found, ok = s.remoteUpdate(ctx, id, patch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cache.Read(ctx)
	if ok && found {
		s.cache.Write(ctx, upsert(items, updated))
		return updated, true
	}
	i := indexOf(items, id)
	if i < 0 {
		var zero T
		return zero, false
	}
	items[i] = patch.Apply(items[i])
	s.cache.Write(ctx, items)
	if !ok {
		s.editPending(ctx, func(p *cache.Pending) { p.MarkChanged(id) })
	}
	s.logger.Warn("entity stored locally", "op", "update", "id", id, "remote_found", found)
	return items[i], true
}

// Delete removes id from both stores. It reports success unless the remote
// store answered that it had no such row and the cache had none either. A
// failed remote delete is recorded so the row stays hidden from later reads.
func (s *Service[T]) Delete(ctx context.Context, id string) bool {
	removed, ok := s.remoteDelete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cache.Read(ctx)
	i := indexOf(items, id)
	if i >= 0 {
		items = append(items[:i], items[i+1:]...)
		s.cache.Write(ctx, items)
	}
	if ok {
		s.editPending(ctx, func(p *cache.Pending) { p.Clear(id) })
		return removed || i >= 0
	}
	s.editPending(ctx, func(p *cache.Pending) { p.MarkDeleted(id) })
	s.logger.Warn("entity removed locally", "op", "delete", "id", id, "cached", i >= 0)
	return true
}

// mergePending applies pending local state to a remote list: locally deleted
// rows are dropped and locally changed entities replace or join the remote
// ones. Ids that need no more masking are forgotten. s.mu is held.
func (s *Service[T]) mergePending(ctx context.Context, remote []T) []T {
	pending := s.cache.ReadPending(ctx)
	if pending.Empty() {
		return remote
	}
	var kept cache.Pending
	for _, id := range pending.Deleted {
		if indexOf(remote, id) >= 0 {
			kept.Deleted = append(kept.Deleted, id)
		}
	}
	merged := slices.DeleteFunc(remote, func(v T) bool { return pending.IsDeleted(v.EntityID()) })
	cached := s.cache.Read(ctx)
	for _, id := range pending.Changed {
		i := indexOf(cached, id)
		if i < 0 {
			continue
		}
		merged = upsert(merged, cached[i])
		kept.Changed = append(kept.Changed, id)
	}
	if len(kept.Changed) != len(pending.Changed) || len(kept.Deleted) != len(pending.Deleted) {
		s.cache.WritePending(ctx, kept)
	}
	return merged
}

// editPending applies fn to the stored pending ids. s.mu is held.
func (s *Service[T]) editPending(ctx context.Context, fn func(*cache.Pending)) {
	p := s.cache.ReadPending(ctx)
	wasEmpty := p.Empty()
	fn(&p)
	if wasEmpty && p.Empty() {
		return
	}
	s.cache.WritePending(ctx, p)
}

func (s *Service[T]) sample() (T, bool) {
	var zero T
	if s.desc.Sample == nil {
		return zero, false
	}
	id, err := s.newID()
	if err != nil {
		s.logger.Error("generate sample id failed", "err", err)
		return zero, false
	}
	return s.normalize(s.desc.WithID(s.desc.Sample(s.now()), id)), true
}

func (s *Service[T]) normalize(v T) T {
	if s.desc.Normalize == nil {
		return v
	}
	return s.desc.Normalize(v)
}

type normalizedPatch[T any] struct {
	patch     domain.Patch[T]
	normalize func(T) T
}

func (p normalizedPatch[T]) Apply(v T) T {
	return p.normalize(p.patch.Apply(v))
}

func indexOf[T domain.Entity](items []T, id string) int {
	for i, item := range items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// upsert replaces the cached copy of v or puts v first.
func upsert[T domain.Entity](items []T, v T) []T {
	if i := indexOf(items, v.EntityID()); i >= 0 {
		items[i] = v
		return items
	}
	return append([]T{v}, items...)
}
