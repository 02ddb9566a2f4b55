package resource

import (
	"context"

	"darkwave/pkg/domain"
	"darkwave/pkg/store"
)

// The remote helpers report ok=false when the call was skipped or failed.

func (s *Service[T]) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	if s.table == nil {
		return ctx, func() {}, false
	}
	if !s.monitor.Available(ctx) {
		return ctx, func() {}, false
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	return callCtx, cancel, true
}

func (s *Service[T]) remoteFailed(op string, err error) {
	class := store.Classify(err)
	s.logger.Warn("remote call failed, using cache", "op", op, "class", string(class), "err", err)
	if class.Disconnects() {
		s.monitor.MarkDown(err)
	}
}

func (s *Service[T]) remoteList(ctx context.Context) ([]T, bool) {
	callCtx, cancel, ok := s.remoteCtx(ctx)
	defer cancel()
	if !ok {
		return nil, false
	}
	items, err := s.table.List(callCtx)
	if err != nil {
		s.remoteFailed("list", err)
		return nil, false
	}
	s.monitor.MarkUp()
	if items == nil {
		items = []T{}
	}
	return items, true
}

func (s *Service[T]) remoteGet(ctx context.Context, id string) (T, bool, bool) {
	var zero T
	callCtx, cancel, ok := s.remoteCtx(ctx)
	defer cancel()
	if !ok {
		return zero, false, false
	}
	v, found, err := s.table.Get(callCtx, id)
	if err != nil {
		s.remoteFailed("get", err)
		return zero, false, false
	}
	s.monitor.MarkUp()
	return v, found, true
}

func (s *Service[T]) remoteInsert(ctx context.Context, v T) (T, bool) {
	var zero T
	callCtx, cancel, ok := s.remoteCtx(ctx)
	defer cancel()
	if !ok {
		return zero, false
	}
	stored, err := s.table.Insert(callCtx, v)
	if err != nil {
		s.remoteFailed("create", err)
		return zero, false
	}
	s.monitor.MarkUp()
	return stored, true
}

func (s *Service[T]) remoteUpdate(ctx context.Context, id string, patch domain.Patch[T]) (T, bool, bool) {
	var zero T
	callCtx, cancel, ok := s.remoteCtx(ctx)
	defer cancel()
	if !ok {
		return zero, false, false
	}
	updated, found, err := s.table.Update(callCtx, id, patch)
	if err != nil {
		s.remoteFailed("update", err)
		return zero, false, false
	}
	s.monitor.MarkUp()
	return updated, found, true
}

func (s *Service[T]) remoteDelete(ctx context.Context, id string) (bool, bool) {
	callCtx, cancel, ok := s.remoteCtx(ctx)
	defer cancel()
	if !ok {
		return false, false
	}
	removed, err := s.table.Delete(callCtx, id)
	if err != nil {
		s.remoteFailed("delete", err)
		return false, false
	}
	s.monitor.MarkUp()
	return removed, true
}
