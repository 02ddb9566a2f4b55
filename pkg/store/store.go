package store

import (
	"context"

	"darkwave/pkg/domain"
)

// Table is one remote collection. Implementations do not retry.
type Table[T domain.Entity] interface {
	// List returns every record ordered by date, newest first.
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, bool, error)
	Insert(ctx context.Context, v T) (T, error)
	// Update applies patch to the stored record. The bool is false when id is unknown.
	Update(ctx context.Context, id string, patch domain.Patch[T]) (T, bool, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Store groups the remote tables for projects, blog posts, and messages.
type Store interface {
	Projects() Table[domain.Project]
	BlogPosts() Table[domain.BlogPost]
	Messages() Table[domain.ContactMessage]
	Ping(ctx context.Context) error
	Close() error
}
