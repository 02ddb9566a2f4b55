package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"darkwave/pkg/domain"
)

type brokenBackend struct{}

func (brokenBackend) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("quota exceeded")
}
func (brokenBackend) Save(context.Context, string, []byte) error { return errors.New("quota exceeded") }
func (brokenBackend) Delete(context.Context, string) error       { return errors.New("quota exceeded") }

func TestCollectionRoundTripRedis(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	backend, err := NewRedisBackend(redisSrv.Addr(), "", "test")
	if err != nil {
		t.Fatalf("new redis backend: %v", err)
	}
	ctx := context.Background()
	c := NewCollection[domain.Project](backend, domain.KindProjects, nil)

	if got := c.Read(ctx); len(got) != 0 {
		t.Fatalf("expected empty list for absent key, got %+v", got)
	}
	c.Write(ctx, []domain.Project{{ID: "1", Title: "Cached", Tags: []string{"go", "go"}}})

	if !redisSrv.Exists("test:cache_projects") {
		t.Fatalf("expected prefixed redis key to exist")
	}
	got := c.Read(ctx)
	if len(got) != 1 || got[0].Title != "Cached" || len(got[0].Tags) != 2 {
		t.Fatalf("unexpected cached list: %+v", got)
	}

	c.Reset(ctx)
	if redisSrv.Exists("test:cache_projects") {
		t.Fatalf("expected reset to delete key")
	}
}

func TestCollectionCorruptValueReadsEmpty(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	backend, err := NewRedisBackend(redisSrv.Addr(), "", "test")
	if err != nil {
		t.Fatalf("new redis backend: %v", err)
	}
	if err := redisSrv.Set("test:cache_messages", "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	c := NewCollection[domain.ContactMessage](backend, domain.KindMessages, nil)
	got := c.Read(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected non-nil empty list, got %#v", got)
	}
}

func TestCollectionSwallowsBackendFailures(t *testing.T) {
	c := NewCollection[domain.BlogPost](brokenBackend{}, domain.KindBlogPosts, nil)
	ctx := context.Background()
	c.Write(ctx, []domain.BlogPost{{ID: "1"}})
	c.Init(ctx)
	c.Reset(ctx)
	if got := c.Read(ctx); len(got) != 0 {
		t.Fatalf("expected empty list from failing backend, got %+v", got)
	}
}

func TestCollectionInitSeedsOnlyAbsentKey(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	c := NewCollection[domain.Project](backend, domain.KindProjects, nil)

	c.Init(ctx)
	data, ok, _ := backend.Load(ctx, "cache_projects")
	if !ok || string(data) != "[]" {
		t.Fatalf("expected seeded empty list, got ok=%v data=%q", ok, data)
	}

	c.Write(ctx, []domain.Project{{ID: "keep"}})
	c.Init(ctx)
	if got := c.Read(ctx); len(got) != 1 || got[0].ID != "keep" {
		t.Fatalf("init overwrote existing data: %+v", got)
	}
}

func TestFileBackendPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	NewCollection[domain.BlogPost](first, domain.KindBlogPosts, nil).Write(ctx, []domain.BlogPost{{ID: "b1", Title: "Post"}})

	second, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("reopen file backend: %v", err)
	}
	got := NewCollection[domain.BlogPost](second, domain.KindBlogPosts, nil).Read(ctx)
	if len(got) != 1 || got[0].ID != "b1" {
		t.Fatalf("unexpected list after reopen: %+v", got)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache_blog_posts.json")); err != nil {
		t.Fatalf("expected cache file: %v", err)
	}
}

func TestNewRedisBackendRequiresAddr(t *testing.T) {
	if _, err := NewRedisBackend(" ", "", ""); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestPendingRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	ctx := context.Background()
	c := NewCollection[domain.ContactMessage](backend, domain.KindMessages, nil)

	if p := c.ReadPending(ctx); !p.Empty() {
		t.Fatalf("expected nothing pending, got %+v", p)
	}
	var p Pending
	p.MarkChanged("a")
	p.MarkChanged("a")
	p.MarkChanged("b")
	p.MarkDeleted("b")
	c.WritePending(ctx, p)

	got := c.ReadPending(ctx)
	if !got.IsChanged("a") || got.IsChanged("b") || !got.IsDeleted("b") || len(got.Changed) != 1 {
		t.Fatalf("unexpected pending ids: %+v", got)
	}

	got.Clear("a")
	got.Clear("b")
	c.WritePending(ctx, got)
	if _, ok, _ := backend.Load(ctx, c.PendingKey()); ok {
		t.Fatalf("expected empty pending set to remove its key")
	}
}
