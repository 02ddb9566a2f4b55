package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"darkwave/internal/connectivity"
	"darkwave/pkg/cache"
	"darkwave/pkg/domain"
	"darkwave/pkg/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	remote  *store.MemoryStore
	backend *cache.MemoryBackend
	monitor *connectivity.Monitor
	opts    Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	remote := store.NewMemoryStore()
	logger := quietLogger()
	monitor := connectivity.New(remote.Ping, connectivity.Options{Interval: time.Minute, Logger: logger})
	return &fixture{
		remote:  remote,
		backend: cache.NewMemoryBackend(),
		monitor: monitor,
		opts:    Options{Logger: logger, Monitor: monitor, Timeout: time.Second},
	}
}

func (f *fixture) projects() *Service[domain.Project] {
	return New(Projects(), f.remote.Projects(), cache.NewCollection[domain.Project](f.backend, domain.KindProjects, f.opts.Logger), f.opts)
}

func (f *fixture) posts() *Service[domain.BlogPost] {
	return New(BlogPosts(), f.remote.BlogPosts(), cache.NewCollection[domain.BlogPost](f.backend, domain.KindBlogPosts, f.opts.Logger), f.opts)
}

func (f *fixture) messages(table store.Table[domain.ContactMessage]) *MessageService {
	return NewMessageService(table, cache.NewCollection[domain.ContactMessage](f.backend, domain.KindMessages, f.opts.Logger), f.opts)
}

// restore switches the remote store back on and lets the monitor see it.
func (f *fixture) restore(t *testing.T) {
	t.Helper()
	f.remote.SetUnavailable(nil)
	if !f.monitor.Check(context.Background()) {
		t.Fatalf("expected monitor to report the remote up after recovery")
	}
}

// flakyTable fails only the operations it is told to.
type flakyTable[T domain.Entity] struct {
	store.Table[T]
	insertErr error
	deleteErr error
}

func (f flakyTable[T]) Insert(ctx context.Context, v T) (T, error) {
	if f.insertErr != nil {
		var zero T
		return zero, f.insertErr
	}
	return f.Table.Insert(ctx, v)
}

func (f flakyTable[T]) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.Table.Delete(ctx, id)
}

func ids[T domain.Entity](items []T) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item.EntityID()] = true
	}
	return out
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p, ok := svc.Create(ctx, domain.Project{Title: fmt.Sprintf("p%d", i)})
		if !ok || p.ID == "" {
			t.Fatalf("create p%d: ok=%v id=%q", i, ok, p.ID)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %s", p.ID)
		}
		seen[p.ID] = true
	}

	f.remote.SetUnavailable(store.ErrUnavailable)
	for i := 0; i < 5; i++ {
		p, ok := svc.Create(ctx, domain.Project{Title: fmt.Sprintf("local%d", i)})
		if !ok {
			t.Fatalf("create local%d failed", i)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestCreateProjectScenario(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	if _, ok := svc.Create(ctx, domain.Project{Title: "Existing", Date: "2023-06-15"}); !ok {
		t.Fatalf("create existing failed")
	}
	before := svc.List(ctx)

	created, ok := svc.Create(ctx, domain.Project{Title: "Test"})
	if !ok || created.ID == "" || created.Date == "" {
		t.Fatalf("unexpected create result: ok=%v %+v", ok, created)
	}

	after := svc.List(ctx)
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d projects, got %d", len(before)+1, len(after))
	}
	if !ids(after)[created.ID] {
		t.Fatalf("created project missing from list")
	}

	cached := cache.NewCollection[domain.Project](f.backend, domain.KindProjects, quietLogger()).Read(ctx)
	if len(cached) != len(after) {
		t.Fatalf("remote list should be mirrored into the cache: cached=%d listed=%d", len(cached), len(after))
	}
}

func TestCreateRoundTripFromCache(t *testing.T) {
	f := newFixture(t)
	svc := f.posts()
	ctx := context.Background()
	f.remote.SetUnavailable(store.ErrUnavailable)

	in := domain.BlogPost{Title: "Offline", Summary: "s", Content: "c", Date: "2024-01-02", Tags: []string{"go"}}
	created, ok := svc.Create(ctx, in)
	if !ok {
		t.Fatalf("create failed")
	}

	list := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected one post, got %d", len(list))
	}
	in.ID = created.ID
	if !reflect.DeepEqual(in, list[0]) {
		t.Fatalf("listed post = %+v, want %+v", list[0], in)
	}
}

func TestFailedInsertKeepsMessageInCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := flakyTable[domain.ContactMessage]{
		Table:     f.remote.Messages(),
		insertErr: fmt.Errorf("insert message: %w", store.ErrUnavailable),
	}
	svc := f.messages(table)

	msg, ok := svc.Create(ctx, domain.ContactMessage{Name: "A", Email: "a@x.com", Message: "hi"})
	if !ok || msg.ID == "" || msg.Read {
		t.Fatalf("unexpected create result: ok=%v %+v", ok, msg)
	}

	list := svc.List(ctx)
	if len(list) != 1 || list[0].ID != msg.ID || list[0].Message != "hi" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if f.monitor.Status().Up {
		t.Fatalf("unreachable insert should mark the remote down")
	}
}

func TestRejectedInsertSurvivesRemoteList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := flakyTable[domain.ContactMessage]{
		Table:     f.remote.Messages(),
		insertErr: &pgconn.PgError{Code: "42501", Message: "permission denied for table messages"},
	}
	svc := f.messages(table)

	msg, ok := svc.Create(ctx, domain.ContactMessage{Name: "A", Email: "a@x.com", Message: "hi"})
	if !ok {
		t.Fatalf("create failed")
	}
	if !f.monitor.Status().Up {
		t.Fatalf("a permission error should not mark the remote down")
	}

	list := svc.List(ctx)
	if len(list) != 1 || list[0].ID != msg.ID {
		t.Fatalf("message rejected by the remote missing from list: %+v", list)
	}
	got, ok := svc.Get(ctx, msg.ID)
	if !ok || got.Message != "hi" {
		t.Fatalf("get after rejected insert: ok=%v %+v", ok, got)
	}
	if again := svc.List(ctx); len(again) != 1 {
		t.Fatalf("message lost on the second list: %+v", again)
	}
}

func TestMessagesCreatedDuringOutageSurviveRecovery(t *testing.T) {
	f := newFixture(t)
	svc := f.messages(f.remote.Messages())
	ctx := context.Background()

	online, ok := svc.Create(ctx, domain.ContactMessage{Name: "On", Email: "on@x.com", Message: "before"})
	if !ok {
		t.Fatalf("create online failed")
	}

	f.remote.SetUnavailable(store.ErrUnavailable)
	offline, ok := svc.Create(ctx, domain.ContactMessage{Name: "Off", Email: "off@x.com", Message: "during"})
	if !ok {
		t.Fatalf("create offline failed")
	}
	if f.monitor.Status().Up {
		t.Fatalf("expected remote down after failed insert")
	}

	f.restore(t)
	list := svc.List(ctx)
	got := ids(list)
	if !got[online.ID] || !got[offline.ID] || len(list) != 2 {
		t.Fatalf("expected both messages after recovery, got %+v", list)
	}
	if _, ok := svc.Get(ctx, offline.ID); !ok {
		t.Fatalf("offline message not found after recovery")
	}

	read, ok := svc.MarkAsRead(ctx, offline.ID)
	if !ok || !read.Read {
		t.Fatalf("mark offline message read: ok=%v %+v", ok, read)
	}
	for _, m := range svc.List(ctx) {
		if m.ID == offline.ID && !m.Read {
			t.Fatalf("read flag on the offline message was lost")
		}
	}
}

func TestDeleteDuringOutageStaysDeletedAfterRecovery(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	p, ok := svc.Create(ctx, domain.Project{Title: "doomed"})
	if !ok {
		t.Fatalf("create failed")
	}
	f.remote.SetUnavailable(store.ErrUnavailable)
	if !svc.Delete(ctx, p.ID) {
		t.Fatalf("delete during outage should report success")
	}

	f.restore(t)
	if ids(svc.List(ctx))[p.ID] {
		t.Fatalf("row deleted during the outage came back after recovery")
	}
	if _, ok := svc.Get(ctx, p.ID); ok {
		t.Fatalf("get returned a row deleted during the outage")
	}
}

func TestUpdateChangesOnlyPatchedField(t *testing.T) {
	for _, remoteUp := range []bool{true, false} {
		t.Run(fmt.Sprintf("remote_up=%v", remoteUp), func(t *testing.T) {
			f := newFixture(t)
			svc := f.projects()
			ctx := context.Background()
			if !remoteUp {
				f.remote.SetUnavailable(store.ErrUnavailable)
			}

			orig, ok := svc.Create(ctx, domain.Project{
				Title:            "Before",
				ShortDescription: "short",
				MediaURLs:        []string{"https://cdn.test/a.png"},
				Date:             "2023-08-22",
				Tags:             []string{"React"},
			})
			if !ok {
				t.Fatalf("create failed")
			}

			title := "After"
			updated, ok := svc.Update(ctx, orig.ID, domain.ProjectPatch{Title: &title})
			if !ok || updated.Title != "After" {
				t.Fatalf("update: ok=%v %+v", ok, updated)
			}

			got, ok := svc.Get(ctx, orig.ID)
			if !ok {
				t.Fatalf("get after update failed")
			}
			want := orig
			want.Title = "After"
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestUpdateFallsBackWhenRemoteMissesID(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	f.remote.SetUnavailable(store.ErrUnavailable)
	local, ok := svc.Create(ctx, domain.Project{Title: "local only"})
	if !ok {
		t.Fatalf("create failed")
	}
	f.restore(t)

	title := "patched"
	updated, ok := svc.Update(ctx, local.ID, domain.ProjectPatch{Title: &title})
	if !ok || updated.Title != "patched" {
		t.Fatalf("update local entity: ok=%v %+v", ok, updated)
	}
	if _, ok := svc.Update(ctx, "missing", domain.ProjectPatch{Title: &title}); ok {
		t.Fatalf("update of an unknown id should fail")
	}
}

func TestDeleteThenGet(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	p, ok := svc.Create(ctx, domain.Project{Title: "gone soon"})
	if !ok {
		t.Fatalf("create failed")
	}
	if !svc.Delete(ctx, p.ID) {
		t.Fatalf("delete failed")
	}
	if _, ok := svc.Get(ctx, p.ID); ok {
		t.Fatalf("deleted project still found")
	}
	if ids(svc.List(ctx))[p.ID] {
		t.Fatalf("deleted project still listed")
	}
}

func TestDeleteWhileRemoteDownIsOptimistic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := flakyTable[domain.Project]{Table: f.remote.Projects()}
	svc := New(Projects(), store.Table[domain.Project](table), cache.NewCollection[domain.Project](f.backend, domain.KindProjects, f.opts.Logger), f.opts)

	p, ok := svc.Create(ctx, domain.Project{Title: "x"})
	if !ok {
		t.Fatalf("create failed")
	}

	table.deleteErr = errors.New("boom")
	svc = New(Projects(), store.Table[domain.Project](table), cache.NewCollection[domain.Project](f.backend, domain.KindProjects, f.opts.Logger), f.opts)
	if !svc.Delete(ctx, p.ID) {
		t.Fatalf("delete with a failing remote should report success")
	}
	if !svc.Delete(ctx, "never-existed") {
		t.Fatalf("a failed remote delete is reported as success")
	}
}

func TestDeleteMissingIDLeavesListUnchanged(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()

	if _, ok := svc.Create(ctx, domain.Project{Title: "keep", Date: "2023-10-10"}); !ok {
		t.Fatalf("create failed")
	}
	before := svc.List(ctx)

	if svc.Delete(ctx, "does-not-exist") {
		t.Fatalf("delete of an unknown id should fail while the remote answers")
	}
	if after := svc.List(ctx); !reflect.DeepEqual(before, after) {
		t.Fatalf("list changed: before=%+v after=%+v", before, after)
	}
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.messages(f.remote.Messages())
	ctx := context.Background()

	msg, ok := svc.Create(ctx, domain.ContactMessage{Name: "B", Email: "b@x.com", Message: "hello"})
	if !ok || msg.Read {
		t.Fatalf("new message should be unread: ok=%v %+v", ok, msg)
	}

	first, ok := svc.MarkAsRead(ctx, msg.ID)
	if !ok || !first.Read {
		t.Fatalf("first mark: ok=%v %+v", ok, first)
	}
	second, ok := svc.MarkAsRead(ctx, msg.ID)
	if !ok || !reflect.DeepEqual(first, second) {
		t.Fatalf("second mark changed the message: %+v vs %+v", first, second)
	}
}

func TestListSeedsSampleWhenEverythingIsEmpty(t *testing.T) {
	f := newFixture(t)
	svc := f.posts()
	ctx := context.Background()
	f.remote.SetUnavailable(store.ErrUnavailable)

	list := svc.List(ctx)
	if len(list) != 1 || list[0].ID == "" {
		t.Fatalf("expected one sample post, got %+v", list)
	}
	if list[0].Summary == "" {
		t.Fatalf("sample summary should be derived from its content")
	}

	again := svc.List(ctx)
	if len(again) != 1 || again[0].ID != list[0].ID {
		t.Fatalf("sample should be persisted, not regenerated: %+v", again)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()
	f.remote.SetUnavailable(store.ErrUnavailable)

	for _, d := range []string{"2023-06-15", "2023-10-10", "2023-08-22"} {
		if _, ok := svc.Create(ctx, domain.Project{Title: d, Date: d}); !ok {
			t.Fatalf("create %s failed", d)
		}
	}
	list := svc.List(ctx)
	if len(list) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(list))
	}
	got := []string{list[0].Date, list[1].Date, list[2].Date}
	want := []string{"2023-10-10", "2023-08-22", "2023-06-15"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestCreateFailsWithoutID(t *testing.T) {
	f := newFixture(t)
	f.opts.NewID = func() (string, error) { return "", errors.New("entropy exhausted") }
	svc := f.projects()

	if _, ok := svc.Create(context.Background(), domain.Project{Title: "x"}); ok {
		t.Fatalf("create without an id should fail")
	}
}

func TestCorruptCacheFallsBackToSample(t *testing.T) {
	f := newFixture(t)
	svc := f.projects()
	ctx := context.Background()
	if err := f.backend.Save(ctx, domain.KindProjects.CacheKey, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt cache: %v", err)
	}
	f.remote.SetUnavailable(store.ErrUnavailable)

	list := svc.List(ctx)
	if len(list) != 1 || list[0].Title != "Sample Project" {
		t.Fatalf("expected the sample project, got %+v", list)
	}
}

func TestBlogSummaryDerivedFromContent(t *testing.T) {
	f := newFixture(t)
	svc := f.posts()
	ctx := context.Background()

	post, ok := svc.Create(ctx, domain.BlogPost{Title: "t", Content: "<p>Hello <b>world</b></p>"})
	if !ok || post.Summary != "Hello world" {
		t.Fatalf("derived summary: ok=%v %q", ok, post.Summary)
	}

	summary := "kept"
	updated, ok := svc.Update(ctx, post.ID, domain.BlogPostPatch{Summary: &summary})
	if !ok || updated.Summary != "kept" {
		t.Fatalf("explicit summary: ok=%v %q", ok, updated.Summary)
	}
}

func TestMessageBodyStoredAsWritten(t *testing.T) {
	f := newFixture(t)
	svc := f.messages(f.remote.Messages())
	ctx := context.Background()

	body := "Hi,\n\nbudget is <5k and 3<x<10 weeks.\nThanks"
	msg, ok := svc.Create(ctx, domain.ContactMessage{
		Name:    "  Ada ",
		Email:   " ada@example.com ",
		Message: "  " + body + "\n",
	})
	if !ok {
		t.Fatalf("create failed")
	}
	if msg.Name != "Ada" || msg.Email != "ada@example.com" {
		t.Fatalf("name and email should be trimmed: %+v", msg)
	}
	if msg.Message != body {
		t.Fatalf("message = %q, want %q", msg.Message, body)
	}
	got, ok := svc.Get(ctx, msg.ID)
	if !ok || got.Message != body {
		t.Fatalf("stored message = %q, want %q", got.Message, body)
	}
}
