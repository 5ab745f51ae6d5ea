package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepository(t *testing.T, admins ...int64) (*Repository, *JSONBackend) {
	t.Helper()
	backend := NewJSONBackend(t.TempDir())
	repo, err := New(backend, admins)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo, backend
}

func TestAdmitIsIdempotent(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if repo.IsAdmitted(ctx, "alice") {
		t.Fatalf("unknown handle admitted")
	}
	added, err := repo.Admit(ctx, "@Alice")
	if err != nil || !added {
		t.Fatalf("first admit = %v, %v; want true, nil", added, err)
	}
	if !repo.IsAdmitted(ctx, "alice") {
		t.Fatalf("admitted handle rejected")
	}
	added, err = repo.Admit(ctx, "alice")
	if err != nil || added {
		t.Fatalf("second admit = %v, %v; want false, nil", added, err)
	}
	if got := repo.Whitelist(ctx).Users; len(got) != 1 || got[0] != "alice" {
		t.Fatalf("unexpected whitelist users: %v", got)
	}
}

func TestRejectedLookupIsNotCached(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if repo.IsAdmitted(ctx, "bob") {
		t.Fatalf("bob admitted before admit")
	}
	if repo.members.Has("bob") {
		t.Fatalf("negative answer cached")
	}
	if _, err := repo.Admit(ctx, "bob"); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if !repo.IsAdmitted(ctx, "bob") {
		t.Fatalf("admitted handle rejected after admit")
	}
	if !repo.members.Has("bob") {
		t.Fatalf("positive answer not cached")
	}
}

func TestAdmitFromSecondRepositoryIsSeen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	running, err := New(NewJSONBackend(dir), nil)
	if err != nil {
		t.Fatalf("New(running): %v", err)
	}
	defer running.Close()
	if running.IsAdmitted(ctx, "alice") {
		t.Fatalf("alice admitted before admit")
	}

	cli, err := New(NewJSONBackend(dir), nil)
	if err != nil {
		t.Fatalf("New(cli): %v", err)
	}
	defer cli.Close()
	if _, err := cli.Admit(ctx, "@alice"); err != nil {
		t.Fatalf("admit: %v", err)
	}

	if !running.IsAdmitted(ctx, "alice") {
		t.Fatalf("admit from another repository not seen by the running one")
	}
}

func TestAdminsAlwaysAdmitted(t *testing.T) {
	repo, _ := newTestRepository(t, 42)
	ctx := context.Background()

	if !repo.IsAdmitted(ctx, "", "42") {
		t.Fatalf("admin id rejected")
	}
	if repo.IsAdmitted(ctx, "43") {
		t.Fatalf("non-admin id admitted")
	}
}

func TestAdmitWritesAdminsFromConfig(t *testing.T) {
	repo, backend := newTestRepository(t, 7, 9)
	ctx := context.Background()

	if _, err := repo.Admit(ctx, "carol"); err != nil {
		t.Fatalf("admit: %v", err)
	}
	wl, err := backend.LoadWhitelist(ctx)
	if err != nil {
		t.Fatalf("load whitelist: %v", err)
	}
	if len(wl.Admins) != 2 || wl.Admins[0] != 7 || wl.Admins[1] != 9 {
		t.Fatalf("unexpected admins: %v", wl.Admins)
	}
}

func TestCreateEventThenList(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	before := time.Now()
	ev, err := repo.CreateEvent(ctx, EventFields{Title: "Concert", Description: "Live music", Date: "01.01.2026", Creator: "alice"})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID != "1" {
		t.Fatalf("expected id 1, got %q", ev.ID)
	}
	events := repo.ListEvents(ctx)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID == "" || got.Title != "Concert" || got.Description != "Live music" || got.Date != "01.01.2026" || got.Creator != "alice" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.CreatedAt.Before(before.Truncate(time.Second)) {
		t.Fatalf("created_at %v earlier than call time %v", got.CreatedAt, before)
	}
}

func TestListEventsReturnsCopy(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateEvent(ctx, EventFields{Title: "A"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	events := repo.ListEvents(ctx)
	events[0].Title = "mutated"
	if repo.ListEvents(ctx)[0].Title != "A" {
		t.Fatalf("caller mutation leaked into cache")
	}
}

func TestDeleteEvent(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		if _, err := repo.CreateEvent(ctx, EventFields{Title: title}); err != nil {
			t.Fatalf("CreateEvent(%s): %v", title, err)
		}
	}

	removed, err := repo.DeleteEvent(ctx, "2")
	if err != nil || !removed {
		t.Fatalf("DeleteEvent(2) = %v, %v", removed, err)
	}
	events := repo.ListEvents(ctx)
	if len(events) != 2 || events[0].Title != "A" || events[1].Title != "C" {
		t.Fatalf("unexpected events after delete: %+v", events)
	}

	removed, err = repo.DeleteEvent(ctx, "99")
	if err != nil || removed {
		t.Fatalf("DeleteEvent(99) = %v, %v", removed, err)
	}
	if len(repo.ListEvents(ctx)) != 2 {
		t.Fatalf("missing id changed the collection")
	}
}

func TestEventIDReusedAfterDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		if _, err := repo.CreateEvent(ctx, EventFields{Title: title}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}
	if _, err := repo.DeleteEvent(ctx, "1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	ev, err := repo.CreateEvent(ctx, EventFields{Title: "C"})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	// count+1 collides with the surviving "B"
	if ev.ID != "2" {
		t.Fatalf("expected id 2, got %q", ev.ID)
	}
}

func TestSearchMediaTailWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for i := range 25 {
		if err := repo.AddMedia(ctx, MediaEntry{Name: fmt.Sprintf("item-%02d", i)}); err != nil {
			t.Fatalf("AddMedia: %v", err)
		}
	}
	got := repo.SearchMedia(ctx, "")
	if len(got) != MediaTailWindow {
		t.Fatalf("expected %d entries, got %d", MediaTailWindow, len(got))
	}
	if got[0].Name != "item-05" || got[len(got)-1].Name != "item-24" {
		t.Fatalf("tail not in insertion order: first=%s last=%s", got[0].Name, got[len(got)-1].Name)
	}
}

func TestSearchMediaCaseInsensitive(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	entries := []MediaEntry{
		{Name: "Studio Logo", Description: "png"},
		{Name: "Palette", Description: "Brand COLORS"},
		{Name: "Press kit", Description: "bio"},
	}
	for _, e := range entries {
		if err := repo.AddMedia(ctx, e); err != nil {
			t.Fatalf("AddMedia: %v", err)
		}
	}

	if got := repo.SearchMedia(ctx, "logo"); len(got) != 1 || got[0].Name != "Studio Logo" {
		t.Fatalf("name match failed: %+v", got)
	}
	if got := repo.SearchMedia(ctx, "colors"); len(got) != 1 || got[0].Name != "Palette" {
		t.Fatalf("description match failed: %+v", got)
	}
	if got := repo.SearchMedia(ctx, "video"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestAddMediaStampsTime(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	backend := NewJSONBackend(t.TempDir())
	repo, err := New(backend, nil, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	if err := repo.AddMedia(ctx, MediaEntry{Name: "x"}); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	if got := repo.SearchMedia(ctx, "x"); len(got) != 1 || !got[0].AddedAt.Equal(fixed) {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestSeedMediaOnlyWhenEmpty(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	n, err := repo.SeedMedia(ctx, DefaultMedia)
	if err != nil || n != len(DefaultMedia) {
		t.Fatalf("first seed = %d, %v", n, err)
	}
	n, err = repo.SeedMedia(ctx, DefaultMedia)
	if err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v", n, err)
	}
	if got := repo.SearchMedia(ctx, ""); len(got) != len(DefaultMedia) {
		t.Fatalf("expected %d entries, got %d", len(DefaultMedia), len(got))
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	repo, backend := newTestRepository(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(backend.Dir, EventsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if got := repo.ListEvents(ctx); len(got) != 0 {
		t.Fatalf("expected empty events, got %+v", got)
	}
	ev, err := repo.CreateEvent(ctx, EventFields{Title: "fresh"})
	if err != nil {
		t.Fatalf("CreateEvent over corrupt file: %v", err)
	}
	if ev.ID != "1" {
		t.Fatalf("expected id 1, got %q", ev.ID)
	}
}

type failingBackend struct {
	*JSONBackend
}

func (failingBackend) SaveEvents(context.Context, []Event) error {
	return errors.New("disk full")
}

func TestWriteFailurePropagates(t *testing.T) {
	backend := failingBackend{NewJSONBackend(t.TempDir())}
	repo, err := New(backend, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	_, err = repo.CreateEvent(context.Background(), EventFields{Title: "x"})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if got := repo.ListEvents(context.Background()); len(got) != 0 {
		t.Fatalf("failed write leaked into cache: %+v", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		" @Alice ": "alice",
		"12345":    "12345",
		"@":        "",
		"":         "",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
