package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/m3rciful/studiobot/core/logger"
)

const (
	// MediaTailWindow is how many of the latest entries an empty media query returns.
	MediaTailWindow = 20

	membershipCacheSize = 1024
)

// Option customises a Repository.
type Option func(*Repository)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Repository implements the collection rules on top of a Backend.
//
// Every read-modify-write sequence runs under one mutex, so writers inside
// this process never interleave. Nothing coordinates separate processes
// sharing the same backend. Event ids are still count+1: deleting an event
// and creating another can reuse an id that is already present.
type Repository struct {
	backend  Backend
	adminIDs []int64
	admins   map[string]struct{}
	now      func() time.Time

	mu sync.Mutex

	// admitted normalized candidates; negatives are never cached
	members otter.Cache[string, bool]

	events       []Event
	eventsLoaded bool
	media        []MediaEntry
	mediaLoaded  bool
}

// New builds a Repository. adminIDs is the immutable admin set from configuration.
func New(backend Backend, adminIDs []int64, opts ...Option) (*Repository, error) {
	members, err := otter.MustBuilder[string, bool](membershipCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build membership cache: %w", err)
	}
	r := &Repository{
		backend:  backend,
		adminIDs: slices.Clone(adminIDs),
		admins:   make(map[string]struct{}, len(adminIDs)),
		now:      time.Now,
		members:  members,
	}
	for _, id := range adminIDs {
		r.admins[strconv.FormatInt(id, 10)] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the membership cache.
func (r *Repository) Close() {
	r.members.Close()
}

// NormalizeKey turns a handle or stringified id into a whitelist key:
// surrounding spaces and a leading "@" are dropped and handles are lower-cased.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(strings.TrimSpace(s))
}

// Admit adds handle to the whitelist. It reports false when the handle was already present.
func (r *Repository) Admit(ctx context.Context, handle string) (bool, error) {
	key := NormalizeKey(handle)
	if key == "" {
		return false, fmt.Errorf("store: empty handle")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	wl := r.loadWhitelist(ctx)
	if slices.Contains(wl.Users, key) {
		logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "whitelist.admit",
			slog.String("status", "skip"),
			slog.String("payload", key),
		)
		return false, nil
	}
	wl.Users = append(wl.Users, key)
	wl.Admins = slices.Clone(r.adminIDs)
	if err := r.backend.SaveWhitelist(ctx, wl); err != nil {
		r.logWriteFailure(ctx, "whitelist", err)
		return false, fmt.Errorf("%w: whitelist: %v", ErrWrite, err)
	}
	r.members.Clear()

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "whitelist.admit",
		slog.String("status", "ok"),
		slog.String("payload", key),
		slog.String("cache", "invalidate"),
		slog.Int("count", len(wl.Users)),
	)
	return true, nil
}

// IsAdmitted reports whether any candidate is an admin id or a whitelisted key.
// Only positive answers are cached: a miss always re-reads the backend, so a
// handle admitted by another process sharing the store is seen on the next lookup.
func (r *Repository) IsAdmitted(ctx context.Context, candidates ...string) bool {
	var misses []string
	for _, c := range candidates {
		key := NormalizeKey(c)
		if key == "" {
			continue
		}
		if _, ok := r.admins[key]; ok {
			return true
		}
		if r.members.Has(key) {
			return true
		}
		misses = append(misses, key)
	}
	if len(misses) == 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	wl := r.loadWhitelist(ctx)
	admitted := false
	for _, key := range misses {
		if slices.Contains(wl.Users, key) {
			r.members.Set(key, true)
			admitted = true
		}
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "whitelist.lookup",
		slog.String("cache", "miss"),
		slog.Int("count", len(misses)),
		slog.Bool("admitted", admitted),
	)
	return admitted
}

// Whitelist returns the persisted access list.
func (r *Repository) Whitelist(ctx context.Context) Whitelist {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadWhitelist(ctx)
}

// CreateEvent appends an event with id = count+1 and the current time.
func (r *Repository) CreateEvent(ctx context.Context, f EventFields) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.loadEvents(ctx)
	ev := Event{
		ID:          strconv.Itoa(len(current) + 1),
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		Creator:     f.Creator,
		CreatedAt:   At(r.now()),
	}
	next := append(slices.Clone(current), ev)
	if err := r.backend.SaveEvents(ctx, next); err != nil {
		r.logWriteFailure(ctx, "events", err)
		return Event{}, fmt.Errorf("%w: events: %v", ErrWrite, err)
	}
	r.eventsLoaded = false

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "events.create",
		slog.String("status", "ok"),
		slog.String("event_id", ev.ID),
		slog.String("cache", "invalidate"),
		slog.Int("count", len(next)),
	)
	return ev, nil
}

// ListEvents returns events in insertion order.
func (r *Repository) ListEvents(ctx context.Context) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.loadEvents(ctx))
}

// DeleteEvent removes the first event with the given id.
func (r *Repository) DeleteEvent(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.loadEvents(ctx)
	idx := slices.IndexFunc(current, func(ev Event) bool { return ev.ID == id })
	if idx < 0 {
		logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "events.delete",
			slog.String("status", "skip"),
			slog.String("outcome", "not_found"),
			slog.String("event_id", id),
		)
		return false, nil
	}
	next := slices.Delete(slices.Clone(current), idx, idx+1)
	if err := r.backend.SaveEvents(ctx, next); err != nil {
		r.logWriteFailure(ctx, "events", err)
		return false, fmt.Errorf("%w: events: %v", ErrWrite, err)
	}
	r.eventsLoaded = false

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "events.delete",
		slog.String("status", "ok"),
		slog.String("event_id", id),
		slog.String("cache", "invalidate"),
		slog.Int("count", len(next)),
	)
	return true, nil
}

// AddMedia appends an entry; a zero AddedAt is stamped with the current time.
func (r *Repository) AddMedia(ctx context.Context, entry MediaEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = At(r.now())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(slices.Clone(r.loadMedia(ctx)), entry)
	if err := r.backend.SaveMedia(ctx, next); err != nil {
		r.logWriteFailure(ctx, "media", err)
		return fmt.Errorf("%w: media: %v", ErrWrite, err)
	}
	r.mediaLoaded = false

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "media.add",
		slog.String("status", "ok"),
		slog.String("payload", entry.Name),
		slog.Int("count", len(next)),
	)
	return nil
}

// SearchMedia filters by case-insensitive substring over name and description.
// A blank query returns the last MediaTailWindow entries in insertion order.
func (r *Repository) SearchMedia(ctx context.Context, query string) []MediaEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.loadMedia(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		start := max(len(all)-MediaTailWindow, 0)
		return slices.Clone(all[start:])
	}
	var out []MediaEntry
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Description), q) {
			out = append(out, m)
		}
	}
	return out
}

// SeedMedia writes defaults when the media collection is empty and reports how many were added.
func (r *Repository) SeedMedia(ctx context.Context, defaults []MediaEntry) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.loadMedia(ctx)) > 0 || len(defaults) == 0 {
		return 0, nil
	}
	seeded := slices.Clone(defaults)
	for i := range seeded {
		if seeded[i].AddedAt.IsZero() {
			seeded[i].AddedAt = At(r.now())
		}
	}
	if err := r.backend.SaveMedia(ctx, seeded); err != nil {
		r.logWriteFailure(ctx, "media", err)
		return 0, fmt.Errorf("%w: media: %v", ErrWrite, err)
	}
	r.mediaLoaded = false
	return len(seeded), nil
}

// loadWhitelist, loadEvents and loadMedia must be called with mu held.
// A failed read yields an empty collection and is not cached.

func (r *Repository) loadWhitelist(ctx context.Context) Whitelist {
	wl, err := r.backend.LoadWhitelist(ctx)
	if err != nil {
		r.logReadFailure(ctx, "whitelist", err)
		return Whitelist{}
	}
	for i, u := range wl.Users {
		wl.Users[i] = NormalizeKey(u)
	}
	return wl
}

func (r *Repository) loadEvents(ctx context.Context) []Event {
	if r.eventsLoaded {
		return r.events
	}
	events, err := r.backend.LoadEvents(ctx)
	if err != nil {
		r.logReadFailure(ctx, "events", err)
		return nil
	}
	r.events, r.eventsLoaded = events, true
	return r.events
}

func (r *Repository) loadMedia(ctx context.Context) []MediaEntry {
	if r.mediaLoaded {
		return r.media
	}
	media, err := r.backend.LoadMedia(ctx)
	if err != nil {
		r.logReadFailure(ctx, "media", err)
		return nil
	}
	r.media, r.mediaLoaded = media, true
	return r.media
}

func (r *Repository) logReadFailure(ctx context.Context, collection string, err error) {
	logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "store.read",
		slog.String("status", "fail"),
		slog.String("collection", collection),
		logger.ErrAttr(err),
		slog.String("cause", "treated as empty"),
	)
}

func (r *Repository) logWriteFailure(ctx context.Context, collection string, err error) {
	logger.LogEvent(ctx, logger.Store, slog.LevelError, "store.write",
		slog.String("status", "fail"),
		slog.String("collection", collection),
		logger.ErrAttr(err),
	)
}
