// Package store owns the bot's persisted collections: the whitelist, the
// events bulletin and the media directory.
//
// Repository holds the read caches and the collection rules (id assignment,
// search, membership). It persists through a Backend, which is either a set
// of JSON documents or Postgres tables. Handlers never touch the backend.
package store

import (
	"context"
	"errors"
)

// ErrWrite wraps every failure to persist a collection.
var ErrWrite = errors.New("store: write failed")

// Event is one bulletin entry. Date is free text and never validated.
type Event struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Date        string    `json:"date" db:"event_date"`
	Creator     string    `json:"creator" db:"creator"`
	CreatedAt   Timestamp `json:"created_at" db:"created_at"`
}

// EventFields are the answers collected by the add-event form.
type EventFields struct {
	Title       string
	Description string
	Date        string
	Creator     string
}

// MediaEntry is one item of the media directory.
type MediaEntry struct {
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	AddedBy     string    `json:"added_by" db:"added_by"`
	AddedAt     Timestamp `json:"added_at" db:"added_at"`
}

// Whitelist is the persisted access list. Admins mirrors process configuration.
type Whitelist struct {
	Users  []string `json:"users"`
	Admins []int64  `json:"admins"`
}

// Backend loads and replaces whole collections.
// Load methods report missing data as an empty collection with a nil error.
type Backend interface {
	LoadWhitelist(ctx context.Context) (Whitelist, error)
	SaveWhitelist(ctx context.Context, wl Whitelist) error
	LoadEvents(ctx context.Context) ([]Event, error)
	SaveEvents(ctx context.Context, events []Event) error
	LoadMedia(ctx context.Context) ([]MediaEntry, error)
	SaveMedia(ctx context.Context, media []MediaEntry) error
}
