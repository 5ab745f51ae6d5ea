// Package handlers implements every command, button and form step of the bot.
//
// Handlers receives its collaborators through Deps and never reaches for
// globals. Dispatch is the single switch over route.Action; the router binds
// Command and Callback closures to Telegram endpoints.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/controlplane"
	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/bot/route"
	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

// Store is the part of store.Repository the handlers use.
type Store interface {
	Admit(ctx context.Context, handle string) (bool, error)
	CreateEvent(ctx context.Context, f store.EventFields) (store.Event, error)
	ListEvents(ctx context.Context) []store.Event
	DeleteEvent(ctx context.Context, id string) (bool, error)
	AddMedia(ctx context.Context, entry store.MediaEntry) error
	SearchMedia(ctx context.Context, query string) []store.MediaEntry
}

// PostGenerator produces a post for a topic.
type PostGenerator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Watermarker stamps the logo onto encoded photos.
type Watermarker interface {
	Ready() bool
	Apply(src []byte) ([]byte, error)
}

// Restarter asks the control plane to restart the bot.
type Restarter interface {
	Restart(ctx context.Context) (controlplane.Result, error)
}

// FetchFunc downloads a Telegram file.
type FetchFunc func(c tele.Context, file *tele.File) ([]byte, error)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Store     Store
	Machine   *conversation.Machine
	Posts     PostGenerator
	Stamper   Watermarker
	Agent     Restarter
	IsAdmin   func(userID int64) bool
	MaxPhotos int
	Workers   int
	// AlbumWait is how long album parts are collected after the last one arrives.
	AlbumWait time.Duration
	Fetch     FetchFunc
}

// DefaultAlbumWait groups the parts of one album.
const DefaultAlbumWait = 800 * time.Millisecond

// Handlers serves all bot actions.
type Handlers struct {
	deps   Deps
	albums *albumCollector
}

// New validates deps and fills defaults.
func New(d Deps) (*Handlers, error) {
	if d.Store == nil || d.Machine == nil {
		return nil, fmt.Errorf("handlers: store and conversation machine are required")
	}
	if d.IsAdmin == nil {
		d.IsAdmin = func(int64) bool { return false }
	}
	if d.MaxPhotos <= 0 {
		d.MaxPhotos = 10
	}
	if d.Workers <= 0 {
		d.Workers = 1
	}
	if d.AlbumWait <= 0 {
		d.AlbumWait = DefaultAlbumWait
	}
	if d.Fetch == nil {
		d.Fetch = downloadFile
	}
	h := &Handlers{deps: d}
	h.albums = newAlbumCollector(d.AlbumWait, h.flushAlbum)
	return h, nil
}

// Close drops pending albums.
func (h *Handlers) Close() {
	h.albums.Stop()
}

// Command returns the endpoint handler for a command action.
func (h *Handlers) Command(a route.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		req := route.ParseCommand(c.Text())
		req.Action = a
		return h.Dispatch(c, req)
	}
}

// Callback returns the handler for an inline button action.
func (h *Handlers) Callback(a route.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.Dispatch(c, route.Request{Action: a, Arg: callbacks.Payload(c)})
	}
}

// Dispatch runs the handler for req.
func (h *Handlers) Dispatch(c tele.Context, req route.Request) error {
	switch req.Action {
	case route.Start:
		return h.start(c)
	case route.Help:
		return h.help(c)
	case route.Post, route.MenuPost:
		return h.beginPost(c)
	case route.AddEvent, route.MenuAddEvent:
		return h.beginEvent(c)
	case route.Events, route.MenuEvents:
		return h.listEvents(c)
	case route.DeleteEvent, route.EventDelete:
		return h.deleteEvent(c, req.Arg)
	case route.Media, route.MenuMedia:
		return h.searchMedia(c, req.Arg)
	case route.AddMedia:
		return h.addMedia(c, req.Arg)
	case route.Admit:
		return h.admit(c, req.Arg)
	case route.Restart:
		return h.askRestart(c)
	case route.RestartConfirm:
		return h.confirmRestart(c)
	case route.RestartCancel:
		return h.cancelRestart(c)
	case route.Cancel, route.FormCancel:
		return h.cancelForm(c)
	case route.Unhandled:
		return h.unhandled(c)
	default:
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "dispatch.unknown",
			slog.String("action", req.Action.String()),
		)
		return h.unhandled(c)
	}
}

// Identity is how a user is recorded as creator: the handle when set, otherwise the numeric id.
func Identity(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}

func (h *Handlers) isAdmin(c tele.Context) bool {
	u := c.Sender()
	return u != nil && h.deps.IsAdmin(u.ID)
}

func userID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func downloadFile(c tele.Context, file *tele.File) ([]byte, error) {
	rc, err := c.Bot().File(file)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", file.FileID, err)
	}
	defer rc.Close()
	return readAllLimited(rc)
}
