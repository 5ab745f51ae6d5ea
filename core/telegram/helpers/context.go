package helpers

import (
	"context"

	"github.com/m3rciful/studiobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	// RIDKey holds the request id on tele.Context.
	RIDKey = "rid"
)

// Meta identifies the update behind a tele.Context.
type Meta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
}

// MetaOf extracts update, user and chat ids; missing parts are zero.
func MetaOf(c tele.Context) Meta {
	m := Meta{UpdateID: c.Update().ID}
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	}
	return m
}

// RID returns the request id of the update, creating it on first use.
func RID(c tele.Context) string {
	if rid, _ := c.Get(RIDKey).(string); rid != "" {
		return rid
	}
	m := MetaOf(c)
	rid := logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	c.Set(RIDKey, rid)
	return rid
}

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the update's logging context, creating and storing it
// on first use. Handlers that outlive the update (album flushes) may keep it:
// it is never cancelled.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	m := MetaOf(c)
	ctx := logger.WithRID(context.Background(), RID(c))
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
