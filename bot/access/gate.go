// Package access decides who may talk to the bot.
package access

import (
	"context"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

// DenialText is the fixed reply to users who are neither admins nor whitelisted.
const DenialText = "⛔ Access denied. Ask an administrator to add you."

// Checker answers whitelist membership.
type Checker interface {
	IsAdmitted(ctx context.Context, candidates ...string) bool
}

// Gate admits admins unconditionally and everyone else through the whitelist.
type Gate struct {
	checker Checker
	admins  map[int64]struct{}
}

// NewGate builds a Gate over a whitelist checker and the configured admin ids.
func NewGate(checker Checker, adminIDs []int64) *Gate {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Gate{checker: checker, admins: admins}
}

// IsAdmin reports whether id is in the configured admin set.
func (g *Gate) IsAdmin(id int64) bool {
	_, ok := g.admins[id]
	return ok
}

// Candidates returns the whitelist keys tried for a user: the handle when set,
// then the numeric id. Trying both keeps a user admitted by id recognised
// after they pick a handle.
func Candidates(u *tele.User) []string {
	if u == nil {
		return nil
	}
	id := strconv.FormatInt(u.ID, 10)
	if u.Username == "" {
		return []string{id}
	}
	return []string{u.Username, id}
}

// Allowed reports whether the user may use the bot.
func (g *Gate) Allowed(ctx context.Context, u *tele.User) bool {
	if u == nil {
		return false
	}
	if g.IsAdmin(u.ID) {
		return true
	}
	return g.checker != nil && g.checker.IsAdmitted(ctx, Candidates(u)...)
}

// Middleware runs the gate on every user message. Callback presses pass
// through; admin-only buttons are guarded where they are registered.
// A denied message gets DenialText and nothing downstream runs.
func (g *Gate) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		user := c.Sender()
		if g.Allowed(ctx, user) {
			return next(c)
		}
		logger.LogEvent(ctx, logger.Gate, slog.LevelInfo, "gate.deny",
			slog.String("status", "skip"),
			slog.String("outcome", "denied"),
		)
		if user == nil || c.Chat() == nil {
			return nil
		}
		return c.Send(DenialText)
	}
}
