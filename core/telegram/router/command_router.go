package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	tg "github.com/m3rciful/studiobot/core/telegram"
	"github.com/m3rciful/studiobot/core/telegram/middleware"
)

// CommandRouteOptions configures how admin-only commands are guarded.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

// CommandRoutes binds every registered command to its own endpoint.
// Commands bypass any form in progress.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(opts.Admin)
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		h := def.Handler
		if def.AdminOnly {
			h = adminOnly(h)
		}
		sum := summary{handler: normalizeHandlerName(name)}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  func(c tele.Context) error { return sum.run(c, func() error { return h(c) }) },
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("count", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
