package router

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/studiobot/core/telegram"
)

// FSM is the minimal view of a conversation manager the text router needs.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and photo updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	Photo       tele.HandlerFunc
}

// TextRoutes builds the OnText and OnPhoto handlers.
// Free text goes to the FSM first; otherwise a registered command, then the fallback.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()

		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return summary{handler: "fsm"}.run(c, func() error { return fsmMgr.ManagerHandler(c) })
		}

		if reg != nil && strings.HasPrefix(text, "/") {
			head, _, _ := strings.Cut(text, " ")
			head, _, _ = strings.Cut(head, "@")
			if key, cmd, ok := reg.LookupCommand(head); ok && cmd.Handler != nil {
				return summary{handler: normalizeHandlerName(key)}.run(c, func() error { return cmd.Handler(c) })
			}
		}

		fb := opts.UnknownText
		if fb == nil && reg != nil {
			fb = reg.TextFallback()
		}
		if fb != nil {
			return summary{handler: "fallback"}.run(c, func() error { return fb(c) })
		}

		summary{handler: "unknown_text", status: "skip"}.log(c, nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
	if opts.Photo != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnPhoto,
			Handler: func(c tele.Context) error {
				return summary{handler: "photo"}.run(c, func() error { return opts.Photo(c) })
			},
		})
	}
	return routes
}
