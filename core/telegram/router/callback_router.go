package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/studiobot/core/telegram"
	"github.com/m3rciful/studiobot/core/telegram/callbacks"
	"github.com/m3rciful/studiobot/core/telegram/middleware"
)

// CallbackOptions customises fallback and admin behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
	Admin    middleware.AdminOptions
}

// answerTracker records whether a handler already answered the callback query.
type answerTracker struct {
	tele.Context
	answered *bool
}

func (a answerTracker) Respond(resp ...*tele.CallbackResponse) error {
	*a.answered = true
	return a.Context.Respond(resp...)
}

// CallbackRoute returns the OnCallback handler that routes by callback key.
// The query is answered with an empty response unless the handler answered it.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	adminOnly := middleware.AdminOnlyMiddleware(opts.Admin)
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}

		key, payload := callbacks.ParseData(c.Callback())
		sum := summary{
			handler: "callback." + normalizeHandlerName(key),
			extras:  []slog.Attr{slog.String("cb_key", key)},
		}
		if payload != "" {
			sum.extras = append(sum.extras, slog.String("payload", payload))
		}

		answered := false
		tracked := answerTracker{Context: c, answered: &answered}
		defer func() {
			if !answered {
				_ = c.Respond()
			}
		}()

		cb, ok := reg.GetCallback(key)
		if !ok || cb.Handler == nil {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			sum.outcome = "not_found"
			return sum.run(tracked, func() error {
				if fallback != nil {
					return fallback(tracked)
				}
				return nil
			})
		}

		h := cb.Handler
		if cb.AdminOnly {
			h = adminOnly(h)
		}
		return sum.run(tracked, func() error { return h(tracked) })
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
