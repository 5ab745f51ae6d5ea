package handlers

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

// UnknownText answers unknown slash commands. Other idle text is ignored.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		if strings.HasPrefix(strings.TrimSpace(c.Text()), "/") {
			return tghelpers.SendText(c, textUnknownCommand)
		}
		return nil
	}
}

// UnknownCallback answers buttons whose key is not routed.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: textUnsupported})
	}
}

func (h *Handlers) unhandled(c tele.Context) error {
	if c.Callback() != nil {
		return h.UnknownCallback()(c)
	}
	return h.UnknownText()(c)
}

// AdminRejected answers a non-admin who reached an admin-only command or button.
func (h *Handlers) AdminRejected() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: textAdminsOnly, ShowAlert: true})
		}
		return tghelpers.SendText(c, textAdminsOnly)
	}
}

// RateLimited tells a user to slow down. Callbacks get a toast.
func (h *Handlers) RateLimited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: textSlowDown})
		}
		return nil
	}
}
