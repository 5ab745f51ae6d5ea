package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/route"
	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/core/telegram/format"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/keyboard"
)

func (h *Handlers) admit(c tele.Context, arg string) error {
	handle := store.NormalizeKey(arg)
	if handle == "" {
		return tghelpers.SendHTML(c, textAdmitUsage)
	}
	added, err := h.deps.Store.Admit(tghelpers.BuildContext(c), handle)
	if err != nil {
		return fmt.Errorf("admit: %w", err)
	}
	shown := format.EscapeHTML(handle)
	if added {
		return tghelpers.SendHTML(c, fmt.Sprintf(textAdmitted, shown))
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(textAlreadyAdmit, shown))
}

func (h *Handlers) askRestart(c tele.Context) error {
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: labelConfirm, Unique: route.RestartConfirm.Key()},
		{Text: labelCancel, Unique: route.RestartCancel.Key()},
	})
	return tghelpers.SendKeyboard(c, textRestartAsk, markup)
}

func (h *Handlers) cancelRestart(c tele.Context) error {
	return tghelpers.EditOrSendHTML(c, textRestartCancel)
}

// confirmRestart relays the agent answer verbatim. Failures are reported, never retried.
func (h *Handlers) confirmRestart(c tele.Context) error {
	if h.deps.Agent == nil {
		return tghelpers.EditOrSendHTML(c, fmt.Sprintf(textRestartFailed, "control plane is not configured"))
	}
	_ = tghelpers.EditOrSendHTML(c, textRestartRunning)

	res, err := h.deps.Agent.Restart(tghelpers.BuildContext(c))
	if err != nil {
		return tghelpers.SendText(c, fmt.Sprintf(textRestartFailed, err.Error()))
	}
	return tghelpers.SendText(c, RestartReply(res.OK, res.Message))
}

// RestartReply renders the agent answer for the admin.
func RestartReply(ok bool, message string) string {
	message = strings.TrimSpace(message)
	switch {
	case ok && message != "":
		return "✅ " + message
	case ok:
		return textRestartOK
	case message != "":
		return "❌ " + message
	default:
		return textRestartRefused
	}
}
