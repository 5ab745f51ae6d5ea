package handlers

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/bot/route"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/keyboard"
)

// begin starts a form, overwriting any stale one, and sends its first prompt.
func (h *Handlers) begin(c tele.Context, s conversation.State) error {
	if c.Sender() == nil {
		return nil
	}
	prompt := h.deps.Machine.Begin(tghelpers.BuildContext(c), c.Sender().ID, s)
	return h.prompt(c, prompt)
}

func (h *Handlers) prompt(c tele.Context, p conversation.Prompt) error {
	if p.Text == "" {
		return nil
	}
	return tghelpers.SendKeyboard(c, p.Text, keyboard.CancelMarkup(route.FormCancel.Key(), labelCancel))
}

// InProgress reports whether the user is mid-form.
func (h *Handlers) InProgress(userID int64) bool {
	return h.deps.Machine.Active(userID)
}

// ManagerHandler feeds free text into the user's form and carries out the effects.
func (h *Handlers) ManagerHandler(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	effects, consumed := h.deps.Machine.Feed(ctx, c.Sender().ID, c.Text())
	if !consumed {
		return nil
	}
	for _, eff := range effects {
		if err := h.apply(ctx, c, eff); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) apply(ctx context.Context, c tele.Context, eff conversation.Effect) error {
	switch e := eff.(type) {
	case conversation.Prompt:
		return h.prompt(c, e)
	case conversation.GeneratePost:
		return h.generatePost(ctx, c, e.Topic)
	case conversation.CreateEvent:
		return h.createEvent(ctx, c, e)
	default:
		return fmt.Errorf("unknown effect %T", eff)
	}
}

func (h *Handlers) cancelForm(c tele.Context) error {
	if h.deps.Machine.Reset(tghelpers.BuildContext(c), userID(c)) {
		return tghelpers.EditOrSendHTML(c, textFormCancelled)
	}
	return tghelpers.EditOrSendHTML(c, textNothingCancel)
}
