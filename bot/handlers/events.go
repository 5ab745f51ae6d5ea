package handlers

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/bot/route"
	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/core/telegram/format"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/keyboard"
)

func (h *Handlers) beginEvent(c tele.Context) error {
	return h.begin(c, conversation.AwaitingEventTitle{})
}

func (h *Handlers) createEvent(ctx context.Context, c tele.Context, ev conversation.CreateEvent) error {
	created, err := h.deps.Store.CreateEvent(ctx, store.EventFields{
		Title:       ev.Title,
		Description: ev.Description,
		Date:        ev.Date,
		Creator:     Identity(c.Sender()),
	})
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(textEventCreated, created.ID))
}

func (h *Handlers) listEvents(c tele.Context) error {
	events := h.deps.Store.ListEvents(tghelpers.BuildContext(c))
	if len(events) == 0 {
		return tghelpers.EditOrSendHTML(c, textNoEvents)
	}
	text := format.Truncate(RenderEvents(events), format.MessageLimit)
	if !h.isAdmin(c) {
		return tghelpers.EditOrSendHTML(c, text)
	}
	buttons := make([]keyboard.InlineBtn, 0, len(events))
	for _, ev := range events {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   "🗑 #" + ev.ID,
			Unique: route.EventDelete.Key(),
			Data:   ev.ID,
		})
	}
	return tghelpers.EditOrSendHTML(c, text, keyboard.InlineButtonsNPerRow(buttons, 4))
}

// RenderEvents formats the bulletin as HTML in insertion order.
func RenderEvents(events []store.Event) string {
	var b strings.Builder
	b.WriteString(textEventsTitle)
	for _, ev := range events {
		fmt.Fprintf(&b, "\n\n#%s <b>%s</b>\n📅 %s",
			format.EscapeHTML(ev.ID), format.EscapeHTML(ev.Title), format.EscapeHTML(ev.Date))
		if ev.Description != "" {
			b.WriteString("\n")
			b.WriteString(format.EscapeHTML(ev.Description))
		}
	}
	return b.String()
}

func (h *Handlers) deleteEvent(c tele.Context, id string) error {
	id = strings.TrimPrefix(strings.TrimSpace(id), "#")
	if id == "" {
		return tghelpers.SendHTML(c, textDeleteUsage)
	}
	removed, err := h.deps.Store.DeleteEvent(tghelpers.BuildContext(c), id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !removed {
		return tghelpers.SendHTML(c, fmt.Sprintf(textEventNotFound, format.EscapeHTML(id)))
	}
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf(textEventDeleted, id)})
		return h.listEvents(c)
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(textEventDeleted, format.EscapeHTML(id)))
}
