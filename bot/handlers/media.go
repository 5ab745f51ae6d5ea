package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/core/telegram/format"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

func (h *Handlers) searchMedia(c tele.Context, query string) error {
	found := h.deps.Store.SearchMedia(tghelpers.BuildContext(c), strings.TrimSpace(query))
	if len(found) == 0 {
		return tghelpers.EditOrSendHTML(c, textMediaEmpty)
	}
	return tghelpers.EditOrSendHTML(c, format.Truncate(RenderMedia(found), format.MessageLimit))
}

// RenderMedia formats media entries as HTML.
func RenderMedia(entries []store.MediaEntry) string {
	var b strings.Builder
	b.WriteString(textMediaTitle)
	for _, m := range entries {
		fmt.Fprintf(&b, "\n\n<b>%s</b>", format.EscapeHTML(m.Name))
		if m.Description != "" {
			b.WriteString("\n")
			b.WriteString(format.EscapeHTML(m.Description))
		}
	}
	return b.String()
}

// ParseMediaArg splits "name | description". The description is optional.
func ParseMediaArg(arg string) (name, description string, ok bool) {
	name, description, _ = strings.Cut(arg, "|")
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	return name, description, name != ""
}

func (h *Handlers) addMedia(c tele.Context, arg string) error {
	name, description, ok := ParseMediaArg(arg)
	if !ok {
		return tghelpers.SendHTML(c, textMediaUsage)
	}
	err := h.deps.Store.AddMedia(tghelpers.BuildContext(c), store.MediaEntry{
		Name:        name,
		Description: description,
		AddedBy:     Identity(c.Sender()),
	})
	if err != nil {
		return fmt.Errorf("add media: %w", err)
	}
	return tghelpers.SendText(c, textMediaAdded)
}
