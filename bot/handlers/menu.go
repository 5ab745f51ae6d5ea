package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/route"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/keyboard"
)

func (h *Handlers) mainMenu(admin bool) *tele.ReplyMarkup {
	buttons := []keyboard.InlineBtn{
		{Text: labelPost, Unique: route.MenuPost.Key()},
		{Text: labelEvents, Unique: route.MenuEvents.Key()},
		{Text: labelMedia, Unique: route.MenuMedia.Key()},
	}
	if admin {
		buttons = append(buttons, keyboard.InlineBtn{Text: labelAddEvent, Unique: route.MenuAddEvent.Key()})
	}
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

func (h *Handlers) start(c tele.Context) error {
	h.deps.Machine.Reset(tghelpers.BuildContext(c), userID(c))
	return tghelpers.SendKeyboard(c, textWelcome, h.mainMenu(h.isAdmin(c)))
}

func (h *Handlers) help(c tele.Context) error {
	text := fmt.Sprintf(textHelp, h.deps.MaxPhotos)
	if h.isAdmin(c) {
		text += textHelpAdmin
	}
	return tghelpers.SendHTML(c, text)
}
