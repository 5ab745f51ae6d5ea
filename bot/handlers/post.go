package handlers

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/telegram/format"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

func (h *Handlers) beginPost(c tele.Context) error {
	return h.begin(c, conversation.AwaitingPostTopic{})
}

func (h *Handlers) generatePost(ctx context.Context, c tele.Context, topic string) error {
	if h.deps.Posts == nil {
		return tghelpers.SendText(c, textPostFailed)
	}
	text, err := h.deps.Posts.Generate(ctx, topic)
	if err != nil {
		logger.LogEvent(ctx, logger.AI, slog.LevelWarn, "post.generate",
			slog.String("status", "fail"),
			logger.ErrAttr(err),
		)
		return tghelpers.SendText(c, textPostFailed)
	}
	return tghelpers.SendText(c, format.Truncate(text, format.MessageLimit))
}
