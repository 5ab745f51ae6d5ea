package middleware

import (
	"log/slog"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/metrics"
	"github.com/m3rciful/studiobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

// StartKey holds the time the update entered the chain.
const StartKey = "update_start"

// seenUpdates suppresses duplicate debug lines when Telegram redelivers an update.
var seenUpdates = func() otter.Cache[int, struct{}] {
	cache, err := otter.MustBuilder[int, struct{}](4096).WithTTL(10 * time.Second).Build()
	if err != nil {
		panic(err)
	}
	return cache
}()

func firstSighting(updateID int) bool {
	if seenUpdates.Has(updateID) {
		return false
	}
	seenUpdates.Set(updateID, struct{}{})
	return true
}

// LoggerMiddleware seeds the request id and logging context of the update and
// emits one sampled debug line per update id.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(StartKey, time.Now())
		ctx := tghelpers.BuildContext(c)

		upd := c.Update()
		metrics.Update(UpdateKind(upd))
		if logger.ShouldSampleDebug() && firstSighting(upd.ID) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", updateAttrs(c, upd)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		if upd.Message.Photo != nil {
			attrs = append(attrs, slog.Bool("photo", true))
		}
		if upd.Message.AlbumID != "" {
			attrs = append(attrs, slog.String("album_id", upd.Message.AlbumID))
		}
	}
	return attrs
}
