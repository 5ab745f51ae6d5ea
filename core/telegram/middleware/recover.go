package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
)

// FailureText is the generic reply sent when a handler panics or fails.
const FailureText = "⚠️ Something went wrong. Please try again later."

// RecoverMiddleware catches panics in handlers, logs them and answers with FailureText.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx := tghelpers.BuildContext(c)
				logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
					slog.String("status", "fail"),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				replyFailure(c)
				err = nil
			}
		}()
		return next(c)
	}
}

// ErrorReplyMiddleware turns a handler error into a log line and FailureText,
// so one failing update never reaches the poll loop.
func ErrorReplyMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		err := next(c)
		if err == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		attrs := []slog.Attr{
			slog.String("status", "fail"),
			slog.String("handler", logger.HandlerFrom(ctx)),
			logger.ErrAttr(err),
		}
		if start, ok := c.Get(StartKey).(time.Time); ok {
			attrs = append(attrs, logger.TookAttr(start))
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelError, "handler.error", attrs...)
		replyFailure(c)
		return nil
	}
}

func replyFailure(c tele.Context) {
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: FailureText})
		return
	}
	if c.Chat() == nil {
		return
	}
	_ = c.Send(FailureText)
}
