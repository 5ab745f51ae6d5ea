package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/telegram/sender"
)

var active atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d; nil makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	active.Store(d)
}

// enqueue hands run to the dispatcher. A full or closed queue degrades to a
// synchronous call so replies are never dropped.
func enqueue(c tele.Context, action, endpoint string, run func() error) error {
	d := active.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			logger.ErrAttr(err),
		)
		return run()
	default:
		return err
	}
}

func htmlOptions(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return enqueue(c, "send.text", "sendMessage", func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	})
}

// SendHTML sends HTML-formatted text with an optional keyboard.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, htmlOptions(markup))
}

// SendKeyboard sends plain text with an inline keyboard.
func SendKeyboard(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// EditOrSendHTML edits the message behind a callback, or sends a new one otherwise.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := htmlOptions(markup)
	if cb := c.Callback(); cb != nil && cb.Message != nil {
		if err := c.Edit(text, opts); err == nil {
			return nil
		}
	}
	return SendText(c, text, opts)
}

// SendAlbum sends a media group. Telegram requires two to ten items.
func SendAlbum(c tele.Context, album tele.Album) error {
	return enqueue(c, "send.album", "sendMediaGroup", func() error {
		return c.SendAlbum(album)
	})
}

// SendPhoto sends a single photo.
func SendPhoto(c tele.Context, photo *tele.Photo) error {
	return enqueue(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo)
	})
}
