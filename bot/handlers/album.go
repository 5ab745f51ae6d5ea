package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/watermark"
	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/metrics"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/middleware"
)

// maxPhotoBytes bounds a single download.
const maxPhotoBytes = 20 << 20

type albumBatch struct {
	c      tele.Context
	photos []*tele.Photo
	timer  *time.Timer
}

// albumCollector groups the messages of one Telegram album. Each part resets
// the window; when it expires the batch is flushed once.
type albumCollector struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*albumBatch
	flush   func(c tele.Context, photos []*tele.Photo)
}

func newAlbumCollector(wait time.Duration, flush func(tele.Context, []*tele.Photo)) *albumCollector {
	return &albumCollector{wait: wait, pending: make(map[string]*albumBatch), flush: flush}
}

// Add queues photo under albumID.
func (a *albumCollector) Add(albumID string, c tele.Context, photo *tele.Photo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.pending[albumID]
	if !ok {
		b = &albumBatch{c: c}
		a.pending[albumID] = b
		b.timer = time.AfterFunc(a.wait, func() { a.fire(albumID) })
	} else {
		b.timer.Reset(a.wait)
	}
	b.photos = append(b.photos, photo)
}

func (a *albumCollector) fire(albumID string) {
	a.mu.Lock()
	b, ok := a.pending[albumID]
	delete(a.pending, albumID)
	a.mu.Unlock()
	if ok {
		a.flush(b.c, b.photos)
	}
}

// Pending reports how many albums are still collecting.
func (a *albumCollector) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Stop drops all pending albums.
func (a *albumCollector) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, b := range a.pending {
		b.timer.Stop()
		delete(a.pending, id)
	}
}

// Photo handles a photo message. Album parts are collected first; a lone
// photo is processed right away.
func (h *Handlers) Photo(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	if msg.AlbumID != "" {
		h.albums.Add(msg.AlbumID, c, msg.Photo)
		return nil
	}
	return h.ProcessPhotos(c, []*tele.Photo{msg.Photo})
}

// flushAlbum runs on a timer goroutine, outside the middleware chain, so it
// does its own recovery and failure reply.
func (h *Handlers) flushAlbum(c tele.Context, photos []*tele.Photo) {
	ctx := tghelpers.BuildContext(c)
	defer func() {
		if r := recover(); r != nil {
			logger.LogEvent(ctx, logger.Media, slog.LevelError, "media.album",
				slog.String("status", "panic"),
				slog.Int("count", len(photos)),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			_ = tghelpers.SendText(c, middleware.FailureText)
		}
	}()
	if err := h.ProcessPhotos(c, photos); err != nil {
		logger.LogEvent(ctx, logger.Media, slog.LevelError, "media.album",
			slog.String("status", "fail"),
			slog.Int("count", len(photos)),
			logger.ErrAttr(err),
		)
		_ = tghelpers.SendText(c, middleware.FailureText)
	}
}

// ProcessPhotos watermarks a batch and sends it back as one album.
// A batch over MaxPhotos gets one reply and nothing is downloaded.
func (h *Handlers) ProcessPhotos(c tele.Context, photos []*tele.Photo) error {
	ctx := tghelpers.BuildContext(c)
	if len(photos) > h.deps.MaxPhotos {
		logger.LogEvent(ctx, logger.Media, slog.LevelInfo, "media.batch",
			slog.String("status", "skip"),
			slog.String("outcome", "too_many"),
			slog.Int("count", len(photos)),
			slog.Int("max", h.deps.MaxPhotos),
		)
		return tghelpers.SendText(c, TooManyPhotosText(len(photos), h.deps.MaxPhotos))
	}
	if h.deps.Stamper == nil || !h.deps.Stamper.Ready() {
		return tghelpers.SendText(c, textNoLogo)
	}

	start := time.Now()
	out, err := h.stampAll(ctx, c, photos)
	if err != nil {
		logger.LogEvent(ctx, logger.Media, slog.LevelWarn, "media.batch",
			slog.String("status", "fail"),
			slog.Int("count", len(photos)),
			logger.ErrAttr(err),
		)
		if errors.Is(err, watermark.ErrNoLogo) {
			return tghelpers.SendText(c, textNoLogo)
		}
		return tghelpers.SendText(c, textPhotoFailed)
	}
	logger.LogEvent(ctx, logger.Media, slog.LevelInfo, "media.batch",
		slog.String("status", "ok"),
		slog.Int("count", len(out)),
		logger.TookAttr(start),
	)
	metrics.Photos(len(out))

	if len(out) == 1 {
		return tghelpers.SendPhoto(c, &tele.Photo{File: tele.FromReader(bytes.NewReader(out[0]))})
	}
	album := make(tele.Album, 0, len(out))
	for _, data := range out {
		album = append(album, &tele.Photo{File: tele.FromReader(bytes.NewReader(data))})
	}
	return tghelpers.SendAlbum(c, album)
}

func (h *Handlers) stampAll(ctx context.Context, c tele.Context, photos []*tele.Photo) ([][]byte, error) {
	out := make([][]byte, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.deps.Workers)
	for i, p := range photos {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("photo %d: panic: %v", i+1, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := h.deps.Fetch(c, &p.File)
			if err != nil {
				return err
			}
			stamped, err := h.deps.Stamper.Apply(src)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i+1, err)
			}
			out[i] = stamped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func readAllLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo larger than %d bytes", maxPhotoBytes)
	}
	return data, nil
}
