package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/metrics"
	tghelpers "github.com/m3rciful/studiobot/core/telegram/helpers"
	"github.com/m3rciful/studiobot/core/telegram/middleware"
)

// summary describes the handler.handled record written after a handler returns.
// Empty status and outcome derive from the returned error.
type summary struct {
	handler string
	status  string
	outcome string
	extras  []slog.Attr
}

func (s summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn()
	s.log(c, err)
	return err
}

func (s summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)
	msgs, kb := middleware.GetCounters(c)

	status, outcome := s.status, s.outcome
	if status == "" {
		status = okOrFail(err)
	}
	if outcome == "" {
		outcome = okOrFail(err)
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.handler),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		logger.TookAttr(updateStart(c)),
	}
	if err != nil {
		attrs = append(attrs, logger.ErrAttr(err), slog.String("err_code", deriveErrorCode(err)))
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", append(attrs, s.extras...)...)
	metrics.Handled(s.handler, status, time.Since(updateStart(c)))
}

func okOrFail(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// updateStart is the time the logging middleware saw the update, or now when
// the route runs without it.
func updateStart(c tele.Context) time.Time {
	if t, ok := c.Get(middleware.StartKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode prefers an explicit Code() and otherwise names the innermost error type.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
