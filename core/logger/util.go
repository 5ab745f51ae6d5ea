package logger

import (
	"log/slog"
	"strings"
	"time"
)

// maxErrLen bounds error text attached to log lines.
const maxErrLen = 256

// RoundMS rounds duration to the nearest millisecond.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// TookAttr is the "took" attribute measured from start.
func TookAttr(start time.Time) slog.Attr {
	return slog.Duration("took", RoundMS(time.Since(start)))
}

// ErrAttr renders err as a single-line, length-bounded "err" attribute.
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "")
	}
	return slog.String("err", strings.ReplaceAll(SanitizeLimit(err.Error(), maxErrLen), "\n", " "))
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
