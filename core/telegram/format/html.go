// Package format prepares user-supplied text for Telegram messages.
package format

import (
	"html"
	"unicode/utf8"
)

// MessageLimit is Telegram's maximum text length in characters.
const MessageLimit = 4096

// EscapeHTML escapes text for ParseMode HTML.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Truncate cuts s to at most n runes, ending with an ellipsis when shortened.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
