// Package ui declares the handlers used when an update matches nothing.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers for updates that no command, form or
// callback claimed.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
