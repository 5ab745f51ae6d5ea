// Package callbacks decodes inline button data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseData splits Telebot's "\f<unique>|<payload>" encoding.
// Callbacks already matched by Telebot carry Unique and a bare payload in Data.
func ParseData(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the unique key of the current callback.
func Key(c tele.Context) string {
	key, _ := ParseData(c.Callback())
	return key
}

// Payload returns the data after the first '|'.
func Payload(c tele.Context) string {
	_, payload := ParseData(c.Callback())
	return payload
}
