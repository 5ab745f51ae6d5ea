// Package netutil holds the outbound HTTP plumbing shared by the Telegram
// transport and the control plane client.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Kind classifies a failed outbound call.
type Kind string

const (
	KindNone     Kind = ""
	KindTimeout  Kind = "timeout"
	KindNetwork  Kind = "network"
	KindCanceled Kind = "canceled"
	KindOther    Kind = "other"
)

// Classify maps an error returned by net/http to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return KindTimeout
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			if k := Classify(urlErr.Err); k != KindOther {
				return k
			}
		}
	}
	return KindOther
}

// ShouldRetry reports whether a network error is worth retrying.
// Only dial failures and timeouts qualify; cancellation never does.
func ShouldRetry(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}
