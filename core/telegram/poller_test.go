package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/studiobot/core/config"
)

func TestBuildPollerLongPollDefaults(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll}).(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller")
	}
	if p.Timeout != DefaultLongPollTimeout {
		t.Fatalf("timeout = %v", p.Timeout)
	}
	if len(p.AllowedUpdates) != 2 {
		t.Fatalf("allowed updates = %v", p.AllowedUpdates)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = " Webhook "
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 3000, Secret: "s3cret"}

	p, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller")
	}
	if p.Listen != "0.0.0.0:3000" {
		t.Fatalf("listen = %q", p.Listen)
	}
	if p.SecretToken != "s3cret" || p.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("unexpected webhook: %+v", p)
	}
}

func TestLongPollTimeoutFromConfig(t *testing.T) {
	opts := PollerOptions{LongPollTimeoutSeconds: 25}
	if got := opts.LongPollTimeout(); got != 25*time.Second {
		t.Fatalf("timeout = %v", got)
	}
}
