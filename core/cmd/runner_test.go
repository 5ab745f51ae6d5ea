package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/studiobot/core/config"
	coretelegram "github.com/m3rciful/studiobot/core/telegram"
)

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("STUDIOBOT_TEST_CONFIG", "from-env.yaml")
	opts := Options{ConfigEnvVar: "STUDIOBOT_TEST_CONFIG", DefaultConfigPath: "config.yaml"}
	if got := ResolveConfigPath(opts); got != "from-env.yaml" {
		t.Fatalf("env not honoured: %q", got)
	}
	opts.ConfigPath = "flag.yaml"
	if got := ResolveConfigPath(opts); got != "flag.yaml" {
		t.Fatalf("override not honoured: %q", got)
	}
	t.Setenv("STUDIOBOT_TEST_CONFIG", "")
	opts.ConfigPath = ""
	if got := ResolveConfigPath(opts); got != "config.yaml" {
		t.Fatalf("default not honoured: %q", got)
	}
}

func TestRunClosesApp(t *testing.T) {
	app := &fakeApp{}
	ran := false
	err := Run(Options{
		LoadConfig: func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(_ context.Context, opts coretelegram.RunOptions) error {
			ran = opts.OnStart != nil && opts.OnStop != nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran || !app.closed {
		t.Fatalf("ran=%v closed=%v", ran, app.closed)
	}
}

func TestRunConfigError(t *testing.T) {
	boom := errors.New("bad config")
	err := Run(Options{
		LoadConfig: func(string) (*coreconfig.Config, error) { return nil, boom },
		Bootstrap:  func(context.Context, *coreconfig.Config) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLifecycleHooksChainAppHooks(t *testing.T) {
	var calls []string
	boom := errors.New("start failed")
	opts := coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			calls = append(calls, "start")
			return boom
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			calls = append(calls, "stop")
			return nil
		},
	}
	withLifecycleLogs(&opts, time.Now())

	if err := opts.OnStart(context.Background(), coretelegram.Runtime{}); !errors.Is(err, boom) {
		t.Fatalf("OnStart error = %v", err)
	}
	if err := opts.OnStop(context.Background(), coretelegram.Runtime{}); err != nil {
		t.Fatalf("OnStop: %v", err)
	}
	if len(calls) != 2 || calls[0] != "start" || calls[1] != "stop" {
		t.Fatalf("calls = %v", calls)
	}
}
