package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/studiobot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunSkipsDatabaseForJSON(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StorageJSON}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatalf("connect called for json driver")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DB != nil {
		t.Fatalf("unexpected db handle")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StoragePostgres}}
	boom := errors.New("refused")
	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRunSeedersStopsOnError(t *testing.T) {
	var ran []string
	mk := func(name string, err error) Seeder {
		return SeederFunc{Label: name, Fn: func(context.Context) (int, error) {
			ran = append(ran, name)
			return 1, err
		}}
	}
	err := RunSeeders(context.Background(), mk("a", nil), mk("b", errors.New("x")), mk("c", nil))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(ran) != 2 || ran[1] != "b" {
		t.Fatalf("unexpected run order %v", ran)
	}
}
