package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.ControlPlane.URL != DefaultAgentURL {
		t.Fatalf("agent url = %q", cfg.ControlPlane.URL)
	}
	if cfg.Watermark.MaxPhotos != DefaultMaxPhotos {
		t.Fatalf("max photos = %d", cfg.Watermark.MaxPhotos)
	}
	if cfg.Storage.Driver != StorageJSON || cfg.Storage.DataDir != DefaultDataDir {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestNormalizeOwnerBecomesAdmin(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Access:   AccessConfig{OwnerID: 42},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.IsAdmin(42) {
		t.Fatalf("owner should be admin when ADMIN_IDS is empty, got %v", cfg.Access.AdminIDs)
	}

	cfg = &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Access:   AccessConfig{OwnerID: 42, AdminIDs: []int64{7}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.IsAdmin(42) {
		t.Fatal("owner must not be added when admins are configured")
	}
}

func TestNormalizeRejectsBadCorner(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "123:abc"},
		Watermark: WatermarkConfig{Corner: "middle"},
	}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected validation error for corner")
	}
}

func TestNormalizeWebhookNeedsURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc", RunMode: "webhook"}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook without url")
	}
}

func TestParseAdminIDs(t *testing.T) {
	ids, bad := ParseAdminIDs(" 1, 2,abc,,2, 0 ,3")
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("ids = %v", ids)
	}
	if len(bad) != 2 || bad[0] != "abc" || bad[1] != "0" {
		t.Fatalf("invalid = %v", bad)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "111:token")
	t.Setenv("ADMIN_IDS", "10,x,20")
	t.Setenv("MAX_PHOTOS", "5")
	t.Setenv("BOTHOST_AGENT_URL", "http://localhost:9000/")

	cfg, err := Load(filepath.Join(os.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "111:token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if !cfg.IsAdmin(10) || !cfg.IsAdmin(20) {
		t.Fatalf("admins = %v", cfg.Access.AdminIDs)
	}
	if len(cfg.Warnings) != 1 {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}
	if cfg.Watermark.MaxPhotos != 5 {
		t.Fatalf("max photos = %d", cfg.Watermark.MaxPhotos)
	}
	if cfg.ControlPlane.URL != "http://localhost:9000" {
		t.Fatalf("agent url = %q", cfg.ControlPlane.URL)
	}
}
