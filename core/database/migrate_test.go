package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/studiobot/core/config"
)

func TestListAndCountMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_media.up.sql", "0001_init.up.sql", "0001_init.down.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	fsys, origin := MigrationSource(coreconfig.DatabaseConfig{MigrationsDir: dir})
	if origin != dir {
		t.Fatalf("existing dir not used: %s", origin)
	}
	files := upMigrations(fsys)
	if len(files) != 2 || files[0] != "0001_init.up.sql" {
		t.Fatalf("files = %v", files)
	}
	if n := countApplied(files, 0, 2); n != 2 {
		t.Fatalf("applied = %d", n)
	}
	if n := countApplied(files, 1, 1); n != 0 {
		t.Fatalf("applied = %d", n)
	}
}

func TestEmbeddedMigrationsFallback(t *testing.T) {
	fsys, origin := MigrationSource(coreconfig.DatabaseConfig{MigrationsDir: filepath.Join(t.TempDir(), "absent")})
	if origin != "embedded" {
		t.Fatalf("origin = %s", origin)
	}
	files := upMigrations(fsys)
	if len(files) == 0 || files[0] != "0001_init.up.sql" {
		t.Fatalf("embedded files = %v", files)
	}
}

func TestConnectionStrings(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "studio"}
	if dsn := DSN(cfg); !strings.Contains(dsn, "sslmode=disable") || !strings.Contains(dsn, "dbname=studio") {
		t.Fatalf("dsn = %s", dsn)
	}
	if u := URL(cfg); u != "postgres://bot:p%40ss@db:5432/studio?sslmode=disable" {
		t.Fatalf("url = %s", u)
	}
}
