package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names under the data directory.
const (
	WhitelistFile = "whitelist.json"
	EventsFile    = "events.json"
	MediaFile     = "media.json"
)

type eventsDoc struct {
	Events []Event `json:"events"`
}

type mediaDoc struct {
	Media []MediaEntry `json:"media"`
}

// JSONBackend keeps each collection in its own JSON document under Dir.
type JSONBackend struct {
	Dir string
}

// NewJSONBackend returns a backend rooted at dir. The directory is created on first write.
func NewJSONBackend(dir string) *JSONBackend {
	return &JSONBackend{Dir: dir}
}

func (b *JSONBackend) path(name string) string {
	return filepath.Join(b.Dir, name)
}

func (b *JSONBackend) LoadWhitelist(_ context.Context) (Whitelist, error) {
	var wl Whitelist
	err := readJSON(b.path(WhitelistFile), &wl)
	return wl, err
}

func (b *JSONBackend) SaveWhitelist(_ context.Context, wl Whitelist) error {
	if wl.Users == nil {
		wl.Users = []string{}
	}
	if wl.Admins == nil {
		wl.Admins = []int64{}
	}
	return writeJSONAtomic(b.path(WhitelistFile), wl)
}

func (b *JSONBackend) LoadEvents(_ context.Context) ([]Event, error) {
	var doc eventsDoc
	err := readJSON(b.path(EventsFile), &doc)
	return doc.Events, err
}

func (b *JSONBackend) SaveEvents(_ context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	return writeJSONAtomic(b.path(EventsFile), eventsDoc{Events: events})
}

func (b *JSONBackend) LoadMedia(_ context.Context) ([]MediaEntry, error) {
	var doc mediaDoc
	err := readJSON(b.path(MediaFile), &doc)
	return doc.Media, err
}

func (b *JSONBackend) SaveMedia(_ context.Context, media []MediaEntry) error {
	if media == nil {
		media = []MediaEntry{}
	}
	return writeJSONAtomic(b.path(MediaFile), mediaDoc{Media: media})
}

// readJSON leaves out untouched when the file is missing or blank.
func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic replaces path through a synced temp file and rename,
// so readers see either the old or the new document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}
	return nil
}
