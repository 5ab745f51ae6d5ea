package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateNotConfigured(t *testing.T) {
	c := New(Options{Model: "m"})
	if c.Enabled() {
		t.Fatalf("client without key reports enabled")
	}
	if _, err := c.Generate(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateSendsTopic(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Big news!  "}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "secret", BaseURL: srv.URL, Model: "test-model"})
	text, err := c.Generate(context.Background(), "new album")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Big news!" {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Content != DefaultSystemPrompt || !strings.Contains(got.Messages[1].Content, "new album") {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := New(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "x")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
}
