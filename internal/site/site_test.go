package site

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cuebitt/webwidgets/pkg/core"
)

const sample = `
title: Cuebitt's corner
server:
  address: ":8080"
  codec: msgpack
  log_level: debug
  allowed_origins: ["https://cuebitt.example"]
  timeouts:
    element_connect: 3s
status_api:
  base_url: https://status.example/
  retries: 0
  timeout: 2s
widgets:
  - tag: theme-switcher
    attributes:
      theme: system
  - tag: lanyard-status
    attributes:
      user-id: "42"
      update-interval: "30"
  - tag: webgarden-greenhouse
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid site, got %v", err)
	}

	cfg := s.Config()
	if cfg.Address != ":8080" || cfg.Codec != "msgpack" {
		t.Errorf("unexpected server config %+v", cfg)
	}
	if cfg.Timeouts.ElementConnect != 3*time.Second {
		t.Errorf("expected 3s connect timeout, got %v", cfg.Timeouts.ElementConnect)
	}
	if cfg.Timeouts.WebSocketRead != core.DefaultTimeoutConfig().WebSocketRead {
		t.Errorf("expected default read timeout, got %v", cfg.Timeouts.WebSocketRead)
	}
	if cfg.Timeouts.StatusFetch != 2*time.Second {
		t.Errorf("expected 2s status timeout, got %v", cfg.Timeouts.StatusFetch)
	}
	if cfg.MaxElements != core.DefaultConfig().MaxElements {
		t.Errorf("expected default max elements, got %d", cfg.MaxElements)
	}

	want := []core.Placement{
		{Tag: "theme-switcher", Attributes: map[string]string{"theme": "system"}},
		{Tag: "lanyard-status", Attributes: map[string]string{"user-id": "42", "update-interval": "30"}},
		{Tag: "webgarden-greenhouse"},
	}
	page := s.Page()
	if diff := cmp.Diff(want, page.Widgets); diff != "" {
		t.Errorf("widgets mismatch (-want +got):\n%s", diff)
	}
	if page.Title != "Cuebitt's corner" {
		t.Errorf("expected title, got '%s'", page.Title)
	}

	if got := s.StatusClient(nil).BaseURL(); got != "https://status.example" {
		t.Errorf("expected trimmed base url, got '%s'", got)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("server:\n  adress: \":1\"\n"))
	if err == nil || !strings.Contains(err.Error(), "adress") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Site)
		want   string
	}{
		{"bad codec", func(s *Site) { s.Server.Codec = "xml" }, "server: Codec must be json or msgpack"},
		{"relative url", func(s *Site) { s.Status.BaseURL = "/api" }, "base_url"},
		{"negative retries", func(s *Site) { s.Status.Retries = -1 }, "retries"},
		{"missing tag", func(s *Site) { s.Widgets = []core.Placement{{}} }, "widgets[0]: tag is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEBWIDGETS_ADDRESS", ":9999")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Server.Address != ":9999" {
		t.Errorf("expected env override, got '%s'", s.Server.Address)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if diff := cmp.Diff(Default(), s); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExampleSite(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "examples", "site.yaml"))
	if err != nil {
		t.Fatalf("expected example site to load, got %v", err)
	}

	tags := make([]string, 0, len(s.Widgets))
	for _, w := range s.Widgets {
		tags = append(tags, w.Tag)
	}
	want := []string{"theme-switcher", "lanyard-status", "increasr-frame", "webgarden-greenhouse"}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Errorf("widgets mismatch (-want +got):\n%s", diff)
	}
	if s.Status.BreakerCooldown != 30*time.Second {
		t.Errorf("expected 30s breaker cooldown, got %v", s.Status.BreakerCooldown)
	}
}

func TestSite_Logger(t *testing.T) {
	s := Default()
	s.Server.JSONLogs = true
	s.Server.Debug = true
	s.Server.LogLevel = "debug"

	var buf bytes.Buffer
	s.Logger(&buf).Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg 'hello', got %v", entry["msg"])
	}
	if _, ok := entry["source"]; !ok {
		t.Errorf("expected source location in debug mode, got %v", entry)
	}
}
