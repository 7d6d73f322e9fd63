package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(defaultServerYAML)
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("embedded defaults differ from Default():\n got %+v\nwant %+v", cfg, Default())
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestGhostTicks(t *testing.T) {
	tests := []struct {
		graceMS, tickMS, expected int
	}{
		{8000, 100, 81},
		{200, 100, 3},
		{250, 100, 3},
		{0, 100, 1},
		{100, 0, 0},
	}

	for _, tc := range tests {
		r := RoomsConfig{GhostGraceMS: tc.graceMS, TickMS: tc.tickMS}
		if got := r.GhostTicks(); got != tc.expected {
			t.Errorf("GhostTicks(%d/%d) = %d, expected %d", tc.graceMS, tc.tickMS, got, tc.expected)
		}
	}
}

func TestParsePartialOverride(t *testing.T) {
	cfg, err := Parse([]byte("rooms:\n  count: 2\n  tick_ms: 50\nwebsocket:\n  pong_wait: 30s\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Rooms.Count != 2 || cfg.Rooms.TickMS != 50 {
		t.Errorf("rooms = %+v, expected count 2 tick 50", cfg.Rooms)
	}
	if cfg.Rooms.GridWidth != Default().Rooms.GridWidth {
		t.Errorf("grid_width = %d, expected default %d", cfg.Rooms.GridWidth, Default().Rooms.GridWidth)
	}
	if cfg.WebSocket.PongWait != 30*time.Second {
		t.Errorf("pong_wait = %v, expected 30s", cfg.WebSocket.PongWait)
	}
	if cfg.WebSocket.PingInterval() != 27*time.Second {
		t.Errorf("PingInterval() = %v, expected 27s", cfg.WebSocket.PingInterval())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no rooms", func(c *Config) { c.Rooms.Count = 0 }},
		{"zero tick", func(c *Config) { c.Rooms.TickMS = 0 }},
		{"empty grid", func(c *Config) { c.Rooms.GridWidth = 0 }},
		{"snake longer than board", func(c *Config) { c.Rooms.InitialLength = c.Rooms.GridHeight + 1 }},
		{"negative grace", func(c *Config) { c.Rooms.GhostGraceMS = -1 }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"no read limit", func(c *Config) { c.WebSocket.ReadLimit = 0 }},
		{"storage without path", func(c *Config) { c.Storage.DBPath = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, expected ErrInvalid", err)
			}
		})
	}
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9000\"\nlog:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Log.Level != "debug" {
		t.Errorf("Load() = %+v", cfg.Server)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rooms:\n  count: 0\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load(invalid) = %v, expected ErrInvalid", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandHome("~/.multisnake/runs.db")
	if err != nil {
		t.Fatalf("ExpandHome() failed: %v", err)
	}
	if want := filepath.Join(home, ".multisnake", "runs.db"); got != want {
		t.Errorf("ExpandHome() = %q, expected %q", got, want)
	}

	if got, _ := ExpandHome("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}
