// Package config provides YAML-based configuration loading for the
// multisnake server.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalid is returned by Validate for impossible settings.
var ErrInvalid = errors.New("config: invalid value")

// Config contains all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig defines listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SSHAddr         string        `yaml:"ssh_addr"` // Empty disables the SSH lobby
	HostKeyPath     string        `yaml:"host_key_path"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RoomsConfig defines the rooms hosted by the server. Every room shares the
// same board.
type RoomsConfig struct {
	Count         int `yaml:"count"`
	GridWidth     int `yaml:"grid_width"`
	GridHeight    int `yaml:"grid_height"`
	TickMS        int `yaml:"tick_ms"`
	InitialLength int `yaml:"initial_length"`
	GhostGraceMS  int `yaml:"ghost_grace_ms"`
	SpawnPadding  int `yaml:"spawn_padding"` // Cells kept clear of the walls for spawns and food
}

// GhostTicks converts the grace period into ticks. The extra tick covers the
// tick in which the countdown is first decremented.
func (r RoomsConfig) GhostTicks() int {
	if r.TickMS <= 0 {
		return 0
	}
	return r.GhostGraceMS/r.TickMS + 1
}

// TickDuration returns the tick period.
func (r RoomsConfig) TickDuration() time.Duration {
	return time.Duration(r.TickMS) * time.Millisecond
}

// WebSocketConfig defines per-connection transport limits.
type WebSocketConfig struct {
	ReadLimit   int64         `yaml:"read_limit"`
	PongWait    time.Duration `yaml:"pong_wait"`
	WriteWait   time.Duration `yaml:"write_wait"`
	SendBuffer  int           `yaml:"send_buffer"`
	LobbyBuffer int           `yaml:"lobby_buffer"`
}

// PingInterval returns how often pings are sent; it must be shorter than
// PongWait.
func (w WebSocketConfig) PingInterval() time.Duration {
	return w.PongWait * 9 / 10
}

// StorageConfig defines run history persistence.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DBPath    string `yaml:"db_path"`
	QueueSize int    `yaml:"queue_size"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	r := c.Rooms
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	case r.Count < 1:
		return fmt.Errorf("%w: rooms.count must be at least 1, got %d", ErrInvalid, r.Count)
	case r.GridWidth < 1 || r.GridHeight < 1:
		return fmt.Errorf("%w: rooms grid %dx%d", ErrInvalid, r.GridWidth, r.GridHeight)
	case r.TickMS < 1:
		return fmt.Errorf("%w: rooms.tick_ms must be positive, got %d", ErrInvalid, r.TickMS)
	case r.InitialLength < 1 || r.InitialLength > r.GridHeight:
		return fmt.Errorf("%w: rooms.initial_length %d does not fit height %d", ErrInvalid, r.InitialLength, r.GridHeight)
	case r.GhostGraceMS < 0 || r.SpawnPadding < 0:
		return fmt.Errorf("%w: rooms.ghost_grace_ms and rooms.spawn_padding must not be negative", ErrInvalid)
	case c.WebSocket.ReadLimit < 1 || c.WebSocket.PongWait <= 0 || c.WebSocket.WriteWait <= 0:
		return fmt.Errorf("%w: websocket limits must be positive", ErrInvalid)
	case c.Storage.Enabled && c.Storage.DBPath == "":
		return fmt.Errorf("%w: storage.db_path is empty", ErrInvalid)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}
