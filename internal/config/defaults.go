package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// Default returns the hardcoded server configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			SSHAddr:         "",
			HostKeyPath:     "",
			IdleTimeout:     30 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Rooms: RoomsConfig{
			Count:         4,
			GridWidth:     40,
			GridHeight:    30,
			TickMS:        100,
			InitialLength: 5,
			GhostGraceMS:  8000,
			SpawnPadding:  5,
		},
		WebSocket: WebSocketConfig{
			ReadLimit:   512,
			PongWait:    60 * time.Second,
			WriteWait:   10 * time.Second,
			SendBuffer:  256,
			LobbyBuffer: 64,
		},
		Storage: StorageConfig{
			Enabled:   true,
			DBPath:    "~/.multisnake/runs.db",
			QueueSize: 128,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
