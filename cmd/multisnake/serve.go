package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/config"
	"github.com/vovakirdan/multisnake/internal/multiplayer"
	"github.com/vovakirdan/multisnake/internal/platform/tui"
	"github.com/vovakirdan/multisnake/internal/room"
	"github.com/vovakirdan/multisnake/internal/server"
	"github.com/vovakirdan/multisnake/internal/storage"
)

var (
	flagAddr      string
	flagSSHAddr   string
	flagHostKey   string
	flagRooms     int
	flagTickMS    int
	flagSeed      int64
	flagNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the rooms and the websocket gateway",
	Long: `Start every configured room, each on its own tick, behind one
websocket gateway.

Endpoints:
  GET /room/{id}   - play in a room
  GET /room        - lobby stream of player counts
  GET /health      - liveness probe

With --ssh the lobby is also served as a terminal UI over SSH. The host key
defaults to ~/.multisnake/host_key and is generated on first start.

Examples:
  multisnake serve
  multisnake serve --addr :8080 --rooms 2
  multisnake serve --ssh :23234
  multisnake serve --config ./server.yaml --no-history`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Websocket gateway address (host:port)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH lobby address (host:port), empty to disable")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file")
	serveCmd.Flags().IntVar(&flagRooms, "rooms", 0, "Number of rooms")
	serveCmd.Flags().IntVar(&flagTickMS, "tick", 0, "Tick period in milliseconds")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	serveCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record finished runs")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)

	lobby := multiplayer.NewLobby(cfg.WebSocket.LobbyBuffer)
	manager, err := multiplayer.NewManager(managerConfig(cfg), lobby, logger.WithPrefix("rooms"))
	if err != nil {
		return err
	}

	var (
		store    *storage.Store
		recorder *storage.Recorder
	)
	if cfg.Storage.Enabled {
		store, err = storage.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			recorder = storage.NewRecorder(store, cfg.Storage.QueueSize, logger.WithPrefix("history"))
			manager.SetResultSaver(recorder)
		}
	}

	gateway := server.New(server.Config{
		Addr:       cfg.Server.Addr,
		ReadLimit:  cfg.WebSocket.ReadLimit,
		PongWait:   cfg.WebSocket.PongWait,
		WriteWait:  cfg.WebSocket.WriteWait,
		SendBuffer: cfg.WebSocket.SendBuffer,
	}, server.ManagerRooms(manager), lobby, logger.WithPrefix("gateway"))

	var ssh *tui.SSHServer
	if cfg.Server.SSHAddr != "" {
		hostKey, err := config.ExpandHome(cfg.Server.HostKeyPath)
		if err != nil {
			return err
		}
		ssh, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     cfg.Server.SSHAddr,
			HostKeyPath: hostKey,
			IdleTimeout: cfg.Server.IdleTimeout,
			RoomURL: func(id int) string {
				return server.RoomURL("ws://"+cfg.Server.Addr, id)
			},
		}, lobby, logger.WithPrefix("ssh"))
		if err != nil {
			return err
		}
	}

	manager.Start()
	logger.Debug("room settings",
		"rooms", cfg.Rooms.Count,
		"grid", fmt.Sprintf("%dx%d", cfg.Rooms.GridWidth, cfg.Rooms.GridHeight),
		"tick", cfg.Rooms.TickDuration(),
		"ghost_ticks", cfg.Rooms.GhostTicks(),
	)

	errs := make(chan error, 2)
	go func() { errs <- gateway.ListenAndServe() }()
	if ssh != nil {
		go func() { errs <- ssh.ListenAndServe() }()
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-done:
		logger.Info("shutting down...", "signal", sig)
	case runErr = <-errs:
		if runErr != nil {
			logger.Error("listener failed", "error", runErr)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	shutdown(ctx, logger, gateway, ssh, manager, recorder, store)
	return runErr
}

// shutdown closes the listeners, then the rooms, then flushes the run history.
func shutdown(ctx context.Context, logger *log.Logger, gateway *server.Server, ssh *tui.SSHServer,
	manager *multiplayer.Manager, recorder *storage.Recorder, store *storage.Store) {
	if err := gateway.Shutdown(ctx); err != nil {
		logger.Warn("gateway shutdown", "error", err)
	}
	if ssh != nil {
		if err := ssh.Shutdown(ctx); err != nil {
			logger.Warn("ssh shutdown", "error", err)
		}
	}

	manager.Stop()

	if recorder != nil {
		recorder.Close()
		if n := recorder.Dropped(); n > 0 {
			logger.Warn("run history dropped results", "count", n)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("closing run history", "error", err)
		}
	}
	logger.Info("stopped")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = flagAddr
	}
	if flags.Changed("ssh") {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		cfg.Server.HostKeyPath = flagHostKey
	}
	if flags.Changed("rooms") {
		cfg.Rooms.Count = flagRooms
	}
	if flags.Changed("tick") {
		cfg.Rooms.TickMS = flagTickMS
	}
	if flagNoHistory {
		cfg.Storage.Enabled = false
	}
}

func managerConfig(cfg config.Config) multiplayer.ManagerConfig {
	return multiplayer.ManagerConfig{
		Rooms: cfg.Rooms.Count,
		Room: room.Config{
			Width:         cfg.Rooms.GridWidth,
			Height:        cfg.Rooms.GridHeight,
			TickMS:        cfg.Rooms.TickMS,
			InitialLength: cfg.Rooms.InitialLength,
			GhostTicks:    cfg.Rooms.GhostTicks(),
			SpawnPadding:  cfg.Rooms.SpawnPadding,
		},
		Seed: flagSeed,
	}
}
