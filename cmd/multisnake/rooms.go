package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/server"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Print the configured endpoints",
	Long:  `Shows the websocket endpoints a server started with the same config exposes.`,
	RunE:  runRooms,
}

func runRooms(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	base := "ws://" + cfg.Server.Addr
	r := cfg.Rooms

	fmt.Printf("Board %dx%d, tick %v, start length %d, ghost for %d ticks\n",
		r.GridWidth, r.GridHeight, r.TickDuration(), r.InitialLength, r.GhostTicks())
	fmt.Println()

	// Print header
	fmt.Printf("  %-4s  %s\n", "Room", "Endpoint")
	fmt.Printf("  %-4s  %s\n", "----", "--------")
	for id := 1; id <= r.Count; id++ {
		fmt.Printf("  %-4d  %s\n", id, server.RoomURL(base, id))
	}

	fmt.Println()
	fmt.Printf("Lobby:  %s/room\n", base)
	fmt.Printf("Health: http://%s/health\n", cfg.Server.Addr)
	if cfg.Server.SSHAddr != "" {
		fmt.Printf("SSH:    ssh -p <port> %s\n", cfg.Server.SSHAddr)
	}
	return nil
}
