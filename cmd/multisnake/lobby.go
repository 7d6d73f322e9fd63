package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/multisnake/internal/platform/tui"
	"github.com/vovakirdan/multisnake/internal/server"
)

var flagServer string

var lobbyCmd = &cobra.Command{
	Use:   "lobby",
	Short: "Watch a server's lobby and pick a room",
	Long: `Connect to the lobby stream of a running server and list its rooms
with live player counts. Press Enter on a room to print its websocket
endpoint and exit.

Examples:
  multisnake lobby
  multisnake lobby --server ws://snake.example.com:8080`,
	RunE: runLobby,
}

func init() {
	lobbyCmd.Flags().StringVar(&flagServer, "server", "", "Gateway address (default: configured server.addr)")
}

func runLobby(_ *cobra.Command, _ []string) error {
	base := flagServer
	if base == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		base = cfg.Server.Addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := server.DialLobby(ctx, base, newLogger("warn"))
	if err != nil {
		return err
	}
	defer client.Close()

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	picked, err := tui.RunLobby(client.Updates(), tui.LobbyOptions{
		RoomURL: client.RoomURL,
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}
	if picked != 0 {
		fmt.Println(client.RoomURL(picked))
	}
	return nil
}
