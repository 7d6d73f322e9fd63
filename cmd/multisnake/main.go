// multisnake is a multiplayer snake server: tick-driven rooms behind a
// websocket gateway, with a lobby you can watch locally or over SSH.
//
// Usage:
//
//	multisnake serve             - Host the rooms and the websocket gateway
//	multisnake lobby             - Watch a server's lobby and pick a room
//	multisnake scores            - Show the longest recorded snakes
//	multisnake rooms             - Print the configured endpoints
//
// Global flags:
//
//	--config <path>     - Server config file (default: search order)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "multisnake",
	Short: "Multiplayer snake over websockets",
	Long: `multisnake hosts rooms of snakes that share one board. Every room
advances on a fixed tick and streams the net changes to its players.

Available commands:
  serve    - Host the rooms, the websocket gateway and the SSH lobby
  lobby    - Watch the room list of a running server
  scores   - View the run history
  rooms    - Print the websocket endpoints

Examples:
  multisnake serve --rooms 2 --tick 80
  multisnake serve --ssh :23234
  multisnake lobby --server ws://127.0.0.1:8080
  multisnake scores --room 1`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to server.yaml")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lobbyCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(roomsCmd)
}

// loadConfig applies the global flags to the configured settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "multisnake",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
