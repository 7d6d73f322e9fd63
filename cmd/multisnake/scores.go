package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/storage"
)

var (
	flagScoresRoom  int
	flagScoresLimit int
	flagRecent      bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the longest recorded snakes",
	Long: `Display the run history recorded by the server: the longest snakes of
a room (or of every room), or the most recent runs.

Examples:
  multisnake scores
  multisnake scores --room 2 --limit 5
  multisnake scores --recent`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresRoom, "room", 0, "Room id (0 = all rooms)")
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of runs to show")
	scoresCmd.Flags().BoolVar(&flagRecent, "recent", false, "Show the latest runs instead of the longest")
}

func runScores(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("cannot open run history: %w", err)
	}
	defer store.Close()

	var runs []storage.Run
	title := "Longest snakes"
	if flagRecent {
		title = "Recent runs"
		runs, err = store.RecentRuns(flagScoresLimit)
	} else {
		runs, err = store.TopRuns(flagScoresRoom, flagScoresLimit)
	}
	if err != nil {
		return err
	}

	if flagScoresRoom != 0 && !flagRecent {
		title = fmt.Sprintf("%s - room %d", title, flagScoresRoom)
	}
	fmt.Println(title)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'multisnake serve' and play to record the first one!")
		return nil
	}

	// Print header
	fmt.Printf("  %-4s  %-4s  %-6s  %-5s  %-6s  %-10s  %s\n", "Rank", "Room", "Length", "Eaten", "Ticks", "Cause", "Ended")
	fmt.Printf("  %-4s  %-4s  %-6s  %-5s  %-6s  %-10s  %s\n", "----", "----", "------", "-----", "-----", "-----", "-----")

	for i, run := range runs {
		fmt.Printf("  %-4d  %-4d  %-6d  %-5d  %-6d  %-10s  %s\n",
			i+1, run.RoomID, run.Length, run.Eaten, run.Ticks, run.Cause, run.EndedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	if best, err := store.BestLength(flagScoresRoom); err == nil {
		fmt.Printf("Best: %d\n", best)
	}

	stats, err := store.AllRoomStats()
	if err != nil || len(stats) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Rooms:")
	for id := 1; id <= maxRoomID(stats); id++ {
		st, ok := stats[id]
		if !ok {
			continue
		}
		fmt.Printf("  room %-3d  %4d runs  best %-4d  avg %5.1f  last %s\n",
			id, st.Runs, st.BestLength, st.AvgLength, st.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}

func maxRoomID(stats map[int]*storage.RoomStats) int {
	highest := 0
	for id := range stats {
		highest = max(highest, id)
	}
	return highest
}
