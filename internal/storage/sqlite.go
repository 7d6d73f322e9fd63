// Package storage provides SQLite-based persistence for snake run history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/multisnake/internal/room"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// Run is one finished snake life.
type Run struct {
	ID       int64
	RoomID   int
	ClientID string
	Length   int
	Eaten    int
	Ticks    int
	Cause    string // "wall", "collision", "disconnect"
	EndedAt  time.Time
}

// RunFromResult converts a room result into a storable run.
func RunFromResult(r room.Result) Run {
	return Run{
		RoomID:   r.RoomID,
		ClientID: string(r.Client),
		Length:   r.Length,
		Eaten:    r.Eaten,
		Ticks:    r.Ticks,
		Cause:    r.Cause.String(),
		EndedAt:  r.EndedAt,
	}
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL,
			client_id TEXT NOT NULL,
			length INTEGER NOT NULL,
			eaten INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			cause TEXT NOT NULL,
			ended_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_room_id ON runs(room_id);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(room_id, length DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(run Run) (int64, error) {
	endedAt := run.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO runs (room_id, client_id, length, eaten, ticks, cause, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RoomID, run.ClientID, run.Length, run.Eaten, run.Ticks, run.Cause, endedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopRuns retrieves the longest runs, ordered by length descending.
// A roomID of 0 covers every room.
func (s *Store) TopRuns(roomID, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, room_id, client_id, length, eaten, ticks, cause, ended_at
		 FROM runs
		 WHERE ? = 0 OR room_id = ?
		 ORDER BY length DESC, ticks DESC, id ASC
		 LIMIT ?`,
		roomID, roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	return scanRuns(rows)
}

// RecentRuns retrieves the most recently finished runs.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, room_id, client_id, length, eaten, ticks, cause, ended_at
		 FROM runs
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query recent runs: %w", err)
	}
	return scanRuns(rows)
}

// BestLength returns the longest recorded snake in a room (0 for all rooms).
// Returns 0 if no runs exist.
func (s *Store) BestLength(roomID int) (int, error) {
	var length sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(length) FROM runs WHERE ? = 0 OR room_id = ?",
		roomID, roomID,
	).Scan(&length)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best length: %w", err)
	}

	if !length.Valid {
		return 0, nil
	}
	return int(length.Int64), nil
}

// ClearRuns deletes the history of a room (0 for all rooms).
func (s *Store) ClearRuns(roomID int) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE ? = 0 OR room_id = ?", roomID, roomID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// RoomStats contains aggregated statistics for a room.
type RoomStats struct {
	RoomID     int
	Runs       int
	BestLength int
	AvgLength  float64
	TotalEaten int64
	LastPlayed time.Time
}

// AllRoomStats retrieves statistics for every room that has history.
func (s *Store) AllRoomStats() (map[int]*RoomStats, error) {
	rows, err := s.db.Query(
		`SELECT room_id, COUNT(*), MAX(length), AVG(length), SUM(eaten), MAX(ended_at)
		 FROM runs
		 GROUP BY room_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get room stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[int]*RoomStats)
	for rows.Next() {
		var st RoomStats
		var lastPlayed int64
		if err := rows.Scan(&st.RoomID, &st.Runs, &st.BestLength, &st.AvgLength, &st.TotalEaten, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = time.UnixMilli(lastPlayed)
		stats[st.RoomID] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// RunByID retrieves a run by its ID. It returns nil if none exists.
func (s *Store) RunByID(id int64) (*Run, error) {
	var run Run
	var endedAt int64

	err := s.db.QueryRow(
		`SELECT id, room_id, client_id, length, eaten, ticks, cause, ended_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.RoomID, &run.ClientID, &run.Length, &run.Eaten, &run.Ticks, &run.Cause, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	run.EndedAt = time.UnixMilli(endedAt)
	return &run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var endedAt int64
		if err := rows.Scan(&run.ID, &run.RoomID, &run.ClientID, &run.Length, &run.Eaten, &run.Ticks, &run.Cause, &endedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		run.EndedAt = time.UnixMilli(endedAt)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}
