package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/multisnake/internal/protocol"
	"github.com/vovakirdan/multisnake/internal/room"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreSaveAndTopRuns(t *testing.T) {
	store := openTestStore(t)

	runs := []Run{
		{RoomID: 1, ClientID: "a", Length: 7, Eaten: 2, Ticks: 80, Cause: "wall"},
		{RoomID: 1, ClientID: "b", Length: 12, Eaten: 7, Ticks: 300, Cause: "collision"},
		{RoomID: 2, ClientID: "c", Length: 20, Eaten: 15, Ticks: 900, Cause: "disconnect"},
		{RoomID: 1, ClientID: "d", Length: 5, Eaten: 0, Ticks: 10, Cause: "wall"},
	}
	for _, run := range runs {
		if _, err := store.SaveRun(run); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	top, err := store.TopRuns(1, 10)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 runs for room 1, got %d", len(top))
	}
	expected := []int{12, 7, 5}
	for i, run := range top {
		if run.Length != expected[i] {
			t.Errorf("run %d: length = %d, expected %d", i, run.Length, expected[i])
		}
	}

	all, err := store.TopRuns(0, 2)
	if err != nil {
		t.Fatalf("TopRuns(all) failed: %v", err)
	}
	if len(all) != 2 || all[0].ClientID != "c" {
		t.Errorf("TopRuns(0, 2) = %+v, expected c first", all)
	}
}

func TestStoreBestLength(t *testing.T) {
	store := openTestStore(t)

	best, err := store.BestLength(1)
	if err != nil {
		t.Fatalf("BestLength() failed: %v", err)
	}
	if best != 0 {
		t.Errorf("Expected 0 for empty history, got %d", best)
	}

	store.SaveRun(Run{RoomID: 1, ClientID: "a", Length: 9, Cause: "wall"})
	store.SaveRun(Run{RoomID: 2, ClientID: "b", Length: 14, Cause: "wall"})

	if best, _ := store.BestLength(1); best != 9 {
		t.Errorf("BestLength(1) = %d, expected 9", best)
	}
	if best, _ := store.BestLength(0); best != 14 {
		t.Errorf("BestLength(0) = %d, expected 14", best)
	}
}

func TestStoreRecentRunsAndByID(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var lastID int64
	for i := 0; i < 3; i++ {
		id, err := store.SaveRun(Run{
			RoomID:   1,
			ClientID: string(rune('a' + i)),
			Length:   5 + i,
			Cause:    "collision",
			EndedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
		lastID = id
	}

	recent, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ClientID != "c" || recent[1].ClientID != "b" {
		t.Errorf("RecentRuns() = %+v, expected c then b", recent)
	}
	if !recent[0].EndedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("EndedAt = %v, expected %v", recent[0].EndedAt, base.Add(2*time.Minute))
	}

	run, err := store.RunByID(lastID)
	if err != nil || run == nil || run.ClientID != "c" {
		t.Errorf("RunByID(%d) = %+v, %v", lastID, run, err)
	}
	if run, err := store.RunByID(9999); err != nil || run != nil {
		t.Errorf("RunByID(missing) = %+v, %v, expected nil, nil", run, err)
	}
}

func TestStoreClearRunsAndStats(t *testing.T) {
	store := openTestStore(t)
	store.SaveRun(Run{RoomID: 1, ClientID: "a", Length: 4, Eaten: 1, Cause: "wall"})
	store.SaveRun(Run{RoomID: 1, ClientID: "b", Length: 8, Eaten: 3, Cause: "wall"})
	store.SaveRun(Run{RoomID: 2, ClientID: "c", Length: 6, Eaten: 2, Cause: "wall"})

	stats, err := store.AllRoomStats()
	if err != nil {
		t.Fatalf("AllRoomStats() failed: %v", err)
	}
	if s := stats[1]; s == nil || s.Runs != 2 || s.BestLength != 8 || s.TotalEaten != 4 || s.AvgLength != 6 {
		t.Errorf("room 1 stats = %+v", s)
	}

	if err := store.ClearRuns(1); err != nil {
		t.Fatalf("ClearRuns() failed: %v", err)
	}
	if runs, _ := store.TopRuns(1, 10); len(runs) != 0 {
		t.Errorf("Expected no runs for room 1 after clear, got %d", len(runs))
	}
	if runs, _ := store.TopRuns(2, 10); len(runs) != 1 {
		t.Errorf("Room 2 should be untouched, got %d runs", len(runs))
	}
}

type memWriter struct {
	mu   sync.Mutex
	runs []Run
	fail bool
	gate chan struct{}
}

func (w *memWriter) SaveRun(run Run) (int64, error) {
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return 0, errors.New("disk full")
	}
	w.runs = append(w.runs, run)
	return int64(len(w.runs)), nil
}

func TestRecorderWritesOnClose(t *testing.T) {
	w := &memWriter{}
	rec := NewRecorder(w, 8, nil)

	for i := 0; i < 5; i++ {
		rec.SaveResult(room.Result{RoomID: 1, Client: protocol.ClientID("c"), Length: i + 1, Cause: room.CauseCollision})
	}
	rec.Close()
	rec.Close()

	if len(w.runs) != 5 {
		t.Fatalf("wrote %d runs, expected 5", len(w.runs))
	}
	if w.runs[0].Cause != "collision" || w.runs[4].Length != 5 {
		t.Errorf("runs = %+v", w.runs)
	}

	// Results after Close are ignored.
	rec.SaveResult(room.Result{RoomID: 1})
}

func TestRecorderDropsWhenFull(t *testing.T) {
	w := &memWriter{gate: make(chan struct{})}
	rec := NewRecorder(w, 1, nil)

	// The writer holds one result at the gate, the queue holds one more.
	for i := 0; i < 10; i++ {
		rec.SaveResult(room.Result{RoomID: 1, Length: i})
	}
	close(w.gate)
	rec.Close()

	if rec.Dropped() == 0 {
		t.Error("expected dropped results with a full queue")
	}
	if int64(len(w.runs))+rec.Dropped() != 10 {
		t.Errorf("written %d + dropped %d != 10", len(w.runs), rec.Dropped())
	}
}

func TestRecorderWithStore(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, 4, nil)

	rec.SaveResult(room.Result{RoomID: 3, Client: "x", Length: 11, Eaten: 6, Ticks: 120, Cause: room.CauseWall, EndedAt: time.Now()})
	rec.Close()

	best, err := store.BestLength(3)
	if err != nil {
		t.Fatalf("BestLength() failed: %v", err)
	}
	if best != 11 {
		t.Errorf("BestLength(3) = %d, expected 11", best)
	}
}
