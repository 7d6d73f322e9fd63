package multiplayer

import (
	"testing"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

func TestLobbySnapshotThenUpdates(t *testing.T) {
	l := NewLobby(8)
	l.Publish(protocol.LobbyUpdate{RoomID: 2, PlayerCount: 0})
	l.Publish(protocol.LobbyUpdate{RoomID: 1, PlayerCount: 3})

	snapshot, updates, cancel := l.Subscribe()
	defer cancel()

	if len(snapshot) != 2 || snapshot[0].RoomID != 1 || snapshot[1].RoomID != 2 {
		t.Fatalf("snapshot = %v, expected rooms 1 and 2 in order", snapshot)
	}
	if snapshot[0].PlayerCount != 3 {
		t.Errorf("room 1 count = %d, expected 3", snapshot[0].PlayerCount)
	}

	l.Publish(protocol.LobbyUpdate{RoomID: 2, PlayerCount: 1})
	select {
	case u := <-updates:
		if u.RoomID != 2 || u.PlayerCount != 1 {
			t.Errorf("update = %+v", u)
		}
	default:
		t.Fatal("expected a queued update")
	}
}

func TestLobbySlowObserverDoesNotBlock(t *testing.T) {
	l := NewLobby(1)
	_, updates, cancel := l.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		l.Publish(protocol.LobbyUpdate{RoomID: 1, PlayerCount: i})
	}

	u := <-updates
	if u.PlayerCount != 9 {
		t.Errorf("slow observer got count %d, expected the latest (9)", u.PlayerCount)
	}
	if snap := l.Snapshot(); snap[0].PlayerCount != 9 {
		t.Errorf("snapshot count = %d, expected 9", snap[0].PlayerCount)
	}
}

func TestLobbyCancel(t *testing.T) {
	l := NewLobby(4)
	_, updates, cancel := l.Subscribe()

	if l.Observers() != 1 {
		t.Fatalf("Observers() = %d, expected 1", l.Observers())
	}
	cancel()
	cancel()

	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
	if l.Observers() != 0 {
		t.Errorf("Observers() = %d, expected 0", l.Observers())
	}

	// Publishing after cancel must not panic on the closed channel.
	l.Publish(protocol.LobbyUpdate{RoomID: 1, PlayerCount: 1})
}

func TestLobbyForget(t *testing.T) {
	l := NewLobby(4)
	l.Publish(protocol.LobbyUpdate{RoomID: 1, PlayerCount: 2})
	l.Publish(protocol.LobbyUpdate{RoomID: 2, PlayerCount: 0})
	l.Forget(1)

	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].RoomID != 2 {
		t.Errorf("snapshot = %v, expected only room 2", snap)
	}
}
