package multiplayer

import (
	"sort"
	"sync"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

// Lobby fans out room player counts to any number of observers.
// It remembers the latest count per room so new observers start from a
// snapshot.
type Lobby struct {
	mu     sync.Mutex
	counts map[int]int
	subs   map[uint64]chan protocol.LobbyUpdate
	nextID uint64
	buffer int
}

// NewLobby creates a lobby hub. bufferSize is the per-observer queue length.
func NewLobby(bufferSize int) *Lobby {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &Lobby{
		counts: make(map[int]int),
		subs:   make(map[uint64]chan protocol.LobbyUpdate),
		buffer: bufferSize,
	}
}

// Publish records the update and forwards it to every observer without
// blocking. A slow observer loses its oldest queued update.
func (l *Lobby) Publish(u protocol.LobbyUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts[u.RoomID] = u.PlayerCount

	for _, ch := range l.subs {
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

// Forget drops a room from the snapshot.
func (l *Lobby) Forget(roomID int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, roomID)
}

// Subscribe registers an observer. It returns the current counts sorted by
// room, a channel of subsequent updates and a cancel func that closes it.
func (l *Lobby) Subscribe() ([]protocol.LobbyUpdate, <-chan protocol.LobbyUpdate, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan protocol.LobbyUpdate, l.buffer)
	l.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs, id)
			close(ch)
		})
	}

	return l.snapshotLocked(), ch, cancel
}

// Snapshot returns the latest count of every known room, sorted by room id.
func (l *Lobby) Snapshot() []protocol.LobbyUpdate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Observers returns the number of active subscriptions.
func (l *Lobby) Observers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Lobby) snapshotLocked() []protocol.LobbyUpdate {
	out := make([]protocol.LobbyUpdate, 0, len(l.counts))
	for id, n := range l.counts {
		out = append(out, protocol.LobbyUpdate{RoomID: id, PlayerCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}
