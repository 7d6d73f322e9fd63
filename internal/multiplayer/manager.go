// Package multiplayer hosts the rooms of a server: one tick driver per room,
// the lobby fan-out and the transport-neutral session handles.
package multiplayer

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/protocol"
	"github.com/vovakirdan/multisnake/internal/room"
)

// ErrUnknownRoom is returned when a room id is not hosted by the manager.
var ErrUnknownRoom = errors.New("multiplayer: unknown room")

// ManagerConfig holds configuration for the manager.
type ManagerConfig struct {
	Rooms int         // Number of rooms, ids 1..Rooms
	Room  room.Config // Template; ID is overwritten per room
	Seed  int64       // Randomness seed, 0 uses the clock
}

type hostedRoom struct {
	room   *room.Room
	driver *Driver
}

// Manager owns the rooms and their drivers.
type Manager struct {
	config ManagerConfig
	lobby  *Lobby
	log    *log.Logger

	mu      sync.RWMutex
	rooms   map[int]*hostedRoom
	started bool
	wg      sync.WaitGroup
}

// NewManager builds config.Rooms rooms and registers them with the lobby.
// Drivers are not running until Start.
func NewManager(cfg ManagerConfig, lobby *Lobby, logger *log.Logger) (*Manager, error) {
	if cfg.Rooms < 1 {
		return nil, fmt.Errorf("multiplayer: need at least one room, got %d", cfg.Rooms)
	}
	if lobby == nil {
		lobby = NewLobby(0)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := &Manager{
		config: cfg,
		lobby:  lobby,
		log:    logger,
		rooms:  make(map[int]*hostedRoom, cfg.Rooms),
	}

	for id := 1; id <= cfg.Rooms; id++ {
		rc := cfg.Room
		rc.ID = id
		r, err := room.New(rc, rand.New(rand.NewSource(seed+int64(id))), logger)
		if err != nil {
			return nil, fmt.Errorf("multiplayer: cannot create room %d: %w", id, err)
		}
		r.SetLobbyPublisher(lobby)
		lobby.Publish(lobbyCount(r))

		period := time.Duration(rc.TickMS) * time.Millisecond
		m.rooms[id] = &hostedRoom{
			room:   r,
			driver: NewDriver(r, period, logger.With("room", id)),
		}
	}

	return m, nil
}

// SetResultSaver sets the optional result sink on every room.
func (m *Manager) SetResultSaver(saver room.ResultSaver) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.rooms {
		h.room.SetResultSaver(saver)
	}
}

// Start launches every room's driver.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	for _, h := range m.rooms {
		m.wg.Add(1)
		go func(d *Driver) {
			defer m.wg.Done()
			d.Run()
		}(h.driver)
	}
	m.log.Info("rooms started", "count", len(m.rooms), "tick", time.Duration(m.config.Room.TickMS)*time.Millisecond)
}

// Get returns a hosted room.
func (m *Manager) Get(id int) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRoom, id)
	}
	return h.room, nil
}

// Rooms returns every hosted room sorted by id.
func (m *Manager) Rooms() []*room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*room.Room, 0, len(m.rooms))
	for _, h := range m.rooms {
		out = append(out, h.room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Lobby returns the lobby hub.
func (m *Manager) Lobby() *Lobby {
	return m.lobby
}

// Remove stops a room's driver, disconnects its clients and forgets it.
func (m *Manager) Remove(id int) error {
	m.mu.Lock()
	h, ok := m.rooms[id]
	delete(m.rooms, id)
	started := m.started
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRoom, id)
	}

	h.driver.Stop()
	if started {
		h.driver.Wait()
	}
	h.room.Close()
	m.lobby.Forget(id)
	m.log.Info("room removed", "room", id)
	return nil
}

// Stop halts every driver, waits for them and disconnects all clients.
func (m *Manager) Stop() {
	m.mu.RLock()
	hosted := make([]*hostedRoom, 0, len(m.rooms))
	for _, h := range m.rooms {
		hosted = append(hosted, h)
	}
	m.mu.RUnlock()

	for _, h := range hosted {
		h.driver.Stop()
	}
	m.wg.Wait()

	for _, h := range hosted {
		h.room.Close()
	}
	m.log.Info("rooms stopped")
}

func lobbyCount(r *room.Room) protocol.LobbyUpdate {
	return protocol.LobbyUpdate{RoomID: r.ID(), PlayerCount: r.PlayerCount()}
}
