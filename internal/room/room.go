// Package room implements the authoritative simulation of one snake room:
// joins, queued moves, the per-tick step and the occupancy grid behind
// collision detection.
package room

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/protocol"
)

// ErrInvalidConfig is returned by New for impossible room settings.
var ErrInvalidConfig = errors.New("room: invalid config")

// Rand is the randomness source used for spawn and food placement.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Conn is the outbound side of a client connection.
// Send must not block.
type Conn interface {
	Send(msg protocol.ServerMessage)
	Close()
}

// LobbyPublisher receives membership changes. Publish must not block.
type LobbyPublisher interface {
	Publish(u protocol.LobbyUpdate)
}

// ResultSaver receives the outcome of every snake that leaves the room.
// SaveResult must not block.
type ResultSaver interface {
	SaveResult(r Result)
}

// Config holds the per-room settings.
type Config struct {
	ID            int
	Width         int
	Height        int
	TickMS        int
	InitialLength int
	GhostTicks    int
	SpawnPadding  int
}

// Validate checks that a room can be built from c.
func (c Config) Validate() error {
	switch {
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.TickMS < 1:
		return fmt.Errorf("%w: tick %dms", ErrInvalidConfig, c.TickMS)
	case c.InitialLength < 1 || c.InitialLength > c.Height:
		return fmt.Errorf("%w: initial length %d on height %d", ErrInvalidConfig, c.InitialLength, c.Height)
	case c.GhostTicks < 0 || c.SpawnPadding < 0:
		return fmt.Errorf("%w: negative ghost ticks or padding", ErrInvalidConfig)
	}
	return nil
}

// Cause describes why a snake left the room.
type Cause int

const (
	CauseWall       Cause = iota // Head left the board
	CauseCollision               // Head shared a cell with another segment
	CauseDisconnect              // Connection went away
)

func (c Cause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseCollision:
		return "collision"
	case CauseDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Result is the record of one snake's life in a room.
type Result struct {
	RoomID  int
	Client  protocol.ClientID
	Length  int
	Eaten   int
	Ticks   int
	Cause   Cause
	EndedAt time.Time
}

type client struct {
	snake *Snake
	conn  Conn
}

// Room owns the clients, the occupancy grid and the food of one game.
// All methods are safe for concurrent use; Tick is never re-entered.
type Room struct {
	mu sync.Mutex

	cfg  Config
	rng  Rand
	grid *Grid
	log  *log.Logger

	clients      map[protocol.ClientID]*client
	food         core.Position
	pendingJoins map[protocol.ClientID][]core.Position
	left         []protocol.ClientID
	tick         uint64

	lobby LobbyPublisher
	saver ResultSaver
	newID func() protocol.ClientID
}

// New creates an empty room.
func New(cfg Config, rng Rand, logger *log.Logger) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Room{
		cfg:          cfg,
		rng:          rng,
		grid:         NewGrid(cfg.Width, cfg.Height),
		log:          logger.With("room", cfg.ID),
		clients:      make(map[protocol.ClientID]*client),
		food:         core.Position{X: core.Clamp(5, 0, cfg.Width-1), Y: core.Clamp(5, 0, cfg.Height-1)},
		pendingJoins: make(map[protocol.ClientID][]core.Position),
		newID: func() protocol.ClientID {
			return protocol.ClientID(uuid.NewString())
		},
	}, nil
}

// SetLobbyPublisher sets the optional membership listener.
func (r *Room) SetLobbyPublisher(p LobbyPublisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lobby = p
}

// SetResultSaver sets the optional result sink.
func (r *Room) SetResultSaver(s ResultSaver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saver = s
}

// ID returns the room identifier.
func (r *Room) ID() int { return r.cfg.ID }

// Config returns the room settings.
func (r *Room) Config() Config { return r.cfg }

// AddClient spawns a ghost snake for conn and sends it an OnJoin snapshot.
// Other clients learn about it from the next tick's new_snakes.
func (r *Room) AddClient(conn Conn) protocol.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for r.clients[id] != nil {
		id = r.newID()
	}

	s := newSnake(r.spawnBody(), core.Up, r.cfg.GhostTicks)
	r.clients[id] = &client{snake: s, conn: conn}
	r.pendingJoins[id] = s.Body()

	conn.Send(protocol.OnJoin{
		MyID:           id,
		Snakes:         r.snapshotLocked(),
		TickDurationMS: r.cfg.TickMS,
	})

	r.log.Debug("client joined", "client", id, "head", s.Head(), "players", len(r.clients))
	r.publishLocked()
	return id
}

// QueueMove sets the client's pending direction. Reversals and unknown
// clients are ignored.
func (r *Room) QueueMove(id protocol.ClientID, d core.Direction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	return c.snake.Queue(d)
}

// RemoveClient drops a disconnected client. It reports false if the client
// was already gone, for example after dying.
func (r *Room) RemoveClient(id protocol.ClientID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}

	if _, pending := r.pendingJoins[id]; pending {
		delete(r.pendingJoins, id)
	} else {
		r.left = append(r.left, id)
	}

	r.removeLocked(id, CauseDisconnect)
	r.log.Debug("client left", "client", id, "players", len(r.clients))
	r.publishLocked()
	return true
}

// PlayerCount returns the number of connected clients.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Food returns the current food position.
func (r *Room) Food() core.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.food
}

// Ticks returns how many ticks have run.
func (r *Room) Ticks() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// Snapshot returns the head-first body of every client.
func (r *Room) Snapshot() map[protocol.ClientID][]core.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Close drops every connection and empties the room.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		c.conn.Close()
	}
	r.clients = make(map[protocol.ClientID]*client)
	r.pendingJoins = make(map[protocol.ClientID][]core.Position)
	r.left = nil
	r.grid = NewGrid(r.cfg.Width, r.cfg.Height)
	r.publishLocked()
}

func (r *Room) snapshotLocked() map[protocol.ClientID][]core.Position {
	out := make(map[protocol.ClientID][]core.Position, len(r.clients))
	for id, c := range r.clients {
		out[id] = c.snake.Body()
	}
	return out
}

// removeLocked deletes a client, releases its cells if it was solid, closes
// its connection and reports the result.
func (r *Room) removeLocked(id protocol.ClientID, cause Cause) {
	c := r.clients[id]
	delete(r.clients, id)

	if !c.snake.IsGhost() {
		for _, p := range c.snake.body {
			r.grid.Decrement(p)
		}
	}
	c.conn.Close()

	if r.saver != nil {
		r.saver.SaveResult(Result{
			RoomID:  r.cfg.ID,
			Client:  id,
			Length:  c.snake.Len(),
			Eaten:   c.snake.eaten,
			Ticks:   c.snake.ticks,
			Cause:   cause,
			EndedAt: time.Now(),
		})
	}
}

func (r *Room) publishLocked() {
	if r.lobby == nil {
		return
	}
	r.lobby.Publish(protocol.LobbyUpdate{RoomID: r.cfg.ID, PlayerCount: len(r.clients)})
}

// spawnBody picks a head inside the padded board and trails the body
// downwards so the snake starts facing up.
func (r *Room) spawnBody() []core.Position {
	area := r.grid.Bounds().Inset(r.cfg.SpawnPadding)
	x := area.X + r.rng.Intn(area.W)

	yMax := core.Min(area.Bottom(), r.cfg.Height-r.cfg.InitialLength+1)
	yMin := core.Min(area.Y, yMax-1)
	y := yMin + r.rng.Intn(yMax-yMin)

	body := make([]core.Position, r.cfg.InitialLength)
	for i := range body {
		body[i] = core.Position{X: x, Y: y + i}
	}
	return body
}

// respawnFood moves the food to a new cell inside the padded board.
func (r *Room) respawnFood() {
	area := r.grid.Bounds().Inset(r.cfg.SpawnPadding)
	prev := r.food
	for {
		r.food = core.Position{X: area.X + r.rng.Intn(area.W), Y: area.Y + r.rng.Intn(area.H)}
		if r.food != prev || area.Area() == 1 {
			return
		}
	}
}

func (r *Room) sortedIDs() []protocol.ClientID {
	ids := make([]protocol.ClientID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
