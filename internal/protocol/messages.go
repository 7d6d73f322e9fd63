// Package protocol defines the messages exchanged between a snake client and
// its room, and the JSON envelope they travel in.
package protocol

import "github.com/vovakirdan/multisnake/internal/core"

// ClientID uniquely identifies a player connection inside a room.
type ClientID string

// Move is a per-tick head delta encoded as [dx, dy].
type Move [2]int

// MoveOf converts a direction into its wire form.
func MoveOf(d core.Direction) Move {
	return Move{d.DX, d.DY}
}

// Direction returns the delta as a core.Direction.
func (m Move) Direction() core.Direction {
	return core.Direction{DX: m[0], DY: m[1]}
}

// ServerMessage is a message sent from a room to a client.
type ServerMessage interface {
	serverMessage()
}

// OnJoin is sent once to a newly connected client, before any TickUpdate.
type OnJoin struct {
	MyID           ClientID                     `json:"my_id"`
	Snakes         map[ClientID][]core.Position `json:"snakes"`
	TickDurationMS int                          `json:"tick_duration_ms"`
}

func (OnJoin) serverMessage() {}

// TickUpdate describes the net effect of one room tick.
// Bodies are head first.
type TickUpdate struct {
	Moves     map[ClientID]Move            `json:"moves"`
	Food      core.Position                `json:"food"`
	Deaths    []ClientID                   `json:"deaths"`
	Eaters    []ClientID                   `json:"eaters"`
	NewSnakes map[ClientID][]core.Position `json:"new_snakes"`
	Ghosts    []ClientID                   `json:"ghosts"`
	Left      []ClientID                   `json:"left"`
}

func (TickUpdate) serverMessage() {}

// ClientMessage is a message sent from a client to its room.
type ClientMessage interface {
	clientMessage()
}

// MoveIntent asks the room to turn the sender's snake on the next tick.
type MoveIntent struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

func (MoveIntent) clientMessage() {}

// Direction returns the requested direction and whether it is one of the
// four unit moves.
func (m MoveIntent) Direction() (core.Direction, bool) {
	d := core.Direction{DX: m.DX, DY: m.DY}
	return d, d.IsUnit()
}

// LobbyUpdate is published on the lobby channel whenever a room's membership
// changes. It is sent as plain JSON, without an envelope.
type LobbyUpdate struct {
	RoomID      int `json:"room_id"`
	PlayerCount int `json:"player_count"`
}
