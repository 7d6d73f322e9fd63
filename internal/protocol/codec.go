package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when an envelope carries an unrecognised type tag.
var ErrUnknownType = errors.New("protocol: unknown message type")

// Type tags used in the envelope.
const (
	TypeOnJoin     = "OnJoin"
	TypeTickUpdate = "TickUpdate"
	TypeMoveIntent = "MoveIntent"
)

// envelope is the adjacent tagged wire form: {"type": "...", "data": {...}}.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeServer serializes a room-to-client message.
func EncodeServer(msg ServerMessage) ([]byte, error) {
	switch m := msg.(type) {
	case OnJoin:
		return wrap(TypeOnJoin, m)
	case *OnJoin:
		return wrap(TypeOnJoin, m)
	case TickUpdate:
		return wrap(TypeTickUpdate, m)
	case *TickUpdate:
		return wrap(TypeTickUpdate, m)
	default:
		return nil, fmt.Errorf("protocol: cannot encode %T: %w", msg, ErrUnknownType)
	}
}

// DecodeServer parses a room-to-client message.
func DecodeServer(b []byte) (ServerMessage, error) {
	env, err := unwrap(b)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeOnJoin:
		var m OnJoin
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("protocol: cannot decode %s: %w", env.Type, err)
		}
		return m, nil
	case TypeTickUpdate:
		var m TickUpdate
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("protocol: cannot decode %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("protocol: %q: %w", env.Type, ErrUnknownType)
	}
}

// EncodeClient serializes a client-to-room message.
func EncodeClient(msg ClientMessage) ([]byte, error) {
	switch m := msg.(type) {
	case MoveIntent:
		return wrap(TypeMoveIntent, m)
	case *MoveIntent:
		return wrap(TypeMoveIntent, m)
	default:
		return nil, fmt.Errorf("protocol: cannot encode %T: %w", msg, ErrUnknownType)
	}
}

// DecodeClient parses a client-to-room message.
func DecodeClient(b []byte) (ClientMessage, error) {
	env, err := unwrap(b)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeMoveIntent:
		var m MoveIntent
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("protocol: cannot decode %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("protocol: %q: %w", env.Type, ErrUnknownType)
	}
}

// EncodeLobby serializes a lobby update as plain JSON.
func EncodeLobby(u LobbyUpdate) ([]byte, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("protocol: cannot encode lobby update: %w", err)
	}
	return b, nil
}

// DecodeLobby parses a plain JSON lobby update.
func DecodeLobby(b []byte) (LobbyUpdate, error) {
	var u LobbyUpdate
	if err := json.Unmarshal(b, &u); err != nil {
		return LobbyUpdate{}, fmt.Errorf("protocol: cannot decode lobby update: %w", err)
	}
	return u, nil
}

func wrap(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: cannot encode %s: %w", typ, err)
	}
	return json.Marshal(envelope{Type: typ, Data: data})
}

func unwrap(b []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("protocol: malformed envelope: %w", err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("protocol: missing type tag: %w", ErrUnknownType)
	}
	return env, nil
}
