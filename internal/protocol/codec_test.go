package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vovakirdan/multisnake/internal/core"
)

func TestEncodeTickUpdateWireShape(t *testing.T) {
	update := TickUpdate{
		Moves:     map[ClientID]Move{"a": MoveOf(core.Up)},
		Food:      core.Position{X: 3, Y: 4},
		Deaths:    []ClientID{"b"},
		Eaters:    []ClientID{},
		NewSnakes: map[ClientID][]core.Position{},
		Ghosts:    []ClientID{},
		Left:      []ClientID{},
	}

	b, err := EncodeServer(update)
	if err != nil {
		t.Fatalf("EncodeServer() failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if string(raw["type"]) != `"TickUpdate"` {
		t.Errorf("type = %s, expected \"TickUpdate\"", raw["type"])
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw["data"], &data); err != nil {
		t.Fatalf("data is not an object: %v", err)
	}
	if string(data["moves"]) != `{"a":[0,-1]}` {
		t.Errorf("moves = %s, expected {\"a\":[0,-1]}", data["moves"])
	}
	if string(data["food"]) != `{"x":3,"y":4}` {
		t.Errorf("food = %s, expected {\"x\":3,\"y\":4}", data["food"])
	}
	if string(data["ghosts"]) != `[]` {
		t.Errorf("ghosts = %s, expected []", data["ghosts"])
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	join := OnJoin{
		MyID:           "me",
		Snakes:         map[ClientID][]core.Position{"me": {{X: 1, Y: 1}, {X: 1, Y: 2}}},
		TickDurationMS: 100,
	}

	b, err := EncodeServer(&join)
	if err != nil {
		t.Fatalf("EncodeServer() failed: %v", err)
	}

	msg, err := DecodeServer(b)
	if err != nil {
		t.Fatalf("DecodeServer() failed: %v", err)
	}

	got, ok := msg.(OnJoin)
	if !ok {
		t.Fatalf("decoded %T, expected OnJoin", msg)
	}
	if got.MyID != "me" || got.TickDurationMS != 100 {
		t.Errorf("decoded %+v, expected my_id=me tick=100", got)
	}
	if body := got.Snakes["me"]; len(body) != 2 || body[0] != (core.Position{X: 1, Y: 1}) {
		t.Errorf("body = %v, expected head (1,1) and length 2", body)
	}
}

func TestDecodeClientMoveIntent(t *testing.T) {
	msg, err := DecodeClient([]byte(`{"type":"MoveIntent","data":{"dx":1,"dy":0}}`))
	if err != nil {
		t.Fatalf("DecodeClient() failed: %v", err)
	}

	intent, ok := msg.(MoveIntent)
	if !ok {
		t.Fatalf("decoded %T, expected MoveIntent", msg)
	}
	dir, valid := intent.Direction()
	if !valid || dir != core.Right {
		t.Errorf("Direction() = %v, %v, expected Right, true", dir, valid)
	}
}

func TestDecodeClientRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		unknown bool
	}{
		{"not json", `hello`, false},
		{"missing type", `{"data":{"dx":1,"dy":0}}`, true},
		{"unknown type", `{"type":"Teleport","data":{}}`, true},
		{"bad data", `{"type":"MoveIntent","data":"left"}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClient([]byte(tc.payload))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(err, ErrUnknownType) != tc.unknown {
				t.Errorf("errors.Is(err, ErrUnknownType) = %v, expected %v (err: %v)", !tc.unknown, tc.unknown, err)
			}
		})
	}
}

func TestMoveIntentDirectionValidation(t *testing.T) {
	tests := []struct {
		intent MoveIntent
		valid  bool
	}{
		{MoveIntent{DX: 0, DY: -1}, true},
		{MoveIntent{DX: -1, DY: 0}, true},
		{MoveIntent{DX: 1, DY: 1}, false},
		{MoveIntent{DX: 0, DY: 0}, false},
		{MoveIntent{DX: 0, DY: 5}, false},
	}

	for _, tc := range tests {
		if _, ok := tc.intent.Direction(); ok != tc.valid {
			t.Errorf("Direction(%+v) valid = %v, expected %v", tc.intent, ok, tc.valid)
		}
	}
}

func TestLobbyUpdateIsPlainJSON(t *testing.T) {
	b, err := EncodeLobby(LobbyUpdate{RoomID: 2, PlayerCount: 5})
	if err != nil {
		t.Fatalf("EncodeLobby() failed: %v", err)
	}
	if string(b) != `{"room_id":2,"player_count":5}` {
		t.Errorf("EncodeLobby() = %s", b)
	}

	u, err := DecodeLobby(b)
	if err != nil {
		t.Fatalf("DecodeLobby() failed: %v", err)
	}
	if u.RoomID != 2 || u.PlayerCount != 5 {
		t.Errorf("DecodeLobby() = %+v", u)
	}
}
