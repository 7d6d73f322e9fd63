package multiplayer

import (
	"testing"

	"github.com/vovakirdan/multisnake/internal/protocol"
	"github.com/vovakirdan/multisnake/internal/room"
)

var _ room.Conn = (*ChannelSession)(nil)

func TestChannelSessionDropsOldest(t *testing.T) {
	s := NewChannelSession("s1", 2)

	for i := 1; i <= 3; i++ {
		s.Send(protocol.OnJoin{TickDurationMS: i})
	}

	var got []int
	for len(s.Messages()) > 0 {
		msg := <-s.Messages()
		got = append(got, msg.(protocol.OnJoin).TickDurationMS)
	}

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("queued %v, expected [2 3]", got)
	}
}

func TestChannelSessionClose(t *testing.T) {
	s := NewChannelSession("s1", 4)
	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("Done() should be closed")
	}

	s.Send(protocol.TickUpdate{})
	if n := len(s.Messages()); n != 0 {
		t.Errorf("closed session queued %d messages, expected 0", n)
	}
}

func TestSessionRegistry(t *testing.T) {
	reg := NewSessionRegistry()
	a := NewChannelSession("a", 1)
	b := NewChannelSession("b", 1)

	reg.Register(a)
	reg.Register(b)
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, expected 2", reg.Count())
	}
	if got, ok := reg.Get("a"); !ok || got.ID() != "a" {
		t.Errorf("Get(a) = %v, %v", got, ok)
	}

	reg.CloseAll()
	for _, s := range []*ChannelSession{a, b} {
		select {
		case <-s.Done():
		default:
			t.Errorf("session %s should be closed", s.ID())
		}
	}

	reg.Unregister("a")
	if _, ok := reg.Get("a"); ok {
		t.Error("a should be unregistered")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, expected 1", reg.Count())
	}
}
