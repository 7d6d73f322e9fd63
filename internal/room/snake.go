package room

import "github.com/vovakirdan/multisnake/internal/core"

// Snake is one player's body and movement state.
type Snake struct {
	body      []core.Position // tail first, head last
	direction core.Direction
	pending   core.Direction
	ghost     int

	eaten int
	ticks int
}

// newSnake builds a snake from a head-first body.
func newSnake(headFirst []core.Position, dir core.Direction, ghostTicks int) *Snake {
	body := make([]core.Position, len(headFirst))
	for i, p := range headFirst {
		body[len(headFirst)-1-i] = p
	}
	return &Snake{
		body:      body,
		direction: dir,
		pending:   dir,
		ghost:     ghostTicks,
	}
}

// Head returns the head cell.
func (s *Snake) Head() core.Position {
	return s.body[len(s.body)-1]
}

// Body returns a head-first copy of the body.
func (s *Snake) Body() []core.Position {
	out := make([]core.Position, len(s.body))
	for i, p := range s.body {
		out[len(s.body)-1-i] = p
	}
	return out
}

// Len returns the number of segments.
func (s *Snake) Len() int { return len(s.body) }

// Direction returns the last applied move.
func (s *Snake) Direction() core.Direction { return s.direction }

// Pending returns the move that will be applied on the next tick.
func (s *Snake) Pending() core.Direction { return s.pending }

// GhostTicks returns the remaining ghost countdown.
func (s *Snake) GhostTicks() int { return s.ghost }

// IsGhost reports whether the snake is still passing through others.
func (s *Snake) IsGhost() bool { return s.ghost > 0 }

// Queue sets the pending direction. The exact reverse of the current
// direction is ignored.
func (s *Snake) Queue(d core.Direction) bool {
	if d.IsReverseOf(s.direction) {
		return false
	}
	s.pending = d
	return true
}

// countdown decrements the ghost timer and reports whether the snake became
// solid on this call.
func (s *Snake) countdown() bool {
	if s.ghost == 0 {
		return false
	}
	s.ghost--
	return s.ghost == 0
}

// advance pushes a new head. Unless grow is set the tail is dropped and
// returned with ok == true.
func (s *Snake) advance(head core.Position, grow bool) (tail core.Position, ok bool) {
	s.direction = s.pending
	if !grow {
		tail, ok = s.body[0], true
		s.body = s.body[1:]
	}
	s.body = append(s.body, head)
	return tail, ok
}
