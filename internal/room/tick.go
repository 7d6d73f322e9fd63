package room

import (
	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/protocol"
)

// Tick advances the room by one step, broadcasts the resulting TickUpdate
// to every client (including the ones that died this tick), then removes
// the dead. The update is also returned.
//
// Clients are processed in id order so seeded runs are reproducible.
func (r *Room) Tick() protocol.TickUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++
	ids := r.sortedIDs()

	update := protocol.TickUpdate{
		Moves:     make(map[protocol.ClientID]protocol.Move, len(ids)),
		Deaths:    []protocol.ClientID{},
		Eaters:    []protocol.ClientID{},
		NewSnakes: r.pendingJoins,
		Ghosts:    []protocol.ClientID{},
		Left:      r.left,
	}
	if update.Left == nil {
		update.Left = []protocol.ClientID{}
	}
	causes := make(map[protocol.ClientID]Cause)

	for _, id := range ids {
		s := r.clients[id].snake
		s.ticks++

		if s.IsGhost() {
			if s.countdown() {
				for _, p := range s.body {
					r.grid.Increment(p)
				}
			} else {
				update.Ghosts = append(update.Ghosts, id)
			}
		}

		head := s.Head().Add(s.pending)
		if !r.grid.InBounds(head) {
			update.Deaths = append(update.Deaths, id)
			causes[id] = CauseWall
			continue
		}

		ate := head == r.food && !s.IsGhost()
		tail, dropped := s.advance(head, ate)
		if ate {
			s.eaten++
			update.Eaters = append(update.Eaters, id)
		}

		if !s.IsGhost() {
			r.grid.Increment(head)
			if dropped {
				r.grid.Decrement(tail)
			}
		}
	}

	for range update.Eaters {
		r.respawnFood()
	}
	update.Food = r.food

	for _, id := range ids {
		if _, dead := causes[id]; dead {
			continue
		}
		s := r.clients[id].snake
		if !s.IsGhost() && r.grid.Count(s.Head()) > 1 {
			update.Deaths = append(update.Deaths, id)
			causes[id] = CauseCollision
			continue
		}
		update.Moves[id] = protocol.MoveOf(s.direction)
	}

	r.pendingJoins = make(map[protocol.ClientID][]core.Position)
	r.left = nil

	for _, id := range ids {
		r.clients[id].conn.Send(update)
	}

	for _, id := range update.Deaths {
		r.log.Debug("snake died", "client", id, "cause", causes[id], "tick", r.tick)
		r.removeLocked(id, causes[id])
	}
	if len(update.Deaths) > 0 {
		r.publishLocked()
	}

	return update
}
