package multiplayer

import (
	"sync"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

// SessionID uniquely identifies a transport connection (websocket or SSH).
type SessionID string

// SessionHandle is the transport-neutral interface for talking to a
// connection. It satisfies room.Conn, so rooms send to sessions without
// knowing about websockets.
type SessionHandle interface {
	// ID returns the unique session identifier.
	ID() SessionID

	// Send queues a message for the session.
	// Must be non-blocking; implementations should use buffered channels.
	Send(msg protocol.ServerMessage)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}

	// Close ends the session. Safe to call multiple times.
	Close()
}

// ChannelSession is a SessionHandle backed by a buffered channel. The
// gateway's write loop drains Messages.
type ChannelSession struct {
	id       SessionID
	messages chan protocol.ServerMessage
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a new channel-based session handle.
// bufferSize controls how many messages can queue before the oldest is dropped.
func NewChannelSession(id SessionID, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelSession{
		id:       id,
		messages: make(chan protocol.ServerMessage, bufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send queues a message for the session.
// If the buffer is full, the oldest message is dropped to prevent blocking.
func (s *ChannelSession) Send(msg protocol.ServerMessage) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.messages <- msg:
	default:
		select {
		case <-s.messages:
		default:
		}
		// Best effort; a concurrent sender may have refilled the slot.
		select {
		case s.messages <- msg:
		default:
		}
	}
}

// Messages returns the channel to receive queued messages from.
func (s *ChannelSession) Messages() <-chan protocol.ServerMessage {
	return s.messages
}

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the session as done.
// Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// SessionRegistry tracks active sessions.
// Thread-safe for concurrent access.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

// NewSessionRegistry creates a new session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[SessionID]SessionHandle),
	}
}

// Register adds a session to the registry.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Unregister removes a session from the registry.
func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get retrieves a session by ID.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every registered session. Sessions unregister themselves
// as their connections wind down.
func (r *SessionRegistry) CloseAll() {
	r.mu.RLock()
	sessions := make([]SessionHandle, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.Close()
	}
}
