// Package server is the websocket gateway in front of the rooms. It upgrades
// connections, turns inbound frames into room calls and writes room
// messages back out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/multiplayer"
	"github.com/vovakirdan/multisnake/internal/protocol"
	"github.com/vovakirdan/multisnake/internal/room"
)

// Room is the part of a room the gateway drives. *room.Room satisfies it.
type Room interface {
	AddClient(conn room.Conn) protocol.ClientID
	QueueMove(id protocol.ClientID, d core.Direction) bool
	RemoveClient(id protocol.ClientID) bool
}

// RoomLookup resolves a room id from the URL.
type RoomLookup func(id int) (Room, error)

// ManagerRooms adapts a manager to a RoomLookup.
func ManagerRooms(m *multiplayer.Manager) RoomLookup {
	return func(id int) (Room, error) {
		r, err := m.Get(id)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// LobbySource provides the lobby stream. *multiplayer.Lobby satisfies it.
type LobbySource interface {
	Subscribe() ([]protocol.LobbyUpdate, <-chan protocol.LobbyUpdate, func())
}

// Config holds the gateway settings.
type Config struct {
	Addr       string
	ReadLimit  int64
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Server serves the room and lobby websockets.
type Server struct {
	config   Config
	rooms    RoomLookup
	lobby    LobbySource
	sessions *multiplayer.SessionRegistry
	upgrader websocket.Upgrader
	log      *log.Logger
	http     *http.Server
	started  time.Time
}

// New creates a gateway.
func New(cfg Config, rooms RoomLookup, lobby LobbySource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		config:   cfg,
		rooms:    rooms,
		lobby:    lobby,
		sessions: multiplayer.NewSessionRegistry(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     logger,
		started: time.Now(),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the gateway routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /room/{id}", s.handleRoom)
	mux.HandleFunc("GET /room", s.handleLobby)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Sessions returns the registry of open connections.
func (s *Server) Sessions() *multiplayer.SessionRegistry {
	return s.sessions
}

// ListenAndServe serves until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("websocket gateway listening", "address", s.config.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every session and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad room id", http.StatusBadRequest)
		return
	}
	rm, err := s.rooms(id)
	if err != nil {
		if errors.Is(err, multiplayer.ErrUnknownRoom) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "room", id, "error", err)
		return
	}

	session := multiplayer.NewChannelSession(multiplayer.SessionID(uuid.NewString()), s.config.SendBuffer)
	s.sessions.Register(session)
	defer s.sessions.Unregister(session.ID())

	clientID := rm.AddClient(session)
	logger := s.log.With("room", id, "client", clientID)
	logger.Info("player connected", "remote", r.RemoteAddr)

	go s.writePump(conn, session, logger)
	s.readPump(conn, rm, clientID, logger)

	rm.RemoveClient(clientID)
	session.Close()
	logger.Info("player disconnected")
}

// readPump forwards move intents until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, rm Room, id protocol.ClientID, logger *log.Logger) {
	defer conn.Close()

	conn.SetReadLimit(s.config.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			logger.Debug("dropping malformed message", "error", err)
			continue
		}

		switch m := msg.(type) {
		case protocol.MoveIntent:
			dir, ok := m.Direction()
			if !ok {
				logger.Debug("dropping non-unit move", "dx", m.DX, "dy", m.DY)
				continue
			}
			rm.QueueMove(id, dir)
		default:
			logger.Debug("dropping unexpected message", "type", m)
		}
	}
}

// writePump encodes queued room messages and keeps the connection alive.
func (s *Server) writePump(conn *websocket.Conn, session *multiplayer.ChannelSession, logger *log.Logger) {
	ticker := time.NewTicker(s.config.pingPeriod())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-session.Messages():
			if err := s.writeServerMessage(conn, msg); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-session.Done():
			// Flush what the room queued before closing, e.g. the tick that killed us.
			if err := s.flush(conn, session); err != nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) flush(conn *websocket.Conn, session *multiplayer.ChannelSession) error {
	for {
		select {
		case msg := <-session.Messages():
			if err := s.writeServerMessage(conn, msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Server) writeServerMessage(conn *websocket.Conn, msg protocol.ServerMessage) error {
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
