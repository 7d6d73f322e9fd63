package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/multisnake/internal/multiplayer"
	"github.com/vovakirdan/multisnake/internal/protocol"
)

// handleLobby streams room player counts. A new viewer first receives one
// update per room, then every change.
func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "route", "lobby", "error", err)
		return
	}
	defer conn.Close()

	// The session only carries the Done signal so Shutdown reaches lobby viewers.
	session := multiplayer.NewChannelSession(multiplayer.SessionID(uuid.NewString()), 1)
	s.sessions.Register(session)
	defer s.sessions.Unregister(session.ID())
	defer session.Close()

	logger := s.log.With("route", "lobby", "session", session.ID())
	logger.Info("lobby viewer connected", "remote", r.RemoteAddr)
	defer logger.Info("lobby viewer disconnected")

	snapshot, updates, cancel := s.lobby.Subscribe()
	defer cancel()

	gone := make(chan struct{})
	go s.drainLobbyReader(conn, gone, logger)

	for _, u := range snapshot {
		if err := s.writeLobbyUpdate(conn, u); err != nil {
			return
		}
	}

	ticker := time.NewTicker(s.config.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := s.writeLobbyUpdate(conn, u); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-gone:
			return

		case <-session.Done():
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainLobbyReader consumes inbound frames so pongs and close frames are
// processed. Viewers have nothing to say; their messages are discarded.
func (s *Server) drainLobbyReader(conn *websocket.Conn, gone chan<- struct{}, logger *log.Logger) {
	defer close(gone)

	conn.SetReadLimit(s.config.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		return nil
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

func (s *Server) writeLobbyUpdate(conn *websocket.Conn, u protocol.LobbyUpdate) error {
	data, err := protocol.EncodeLobby(u)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
