package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

// LobbyClient reads the lobby stream of a remote gateway.
type LobbyClient struct {
	base    string
	conn    *websocket.Conn
	updates chan protocol.LobbyUpdate
	done    chan struct{}
	once    sync.Once
	log     *log.Logger
}

// DialLobby connects to the lobby stream of the gateway at base, e.g.
// "ws://127.0.0.1:8080". Plain http(s) schemes are accepted too.
func DialLobby(ctx context.Context, base string, logger *log.Logger) (*LobbyClient, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	base, err := normalizeBase(base)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, base+"/room", nil)
	if err != nil {
		return nil, fmt.Errorf("server: cannot dial lobby: %w", err)
	}

	c := &LobbyClient{
		base:    base,
		conn:    conn,
		updates: make(chan protocol.LobbyUpdate, 64),
		done:    make(chan struct{}),
		log:     logger,
	}
	go c.readLoop()
	return c, nil
}

// Updates returns the received room counts. It is closed when the
// connection ends.
func (c *LobbyClient) Updates() <-chan protocol.LobbyUpdate {
	return c.updates
}

// RoomURL returns the websocket endpoint of a room on the same gateway.
func (c *LobbyClient) RoomURL(roomID int) string {
	return RoomURL(c.base, roomID)
}

// Close ends the connection.
func (c *LobbyClient) Close() error {
	c.once.Do(func() { close(c.done) })
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

func (c *LobbyClient) readLoop() {
	defer close(c.updates)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("lobby stream ended", "error", err)
			}
			return
		}
		u, err := protocol.DecodeLobby(data)
		if err != nil {
			c.log.Debug("dropping malformed lobby update", "error", err)
			continue
		}
		select {
		case c.updates <- u:
		case <-c.done:
			return
		}
	}
}

// RoomURL joins a gateway base URL and a room id.
func RoomURL(base string, roomID int) string {
	return fmt.Sprintf("%s/room/%d", strings.TrimRight(base, "/"), roomID)
}

func normalizeBase(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("server: bad gateway address %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server: gateway address %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
