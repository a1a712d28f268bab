// Package ws exposes the relay over websocket connections. The transport
// preserves FIFO per connection: frames are decoded and handled in arrival
// order by the read loop.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/airchat/globaltalk/internal/relay"
)

type Handler struct {
	coord    *relay.Coordinator
	upgrader websocket.Upgrader
}

func NewHandler(coord *relay.Coordinator) *Handler {
	return &Handler{
		coord: coord,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The relay accepts connections from anywhere; identity is a
			// self-asserted opaque token, not an origin-bound credential.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	c := newConn(socket)
	connection := h.coord.NewConnection(c)
	go c.writePump()
	h.readLoop(r.Context(), c, connection)
}

func (h *Handler) readLoop(ctx context.Context, c *conn, connection *relay.Connection) {
	defer func() {
		connection.Disconnect()
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		// Heartbeats also arrive through here, refreshing the read deadline.
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			slog.Debug("discarding malformed websocket frame", "error", err)
			continue
		}
		connection.HandleFrame(ctx, env.Event, env.Data)
	}
}
