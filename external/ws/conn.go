package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 120 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

var (
	errConnClosed   = errors.New("websocket connection is closed")
	errSendBackedUp = errors.New("websocket send buffer is full")
)

// envelope is the wire framing: every frame is {"event": name, "data": payload}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// conn adapts a gorilla websocket to the registry.Conn contract. Sends are
// queued to a buffered channel drained by a single writer goroutine, so
// broadcast fan-out never blocks on a slow client.
type conn struct {
	ws        *websocket.Conn
	send      chan outboundFrame
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:   ws,
		send: make(chan outboundFrame, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *conn) Send(event string, payload any) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- outboundFrame{Event: event, Data: payload}:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errSendBackedUp
	}
}

func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				slog.Debug("websocket write failed", "error", err, "event", frame.Event)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
