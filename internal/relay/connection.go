package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/airchat/globaltalk/internal/registry"
)

type connectionState int

const (
	stateConnected connectionState = iota
	stateJoined
	stateClosed
)

// Connection is the per-connection state machine: connected -> joined ->
// closed. The transport adapter feeds it decoded frames in arrival order and
// signals Disconnect when the transport drops.
type Connection struct {
	coord *Coordinator
	conn  registry.Conn

	mu     sync.Mutex
	state  connectionState
	userID string
}

func (c *Coordinator) NewConnection(conn registry.Conn) *Connection {
	return &Connection{coord: c, conn: conn, state: stateConnected}
}

// HandleFrame parses, validates and dispatches one client frame. All handler
// errors are converted to an error event on this connection; they never
// propagate to the transport loop.
func (c *Connection) HandleFrame(ctx context.Context, event string, data json.RawMessage) {
	ev, err := ParseClientEvent(event, data)
	if err != nil {
		c.sendError(err)
		return
	}
	if err := c.handle(ctx, ev); err != nil {
		c.sendError(err)
	}
}

func (c *Connection) handle(ctx context.Context, ev ClientEvent) error {
	c.mu.Lock()
	state := c.state
	userID := c.userID
	c.mu.Unlock()

	if state == stateClosed {
		return ErrConnectionClosed
	}

	switch ev := ev.(type) {
	case JoinEvent:
		if state == stateJoined {
			return &ValidationError{Field: "event", Reason: "session already joined"}
		}
		joinedID, err := c.coord.handleJoin(ctx, c.conn, ev)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.state = stateJoined
		c.userID = joinedID
		c.mu.Unlock()
		return nil
	case ChatMessageEvent:
		if state != stateJoined {
			return ErrNotJoined
		}
		if ev.UserID != userID {
			return &ValidationError{Field: "userId", Reason: "does not match this connection"}
		}
		return c.coord.handleChatMessage(ctx, ev)
	case FileSharedEvent:
		if state != stateJoined {
			return ErrNotJoined
		}
		if ev.UserID != userID {
			return &ValidationError{Field: "userId", Reason: "does not match this connection"}
		}
		return c.coord.handleFileShared(ctx, ev)
	case DeleteMessageEvent:
		if state != stateJoined {
			return ErrNotJoined
		}
		return c.coord.DeleteMessage(ctx, userID, ev.MessageID)
	case HeartbeatEvent:
		if state != stateJoined {
			return nil
		}
		c.coord.handleHeartbeat(userID)
		return nil
	default:
		return &ValidationError{Field: "event", Reason: "unsupported event"}
	}
}

// Disconnect transitions the connection to the terminal state, removing the
// session and announcing the departure. Safe to call more than once.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	state := c.state
	userID := c.userID
	c.state = stateClosed
	c.mu.Unlock()

	if state == stateJoined {
		c.coord.disconnect(userID, c.conn)
	}
}

func (c *Connection) sendError(err error) {
	payload := ErrorPayload{Error: err.Error()}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		payload.Error = "validation failed"
		payload.Details = vErr.Error()
	}
	if sendErr := c.conn.Send(EventError, payload); sendErr != nil {
		slog.Warn("failed to report error to connection", "error", sendErr, "original_error", err)
	}
}
