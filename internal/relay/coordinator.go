// Package relay coordinates connection lifecycle and event fan-out for the
// chat relay. Every durable write completes before the corresponding broadcast
// leaves the process.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/identity"
	"github.com/airchat/globaltalk/internal/registry"
	"github.com/airchat/globaltalk/internal/repository"
)

var (
	joinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_joins_total",
		Help: "Total number of completed join handshakes.",
	})
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_total",
		Help: "Total number of accepted chat events by kind.",
	}, []string{"kind"})
	broadcastFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcast_failures_total",
		Help: "Total number of per-session send failures during fan-out.",
	})
)

type Coordinator struct {
	cfg      *config.Config
	repo     repository.Repository
	registry *registry.Registry
	assigner *identity.Assigner
	now      func() time.Time
}

func NewCoordinator(cfg *config.Config, repo repository.Repository, reg *registry.Registry, assigner *identity.Assigner) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		repo:     repo,
		registry: reg,
		assigner: assigner,
		now:      time.Now,
	}
}

// handleJoin establishes identity, registers the session, hydrates the joining
// connection and announces the arrival to everyone else. Returns the user id
// owning the connection, generating one when the client did not supply any.
func (c *Coordinator) handleJoin(ctx context.Context, conn registry.Conn, ev JoinEvent) (string, error) {
	userID := ev.UserID
	if userID == "" {
		userID = uuid.NewString()
	}
	name := c.assigner.Assign(ev.UserName, c.registry.NameInUse)

	now := c.now()
	superseded := c.registry.Put(&registry.Session{
		UserID:      userID,
		DisplayName: name,
		Conn:        conn,
		JoinedAt:    now,
		LastSeenAt:  now,
	})
	if superseded != nil {
		// A reconnect with the same user id takes over the session; the old
		// transport is shut down instead of lingering until ping timeout.
		slog.Info("session superseded by reconnect", "user_id", userID)
		_ = superseded.Conn.Close()
	}
	joinsTotal.Inc()
	slog.Info("session joined", "user_id", userID, "user_name", name, "active_sessions", c.registry.Len())

	if err := conn.Send(EventNameAssigned, NameAssignedPayload{UserID: userID, UserName: name}); err != nil {
		slog.Warn("failed to send name assignment", "error", err, "user_id", userID)
	}

	active := c.registry.ListActive()
	users := make([]ActiveUserPayload, 0, len(active))
	for _, s := range active {
		users = append(users, activeUserPayload(s))
	}
	if err := conn.Send(EventActiveUsers, users); err != nil {
		slog.Warn("failed to send active users", "error", err, "user_id", userID)
	}

	history, err := c.repo.ListRecentMessages(ctx, c.cfg.HistoryWindow)
	if err != nil {
		slog.Error("failed to load message history", "error", err, "user_id", userID)
	} else {
		payloads := make([]MessagePayload, 0, len(history))
		for i := range history {
			payloads = append(payloads, NewMessagePayload(&history[i]))
		}
		if err := conn.Send(EventMessageHistory, payloads); err != nil {
			slog.Warn("failed to send message history", "error", err, "user_id", userID)
		}
	}

	c.broadcastExcept(userID, EventUserJoined, UserPresencePayload{UserID: userID, UserName: name})
	return userID, nil
}

// handleChatMessage persists the message and only then broadcasts it to all
// sessions, the sender included, so the sender's view acquires the
// authoritative id and expiry.
func (c *Coordinator) handleChatMessage(ctx context.Context, ev ChatMessageEvent) error {
	sess, ok := c.registry.Get(ev.UserID)
	if !ok {
		return &ValidationError{Field: "userId", Reason: "does not match an active session"}
	}

	now := c.now()
	msg, err := c.repo.CreateMessage(ctx, repository.CreateMessageInput{
		UserID:     ev.UserID,
		UserName:   sess.DisplayName,
		Body:       ev.Message,
		SourceLang: ev.SourceLang,
		CreatedAt:  now,
		ExpiresAt:  now.Add(c.cfg.MessageTTL),
	})
	if err != nil {
		slog.Error("failed to persist chat message", "error", err, "user_id", ev.UserID)
		return fmt.Errorf("failed to store message: %w", err)
	}
	messagesTotal.WithLabelValues("chat").Inc()

	c.broadcastAll(EventChatMessage, NewMessagePayload(msg))
	return nil
}

// handleFileShared persists a file-share message and broadcasts it to every
// session except the sender, whose upload response already confirmed success.
func (c *Coordinator) handleFileShared(ctx context.Context, ev FileSharedEvent) error {
	sess, ok := c.registry.Get(ev.UserID)
	if !ok {
		return &ValidationError{Field: "userId", Reason: "does not match an active session"}
	}

	now := c.now()
	msg, err := c.repo.CreateMessage(ctx, repository.CreateMessageInput{
		UserID:      ev.UserID,
		UserName:    sess.DisplayName,
		SourceLang:  defaultSourceLang,
		IsFileShare: true,
		Files:       ev.Files,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.cfg.MessageTTL),
	})
	if err != nil {
		slog.Error("failed to persist file share", "error", err, "user_id", ev.UserID)
		return fmt.Errorf("failed to store file share: %w", err)
	}
	messagesTotal.WithLabelValues("file").Inc()

	c.broadcastExcept(ev.UserID, EventFileShared, NewMessagePayload(msg))
	return nil
}

// DeleteMessage removes a message after an ownership check and announces the
// deletion to all sessions. Files referenced by the message stay in storage.
// Shared by the websocket delete event and the HTTP delete endpoint.
func (c *Coordinator) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	msg, err := c.repo.GetMessage(ctx, messageID)
	if err != nil {
		slog.Error("failed to look up message for deletion", "error", err, "message_id", messageID)
		return fmt.Errorf("failed to look up message: %w", err)
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.UserID != requesterID {
		return ErrPermissionDenied
	}
	if err := c.repo.DeleteMessage(ctx, messageID); err != nil {
		slog.Error("failed to delete message", "error", err, "message_id", messageID)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	slog.Info("message deleted", "message_id", messageID, "user_id", requesterID)

	c.broadcastAll(EventMessageDeleted, MessageDeletedPayload{MessageID: messageID})
	return nil
}

// handleHeartbeat refreshes liveness for the connection's own session only;
// the payload user id is ignored.
func (c *Coordinator) handleHeartbeat(userID string) {
	c.registry.Touch(userID, c.now())
}

// disconnect removes the session before announcing the departure, so a
// concurrent join cannot observe a phantom duplicate identity. Idempotent,
// and a no-op when the session has been taken over by a newer connection.
func (c *Coordinator) disconnect(userID string, conn registry.Conn) {
	sess, removed := c.registry.Remove(userID, conn)
	if !removed {
		return
	}
	slog.Info("session left", "user_id", userID, "user_name", sess.DisplayName, "active_sessions", c.registry.Len())
	c.broadcastExcept(userID, EventUserLeft, UserPresencePayload{UserID: userID, UserName: sess.DisplayName})
}

// BroadcastMessagesExpired announces one completed sweep batch to all sessions.
func (c *Coordinator) BroadcastMessagesExpired(messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}
	c.broadcastAll(EventMessagesExpired, MessagesExpiredPayload{MessageIDs: messageIDs})
}

// BroadcastFileDeleted announces an independent file deletion to all sessions.
func (c *Coordinator) BroadcastFileDeleted(fileID string) {
	c.broadcastAll(EventFileDeleted, FileDeletedPayload{FileID: fileID})
}

func (c *Coordinator) broadcastAll(event string, payload any) {
	for _, s := range c.registry.ListActive() {
		if err := s.Conn.Send(event, payload); err != nil {
			broadcastFailuresTotal.Inc()
			slog.Warn("failed to push event to session", "error", err, "event", event, "user_id", s.UserID)
		}
	}
}

func (c *Coordinator) broadcastExcept(userID, event string, payload any) {
	for _, s := range c.registry.ListActive() {
		if s.UserID == userID {
			continue
		}
		if err := s.Conn.Send(event, payload); err != nil {
			broadcastFailuresTotal.Inc()
			slog.Warn("failed to push event to session", "error", err, "event", event, "user_id", s.UserID)
		}
	}
}
