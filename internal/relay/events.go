package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/airchat/globaltalk/internal/registry"
	"github.com/airchat/globaltalk/internal/repository"
)

// Client-to-server event names.
const (
	EventJoin          = "join"
	EventChatMessage   = "chat_message"
	EventFileShared    = "file_shared"
	EventDeleteMessage = "delete_message"
	EventHeartbeat     = "heartbeat"
)

// Server-to-client event names.
const (
	EventNameAssigned    = "name_assigned"
	EventActiveUsers     = "active_users"
	EventMessageHistory  = "message_history"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventMessageDeleted  = "message_deleted"
	EventMessagesExpired = "messages_expired"
	EventFileDeleted     = "file_deleted"
	EventError           = "error"
)

const defaultSourceLang = "EN"

type JoinEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ChatMessageEvent struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Message    string `json:"message"`
	SourceLang string `json:"sourceLang"`
}

type FileSharedEvent struct {
	UserID   string               `json:"userId"`
	UserName string               `json:"userName"`
	Files    []repository.FileRef `json:"files"`
}

type DeleteMessageEvent struct {
	UserID    string `json:"userId"`
	MessageID string `json:"messageId"`
}

type HeartbeatEvent struct {
	UserID string `json:"userId"`
}

// ClientEvent is one of the tagged variants above, validated at the boundary
// before it enters the connection state machine.
type ClientEvent interface {
	clientEvent()
}

func (JoinEvent) clientEvent()          {}
func (ChatMessageEvent) clientEvent()   {}
func (FileSharedEvent) clientEvent()    {}
func (DeleteMessageEvent) clientEvent() {}
func (HeartbeatEvent) clientEvent()     {}

// ParseClientEvent decodes and validates a client event payload.
// Unknown event names and missing required fields yield a *ValidationError.
func ParseClientEvent(name string, data json.RawMessage) (ClientEvent, error) {
	switch name {
	case EventJoin:
		var ev JoinEvent
		if err := decodeEvent(name, data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventChatMessage:
		var ev ChatMessageEvent
		if err := decodeEvent(name, data, &ev); err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.Message) == "" {
			return nil, &ValidationError{Field: "message", Reason: "must not be empty"}
		}
		if ev.UserID == "" {
			return nil, &ValidationError{Field: "userId", Reason: "is required"}
		}
		if ev.SourceLang == "" {
			ev.SourceLang = defaultSourceLang
		}
		return ev, nil
	case EventFileShared:
		var ev FileSharedEvent
		if err := decodeEvent(name, data, &ev); err != nil {
			return nil, err
		}
		if ev.UserID == "" {
			return nil, &ValidationError{Field: "userId", Reason: "is required"}
		}
		if len(ev.Files) == 0 {
			return nil, &ValidationError{Field: "files", Reason: "must not be empty"}
		}
		return ev, nil
	case EventDeleteMessage:
		var ev DeleteMessageEvent
		if err := decodeEvent(name, data, &ev); err != nil {
			return nil, err
		}
		if ev.UserID == "" {
			return nil, &ValidationError{Field: "userId", Reason: "is required"}
		}
		if ev.MessageID == "" {
			return nil, &ValidationError{Field: "messageId", Reason: "is required"}
		}
		return ev, nil
	case EventHeartbeat:
		var ev HeartbeatEvent
		if err := decodeEvent(name, data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, &ValidationError{Field: "event", Reason: fmt.Sprintf("unknown event %q", name)}
	}
}

func decodeEvent(name string, data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return &ValidationError{Field: "data", Reason: "payload is required for " + name}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ValidationError{Field: "data", Reason: "malformed payload for " + name}
	}
	return nil
}

type NameAssignedPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type UserPresencePayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ActiveUserPayload struct {
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	JoinedAt time.Time `json:"joinedAt"`
}

type MessagePayload struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	UserName    string               `json:"userName"`
	Message     string               `json:"message,omitempty"`
	SourceLang  string               `json:"sourceLang,omitempty"`
	IsFileShare bool                 `json:"isFileShare"`
	Files       []repository.FileRef `json:"files,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	ExpiresAt   time.Time            `json:"expiresAt"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type MessagesExpiredPayload struct {
	MessageIDs []string `json:"messageIds"`
}

type FileDeletedPayload struct {
	FileID string `json:"fileId"`
}

type ErrorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewMessagePayload converts a stored message to its wire shape. The HTTP
// history endpoint and the websocket broadcasts share it so clients see one
// format.
func NewMessagePayload(m *repository.Message) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		UserID:      m.UserID,
		UserName:    m.UserName,
		Message:     m.Body,
		SourceLang:  m.SourceLang,
		IsFileShare: m.IsFileShare,
		Files:       m.Files,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
	}
}

func activeUserPayload(s *registry.Session) ActiveUserPayload {
	return ActiveUserPayload{
		UserID:   s.UserID,
		UserName: s.DisplayName,
		JoinedAt: s.JoinedAt,
	}
}
