package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/identity"
	"github.com/airchat/globaltalk/internal/registry"
	"github.com/airchat/globaltalk/internal/relay"
	"github.com/airchat/globaltalk/internal/repository"
)

type memoryRepo struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*repository.Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{messages: map[string]*repository.Message{}}
}

func (m *memoryRepo) CreateMessage(_ context.Context, input repository.CreateMessageInput) (*repository.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg := &repository.Message{
		ID:          fmt.Sprintf("msg-%d", m.seq),
		UserID:      input.UserID,
		UserName:    input.UserName,
		Body:        input.Body,
		SourceLang:  input.SourceLang,
		IsFileShare: input.IsFileShare,
		Files:       input.Files,
		CreatedAt:   input.CreatedAt,
		ExpiresAt:   input.ExpiresAt,
	}
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *memoryRepo) GetMessage(_ context.Context, id string) (*repository.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[id], nil
}

func (m *memoryRepo) ListRecentMessages(_ context.Context, _ int) ([]repository.Message, error) {
	return nil, nil
}

func (m *memoryRepo) ListMessagesPage(_ context.Context, _, _ int) ([]repository.Message, int, error) {
	return nil, 0, nil
}

func (m *memoryRepo) DeleteMessage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, id)
	return nil
}

func (m *memoryRepo) ListExpiredMessages(_ context.Context, _ time.Time, _ int) ([]repository.Message, error) {
	return nil, nil
}

func (m *memoryRepo) DeleteMessagesByID(_ context.Context, _ []string) error { return nil }

func (m *memoryRepo) RemoveFileFromMessages(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *memoryRepo) CreateFile(_ context.Context, _ repository.FileRef) error { return nil }

func (m *memoryRepo) GetFile(_ context.Context, _ string) (*repository.FileRef, error) {
	return nil, nil
}

func (m *memoryRepo) DeleteFile(_ context.Context, _ string) error { return nil }

func (m *memoryRepo) MarkFileOrphaned(_ context.Context, _ repository.MarkFileOrphanedInput) error {
	return nil
}

func (m *memoryRepo) GetCachedTranslation(_ context.Context, _ string) (*repository.CachedTranslation, error) {
	return nil, nil
}

func (m *memoryRepo) PutCachedTranslation(_ context.Context, _ string, _ repository.CachedTranslation, _ time.Time) error {
	return nil
}

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialTestClient(t *testing.T, serverURL string) *testClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(event string, payload any) {
	c.t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatalf("failed to marshal payload: %v", err)
	}
	if err := c.conn.WriteJSON(wireFrame{Event: event, Data: data}); err != nil {
		c.t.Fatalf("failed to write frame: %v", err)
	}
}

// recv reads frames until one with the given event name arrives.
func (c *testClient) recv(event string) wireFrame {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = c.conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var frame wireFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.t.Fatalf("failed to read frame while waiting for %q: %v", event, err)
		}
		if frame.Event == event {
			return frame
		}
	}
	c.t.Fatalf("timed out waiting for event %q", event)
	return wireFrame{}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{MessageTTL: time.Hour, HistoryWindow: 50}
	coord := relay.NewCoordinator(cfg, newMemoryRepo(), registry.New(), identity.NewAssigner())
	srv := httptest.NewServer(NewHandler(coord))
	t.Cleanup(srv.Close)
	return srv
}

func TestTwoClientsExchangeMessages(t *testing.T) {
	srv := newTestServer(t)

	alice := dialTestClient(t, srv.URL)
	alice.send("join", map[string]string{"userId": "u-alice", "userName": "Alice"})
	assigned := alice.recv("name_assigned")
	var aliceIdentity struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(assigned.Data, &aliceIdentity); err != nil {
		t.Fatalf("failed to decode name_assigned: %v", err)
	}
	if aliceIdentity.UserID != "u-alice" || aliceIdentity.UserName != "Alice" {
		t.Fatalf("unexpected identity: %+v", aliceIdentity)
	}
	alice.recv("active_users")
	alice.recv("message_history")

	bob := dialTestClient(t, srv.URL)
	bob.send("join", map[string]string{"userId": "u-bob", "userName": "Bob"})
	bob.recv("name_assigned")

	joined := alice.recv("user_joined")
	var presence struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(joined.Data, &presence); err != nil {
		t.Fatalf("failed to decode user_joined: %v", err)
	}
	if presence.UserID != "u-bob" {
		t.Fatalf("unexpected join announcement: %+v", presence)
	}

	alice.send("chat_message", map[string]string{"userId": "u-alice", "message": "hello from alice"})

	type messageData struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Message   string    `json:"message"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	var fromAlice, fromBob messageData
	if err := json.Unmarshal(alice.recv("chat_message").Data, &fromAlice); err != nil {
		t.Fatalf("failed to decode chat_message: %v", err)
	}
	if err := json.Unmarshal(bob.recv("chat_message").Data, &fromBob); err != nil {
		t.Fatalf("failed to decode chat_message: %v", err)
	}

	if fromAlice.ID == "" || fromAlice.ID != fromBob.ID {
		t.Fatalf("expected identical server-assigned ids on both clients, got %q and %q", fromAlice.ID, fromBob.ID)
	}
	if !fromAlice.ExpiresAt.Equal(fromBob.ExpiresAt) {
		t.Fatalf("expected identical expiry on both clients, got %v and %v", fromAlice.ExpiresAt, fromBob.ExpiresAt)
	}
	if fromAlice.Message != "hello from alice" || fromAlice.UserID != "u-alice" {
		t.Fatalf("unexpected message payload: %+v", fromAlice)
	}
}

func TestDisconnectAnnouncedToRemainingClients(t *testing.T) {
	srv := newTestServer(t)

	alice := dialTestClient(t, srv.URL)
	alice.send("join", map[string]string{"userId": "u-alice", "userName": "Alice"})
	alice.recv("name_assigned")

	bob := dialTestClient(t, srv.URL)
	bob.send("join", map[string]string{"userId": "u-bob", "userName": "Bob"})
	bob.recv("name_assigned")
	alice.recv("user_joined")

	_ = bob.conn.Close()

	left := alice.recv("user_left")
	var departure struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(left.Data, &departure); err != nil {
		t.Fatalf("failed to decode user_left: %v", err)
	}
	if departure.UserID != "u-bob" {
		t.Fatalf("unexpected departure: %+v", departure)
	}
}

func TestInvalidEventYieldsErrorFrame(t *testing.T) {
	srv := newTestServer(t)

	client := dialTestClient(t, srv.URL)
	client.send("join", map[string]string{"userId": "u1", "userName": "Alice"})
	client.recv("name_assigned")

	client.send("chat_message", map[string]string{"userId": "u1", "message": "   "})
	errFrame := client.recv("error")
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(errFrame.Data, &payload); err != nil {
		t.Fatalf("failed to decode error frame: %v", err)
	}
	if payload.Error == "" {
		t.Fatal("expected a populated error frame")
	}
}

func TestMessageBeforeJoinRejected(t *testing.T) {
	srv := newTestServer(t)

	client := dialTestClient(t, srv.URL)
	client.send("chat_message", map[string]string{"userId": "u1", "message": "too early"})
	client.recv("error")
}
