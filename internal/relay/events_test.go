package relay

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseClientEvent_Join(t *testing.T) {
	ev, err := ParseClientEvent(EventJoin, json.RawMessage(`{"userId":"u1","userName":"Alice"}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	join, ok := ev.(JoinEvent)
	if !ok {
		t.Fatalf("expected JoinEvent, got %T", ev)
	}
	if join.UserID != "u1" || join.UserName != "Alice" {
		t.Fatalf("unexpected event: %+v", join)
	}
}

func TestParseClientEvent_ChatMessageDefaultsSourceLang(t *testing.T) {
	ev, err := ParseClientEvent(EventChatMessage, json.RawMessage(`{"userId":"u1","message":"hi"}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	msg := ev.(ChatMessageEvent)
	if msg.SourceLang != "EN" {
		t.Fatalf("expected default source lang EN, got %q", msg.SourceLang)
	}
}

func TestParseClientEvent_ChatMessageRejectsEmptyBody(t *testing.T) {
	_, err := ParseClientEvent(EventChatMessage, json.RawMessage(`{"userId":"u1","message":"   "}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Field != "message" {
		t.Fatalf("unexpected field: %q", vErr.Field)
	}
}

func TestParseClientEvent_ChatMessageRequiresUserID(t *testing.T) {
	_, err := ParseClientEvent(EventChatMessage, json.RawMessage(`{"message":"hi"}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseClientEvent_FileSharedRequiresFiles(t *testing.T) {
	_, err := ParseClientEvent(EventFileShared, json.RawMessage(`{"userId":"u1","files":[]}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseClientEvent_DeleteMessageRequiresMessageID(t *testing.T) {
	_, err := ParseClientEvent(EventDeleteMessage, json.RawMessage(`{"userId":"u1"}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseClientEvent_UnknownEvent(t *testing.T) {
	_, err := ParseClientEvent("shrug", json.RawMessage(`{}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for unknown event, got %v", err)
	}
}

func TestParseClientEvent_MalformedPayload(t *testing.T) {
	_, err := ParseClientEvent(EventJoin, json.RawMessage(`{not json`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for malformed payload, got %v", err)
	}
}
