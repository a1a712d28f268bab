// Package registry is the in-memory source of truth for connected sessions.
package registry

import (
	"sync"
	"time"
)

// Conn is the transport half of a session. Each entry owns its connection
// exclusively; the registry never writes to it.
type Conn interface {
	Send(event string, payload any) error
	Close() error
}

type Session struct {
	UserID      string
	DisplayName string
	Conn        Conn
	JoinedAt    time.Time
	LastSeenAt  time.Time
}

// Registry maps user ids to live sessions. Each session entry is written only
// by the handler processing that session's own events; ListActive may observe
// a torn snapshot across entries, which is acceptable for advisory consumers.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

func New() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put registers a session, replacing any previous entry for the same user id.
// The superseded session, if any, is returned so the caller can close its
// transport.
func (r *Registry) Put(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, exists := r.sessions[s.UserID]
	if !exists {
		r.order = append(r.order, s.UserID)
	}
	r.sessions[s.UserID] = s
	return old
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Remove deletes the session and reports whether it was present, so a second
// disconnect signal for the same session is a no-op for the caller. A non-nil
// conn restricts removal to the entry still owned by that connection; a stale
// disconnect from a superseded transport cannot evict a reconnected session.
func (r *Registry) Remove(userID string, conn Conn) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	if conn != nil && s.Conn != conn {
		return nil, false
	}
	delete(r.sessions, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// Touch refreshes the liveness timestamp for the session, if present.
func (r *Registry) Touch(userID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.LastSeenAt = at
	}
}

// ListActive returns the live sessions in insertion order.
func (r *Registry) ListActive() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.sessions[id]; ok {
			list = append(list, s)
		}
	}
	return list
}

func (r *Registry) NameInUse(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.DisplayName == name {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
