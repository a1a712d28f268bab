// Package identity issues human-readable display names for joining sessions.
// Uniqueness is best-effort: after the attempt budget is exhausted the final
// candidate is accepted even if it collides.
package identity

import (
	"math/rand/v2"
	"strings"
)

const maxCompositionAttempts = 10

// NameInUse reports whether a display name is held by an active session.
// It is evaluated against the registry snapshot at call time.
type NameInUse func(name string) bool

type Assigner struct {
	randIntN func(n int) int
}

func NewAssigner() *Assigner {
	return &Assigner{randIntN: rand.IntN}
}

// NewAssignerWithRand is used by tests to make composition deterministic.
func NewAssignerWithRand(randIntN func(n int) int) *Assigner {
	return &Assigner{randIntN: randIntN}
}

// Assign returns the requested name when it is usable, otherwise composes an
// adjective+noun name, retrying a bounded number of times on collision.
func (a *Assigner) Assign(requested string, inUse NameInUse) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && !isPlaceholder(requested) && !inUse(requested) {
		return requested
	}

	var candidate string
	for range maxCompositionAttempts {
		candidate = a.compose()
		if !inUse(candidate) {
			return candidate
		}
	}
	return candidate
}

func (a *Assigner) compose() string {
	adj := adjectives[a.randIntN(len(adjectives))]
	noun := nouns[a.randIntN(len(nouns))]
	return adj + " " + noun
}

var placeholderNames = map[string]struct{}{
	"anonymous": {},
	"guest":     {},
	"user":      {},
	"unknown":   {},
	"null":      {},
	"undefined": {},
}

func isPlaceholder(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := placeholderNames[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "user_") || strings.HasPrefix(lower, "guest_")
}
