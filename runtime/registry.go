package runtime

import (
	"sync"

	"chat-direct/contract"
)

// Registry keeps the single live session per user identity.
// Every operation takes the same lock, so a Register racing a
// DeregisterOwned always resolves to a consistent winner.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Session // map user identity -> live session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.Session),
	}
}

// Register installs s as the live session for userID.
// A newer connection always wins: if a session was already registered
// for the same user it is returned alongside replaced=true so the
// caller can close it. The registry never closes sessions itself.
func (r *Registry) Register(userID string, s contract.Session) (contract.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, replaced := r.sessions[userID]
	r.sessions[userID] = s
	return previous, replaced
}

// DeregisterOwned removes the entry for userID only if s is still the
// registered session. A stale connection closing after it has been
// replaced must not evict its successor; in that case the map is left
// untouched and false is returned.
func (r *Registry) DeregisterOwned(userID string, s contract.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != s {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup resolves the live session for userID, if any.
func (r *Registry) Lookup(userID string) (contract.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Snapshot returns a copy of the current registrations.
// Callers iterate the copy without holding the registry lock, so a
// slow consumer cannot stall registrations.
func (r *Registry) Snapshot() map[string]contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]contract.Session, len(r.sessions))
	for userID, s := range r.sessions {
		snapshot[userID] = s
	}
	return snapshot
}

// Count reports how many users currently hold a live session.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
