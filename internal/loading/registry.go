package loading

import (
	"context"
	"log/slog"
	"sync"
)

// Registry tracks the live loading stream of each tab. A tab has at most one
// stream; registering a new one cancels the previous.
type Registry struct {
	mu     sync.Mutex
	active map[string]map[string]*Registration
}

// Registration identifies one registered stream.
type Registration struct {
	cancel context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]map[string]*Registration)}
}

// Register records a stream for a user/session and returns the token to pass to
// Unregister.
func (r *Registry) Register(userID, sessionID string, cancel context.CancelFunc) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[userID]; !exists {
		r.active[userID] = make(map[string]*Registration)
	}
	if existing, exists := r.active[userID][sessionID]; exists {
		existing.cancel()
		slog.Info("Loading stream replaced", "user_id", userID, "session_id", sessionID)
	}

	e := &Registration{cancel: cancel}
	r.active[userID][sessionID] = e
	return e
}

// Unregister removes the stream if it is still the current one for the tab.
func (r *Registry) Unregister(userID, sessionID string, e *Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessions, ok := r.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == e {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(r.active, userID)
			}
		}
	}
}

// Active reports how many streams are open.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, sessions := range r.active {
		n += len(sessions)
	}
	return n
}

// CloseAll cancels every open stream. Hijacked websocket connections are not
// closed by http.Server.Shutdown, so the server calls this on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, sessions := range r.active {
		for _, e := range sessions {
			e.cancel()
		}
		delete(r.active, userID)
	}
}
