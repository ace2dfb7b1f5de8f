package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// MemoryStore implements Repository in process memory. State is lost on restart,
// which matches the lifetime of an in-browser wizard session.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	sessions map[string]*domain.WizardSession
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		sessions: make(map[string]*domain.WizardSession),
		now:      time.Now,
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// GetUser retrieves a user by their user ID.
func (m *MemoryStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// UpsertUser creates or updates a user record.
func (m *MemoryStore) UpsertUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *user
	if existing, ok := m.users[user.UserID]; ok {
		u.CreatedAt = existing.CreatedAt
	}
	m.users[user.UserID] = u
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (m *MemoryStore) UpdateLastSeen(_ context.Context, userID string, lastSeen time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	u.LastSeenAt = lastSeen
	u.UpdatedAt = m.now()
	m.users[userID] = u
	return nil
}

// GetWizardSession returns a copy of the stored session.
func (m *MemoryStore) GetWizardSession(_ context.Context, userID, sessionID string) (*domain.WizardSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[domain.SessionKey(userID, sessionID)]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

// UpsertWizardSession stores a copy of the session.
func (m *MemoryStore) UpsertWizardSession(_ context.Context, sess *domain.WizardSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.Key()] = sess.Clone()
	return nil
}

// DeleteWizardSession removes the wizard state of one browser tab.
func (m *MemoryStore) DeleteWizardSession(_ context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, domain.SessionKey(userID, sessionID))
	return nil
}

// CleanupExpiredSessions removes idle sessions that have no submission in flight.
func (m *MemoryStore) CleanupExpiredSessions(_ context.Context, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := m.now().Add(-ttl)
	var n int64
	for key, sess := range m.sessions {
		if !sess.Submitting && sess.UpdatedAt.Before(threshold) {
			delete(m.sessions, key)
			n++
		}
	}
	return n, nil
}

// ResetStaleSubmissions clears every submitting flag.
func (m *MemoryStore) ResetStaleSubmissions(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, sess := range m.sessions {
		if sess.Submitting {
			sess.Submitting = false
			sess.UpdatedAt = m.now()
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
