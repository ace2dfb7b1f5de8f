// Package store provides persistence for anonymous users and their wizard sessions.
package store

import (
	"context"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// Repository defines the interface for persisting users and wizard sessions.
// Getters return (nil, nil) when the record does not exist.
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetWizardSession retrieves the wizard state of one browser tab.
	GetWizardSession(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error)

	// UpsertWizardSession creates or replaces the wizard state of one browser tab.
	UpsertWizardSession(ctx context.Context, sess *domain.WizardSession) error

	// DeleteWizardSession removes the wizard state of one browser tab.
	DeleteWizardSession(ctx context.Context, userID, sessionID string) error

	// CleanupExpiredSessions removes wizard sessions not updated within ttl.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// ResetStaleSubmissions clears submitting flags left behind by a previous
	// process; no submission survives a restart.
	ResetStaleSubmissions(ctx context.Context) (int64, error)

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
