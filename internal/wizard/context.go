package wizard

import (
	"context"

	"github.com/ashureev/startup-navigator/internal/domain"
)

type contextKey struct{}

// WithSession attaches the wizard session to ctx.
func WithSession(ctx context.Context, sess *domain.WizardSession) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the wizard session attached to ctx, if any.
func FromContext(ctx context.Context) (*domain.WizardSession, bool) {
	sess, ok := ctx.Value(contextKey{}).(*domain.WizardSession)
	return sess, ok && sess != nil
}

// MustFromContext returns the wizard session attached to ctx.
// Reaching a step handler without the session middleware is a wiring bug, so it panics.
func MustFromContext(ctx context.Context) *domain.WizardSession {
	sess, ok := FromContext(ctx)
	if !ok {
		panic("wizard: session accessed outside of the session middleware")
	}
	return sess
}
