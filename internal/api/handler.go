// Package api provides HTTP handlers for the navigator API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ashureev/startup-navigator/internal/backend"
	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/store"
)

// Analyzer is the analysis service as the handlers use it.
type Analyzer interface {
	Submit(ctx context.Context, payload domain.SubmitRequest, requestID string) (*domain.Report, error)
	HealthCheck(ctx context.Context) (*backend.HealthStatus, error)
}

// Handler provides common handler utilities.
type Handler struct {
	repo     store.Repository
	sessions *session.Manager
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, sessions *session.Manager) *Handler {
	return &Handler{repo: repo, sessions: sessions}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ids returns the device and tab the request belongs to. Routes behind
// identity.AttachSession always have both.
func ids(r *http.Request) (userID, sessionID string) {
	caller, _ := identity.CallerFromContext(r.Context())
	return caller.DeviceID, caller.TabID
}

func username(r *http.Request) string {
	caller, _ := identity.CallerFromContext(r.Context())
	return caller.Username()
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
