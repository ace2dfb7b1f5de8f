package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/startup-navigator/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo     store.Repository
	analyzer Analyzer
	timeout  time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, analyzer Analyzer, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{repo: repo, analyzer: analyzer, timeout: timeout}
}

// Health returns the health status of the API and its store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// BackendHealth checks the analysis service.
func (h *HealthHandler) BackendHealth(w http.ResponseWriter, r *http.Request) {
	st, err := h.analyzer.HealthCheck(r.Context())
	if err != nil {
		slog.Warn("Analysis service health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}
	JSON(w, http.StatusOK, st)
}

// RegisterHealth registers the health check routes.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/backend/health", h.BackendHealth)
}
