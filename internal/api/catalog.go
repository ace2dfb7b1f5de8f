package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

// CatalogHandler serves the static reference data and the client route table.
type CatalogHandler struct {
	cat *catalog.Catalog
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// RegisterRoutes registers catalog routes.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/catalog", h.Catalog)
	r.Get("/api/routes", h.Routes)
}

// Catalog returns every choice the wizard offers.
func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.cat)
}

// Routes returns the client route table with step numbers.
func (h *CatalogHandler) Routes(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"routes":     wizard.Routes(),
		"totalSteps": wizard.TotalSteps,
	})
}
