// Package models lists the models installed on the local Ollama daemon.
package models

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ollama/ollama/api"

	"github.com/synpt/backend/pkg/utils"
)

// Lister enumerates locally installed models.
type Lister interface {
	ListModels(ctx context.Context) (*api.ListResponse, error)
}

// Handler serves the model listing endpoint.
type Handler struct {
	models Lister
}

// New creates a models handler.
func New(models Lister) *Handler {
	return &Handler{models: models}
}

// RegisterRoutes registers the model routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleList)
}

// handleList returns the daemon's model list. A daemon failure still
// answers 200 with a degraded payload so the frontend can render a hint
// instead of an error page.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	models, err := h.models.ListModels(r.Context())
	if err != nil {
		log.Printf("[models] failed to list models: %v", err)
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"error":      "Failed to list Ollama models",
			"success":    false,
			"models":     []any{},
			"details":    err.Error(),
			"suggestion": "Make sure Ollama is running and accessible",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, models)
}
