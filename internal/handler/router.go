package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/synpt/backend/internal/handler/chat"
	modelsHandler "github.com/synpt/backend/internal/handler/models"
	streamHandler "github.com/synpt/backend/internal/handler/stream"
	middlewarePkg "github.com/synpt/backend/internal/middleware"
	"github.com/synpt/backend/internal/memory"
	"github.com/synpt/backend/internal/store"
	"github.com/synpt/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. The models lister and the
// generator may be nil when the local daemon is unavailable; their routes
// then answer with a degraded payload or 503.
func NewRouter(st store.ChatStore, mem *memory.Service, models modelsHandler.Lister, generator streamHandler.Generator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler.New(st, mem).RegisterRoutes(r)

	if models != nil {
		modelsHandler.New(models).RegisterRoutes(r)
	}

	if generator != nil {
		streamHandler.New(generator).RegisterRoutes(r)
	} else {
		r.Get("/stream-generate", handleGenerationUnavailable)
		r.Post("/stream-generate/{chatID}/cancel", handleGenerationUnavailable)
		r.Get("/stream-generate/ws/{chatID}", handleGenerationUnavailable)
	}

	r.Get("/health", handleHealth)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":        "healthy",
		"memory_system": "keyword_based",
		"database":      "sqlite",
	})
}

func handleGenerationUnavailable(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusServiceUnavailable, "ai generation unavailable")
}
