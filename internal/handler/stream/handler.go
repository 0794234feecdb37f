// Package stream delivers generation events over SSE and websocket.
package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synpt/backend/internal/service/generation"
	"github.com/synpt/backend/internal/store"
	"github.com/synpt/backend/pkg/utils"
)

// Generator is the slice of the sequencer the transports need.
type Generator interface {
	Start(ctx context.Context, chatID, prompt string) (<-chan generation.Event, error)
	Cancel(ctx context.Context, chatID string) (bool, error)
}

// Handler serves the streaming generation endpoints.
type Handler struct {
	generator Generator
	ws        *webSocketTransport
}

// New creates a stream handler.
func New(generator Generator) *Handler {
	return &Handler{
		generator: generator,
		ws:        newWebSocketTransport(generator),
	}
}

// RegisterRoutes registers the streaming routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream-generate", h.handleStream)
	r.Post("/stream-generate/{chatID}/cancel", h.handleCancel)
	r.Get("/stream-generate/ws/{chatID}", h.ws.handle)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	chatID := r.URL.Query().Get("chat_id")

	if prompt == "" {
		utils.RespondError(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	if chatID == "" {
		utils.RespondError(w, http.StatusBadRequest, "For new chats, please use the POST /chats endpoint first")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, err := h.generator.Start(r.Context(), chatID, prompt)
	if err != nil {
		respondStartError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)

	for ev := range events {
		utils.SendSSEEvent(w, flusher, ev.Name(), ev)
	}

	log.Printf("[stream] finished response for chat=%s", chatID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	marked, err := h.generator.Cancel(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !marked {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "No active generation found"})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Generation cancelled and stored"})
}

func respondStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrChatNotFound):
		utils.RespondError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, generation.ErrMissingModel):
		utils.RespondError(w, http.StatusBadRequest, "Model information is missing from the chat")
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
