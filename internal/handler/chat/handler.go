// Package chat exposes the chat CRUD and memory maintenance endpoints.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synpt/backend/internal/memory"
	chatModel "github.com/synpt/backend/internal/model/chat"
	"github.com/synpt/backend/internal/store"
	"github.com/synpt/backend/pkg/utils"
)

// Handler serves chat persistence over HTTP.
type Handler struct {
	store  store.ChatStore
	memory *memory.Service
}

// New creates a chat handler.
func New(st store.ChatStore, mem *memory.Service) *Handler {
	return &Handler{store: st, memory: mem}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chats", h.handleCreate)
	r.Get("/chats", h.handleList)
	r.Get("/chats/{chatID}", h.handleGet)
	r.Put("/chats/{chatID}", h.handleUpdate)
	r.Delete("/chats/{chatID}", h.handleDelete)
	r.Post("/chats/{chatID}/update-memory", h.handleUpdateMemory)
	r.Get("/chats/{chatID}/memory-stats", h.handleMemoryStats)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload chatModel.Chat
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.store.Create(r.Context(), payload)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.List(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	found, err := h.store.Get(r.Context(), chatID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, found)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var payload chatModel.Chat
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.Update(r.Context(), chatID, payload)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	// The client may rewrite history wholesale, so the index is rebuilt.
	h.memory.Reindex(chatID, updated.Messages)

	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.store.Delete(r.Context(), chatID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.memory.Delete(chatID)

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

func (h *Handler) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	found, err := h.store.Get(r.Context(), chatID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if len(found.Messages) == 0 {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "No messages to store in memory"})
		return
	}

	h.memory.Reindex(chatID, found.Messages)
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Memory updated for chat %s", chatID),
	})
}

func (h *Handler) handleMemoryStats(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"chat_id":         chatID,
		"stored_memories": h.memory.Count(chatID),
		"memory_type":     "keyword_based",
	})
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrChatNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Chat not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
