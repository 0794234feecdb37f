package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/synpt/backend/internal/memory"
	chatModel "github.com/synpt/backend/internal/model/chat"
	"github.com/synpt/backend/internal/store"
)

func setupRouter() (*chi.Mux, store.ChatStore, *memory.Service) {
	st := store.NewMemoryStore()
	mem := memory.NewService()
	handler := New(st, mem)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, st, mem
}

func seedChat(t *testing.T, st store.ChatStore) chatModel.Chat {
	t.Helper()

	created, err := st.Create(context.Background(), chatModel.Chat{
		Title: "seed",
		Model: chatModel.ModelInfo{Name: "llama3.2"},
		Messages: []chatModel.Message{
			{Type: chatModel.SenderUser, Content: "what is a goroutine", Timestamp: chatModel.Now()},
		},
	})
	if err != nil {
		t.Fatalf("seed err: %v", err)
	}
	return created
}

func TestCreateChat(t *testing.T) {
	r, _, _ := setupRouter()

	payload, _ := json.Marshal(chatModel.Chat{
		Title: "new chat",
		Model: chatModel.ModelInfo{Name: "llama3.2", Size: 2048},
	})

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var created chatModel.Chat
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatalf("missing id or timestamps: %+v", created)
	}
}

func TestCreateChatInvalidBody(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewReader([]byte("not json")))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetChat(t *testing.T) {
	r, st, _ := setupRouter()
	created := seedChat(t, st)

	req := httptest.NewRequest(http.MethodGet, "/chats/"+created.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chats/missing", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUpdateChatReindexesMemory(t *testing.T) {
	r, st, mem := setupRouter()
	created := seedChat(t, st)

	created.Title = "renamed"
	created.Messages = append(created.Messages, chatModel.Message{
		Type: chatModel.SenderAssistant, Content: "a goroutine is a lightweight thread", Timestamp: chatModel.Now(),
	})
	payload, _ := json.Marshal(created)

	req := httptest.NewRequest(http.MethodPut, "/chats/"+created.ID, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if mem.Count(created.ID) != 2 {
		t.Fatalf("expected 2 indexed memories, got %d", mem.Count(created.ID))
	}
}

func TestDeleteChatDropsMemory(t *testing.T) {
	r, st, mem := setupRouter()
	created := seedChat(t, st)
	mem.Reindex(created.ID, created.Messages)

	req := httptest.NewRequest(http.MethodDelete, "/chats/"+created.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["message"] != "Chat deleted successfully" {
		t.Fatalf("unexpected body: %v", body)
	}
	if mem.Count(created.ID) != 0 {
		t.Fatalf("memory must be dropped with the chat")
	}
}

func TestUpdateMemoryEndpoint(t *testing.T) {
	r, st, mem := setupRouter()
	created := seedChat(t, st)

	req := httptest.NewRequest(http.MethodPost, "/chats/"+created.ID+"/update-memory", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if mem.Count(created.ID) != 1 {
		t.Fatalf("expected 1 indexed memory, got %d", mem.Count(created.ID))
	}

	req = httptest.NewRequest(http.MethodPost, "/chats/missing/update-memory", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestMemoryStatsEndpoint(t *testing.T) {
	r, st, mem := setupRouter()
	created := seedChat(t, st)
	mem.Reindex(created.ID, created.Messages)

	req := httptest.NewRequest(http.MethodGet, "/chats/"+created.ID+"/memory-stats", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var stats struct {
		ChatID         string `json:"chat_id"`
		StoredMemories int    `json:"stored_memories"`
		MemoryType     string `json:"memory_type"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if stats.ChatID != created.ID || stats.StoredMemories != 1 || stats.MemoryType != "keyword_based" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
