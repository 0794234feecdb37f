package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ollama/ollama/api"
)

type fakeLister struct {
	response *api.ListResponse
	err      error
}

func (f *fakeLister) ListModels(ctx context.Context) (*api.ListResponse, error) {
	return f.response, f.err
}

func setupRouter(lister Lister) *chi.Mux {
	r := chi.NewRouter()
	New(lister).RegisterRoutes(r)
	return r
}

func TestListModels(t *testing.T) {
	r := setupRouter(&fakeLister{response: &api.ListResponse{
		Models: []api.ListModelResponse{{Name: "llama3.2", Size: 2048}},
	}})

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body api.ListResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body.Models) != 1 || body.Models[0].Name != "llama3.2" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListModelsDaemonDown(t *testing.T) {
	r := setupRouter(&fakeLister{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	// The frontend expects a 200 with a degraded payload, not an error status.
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Error      string `json:"error"`
		Success    bool   `json:"success"`
		Models     []any  `json:"models"`
		Details    string `json:"details"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Success || body.Error == "" || len(body.Models) != 0 {
		t.Fatalf("unexpected degraded payload: %+v", body)
	}
	if body.Suggestion != "Make sure Ollama is running and accessible" {
		t.Fatalf("unexpected suggestion: %q", body.Suggestion)
	}
}
