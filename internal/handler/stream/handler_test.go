package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/synpt/backend/internal/service/generation"
	"github.com/synpt/backend/internal/store"
)

type fakeGenerator struct {
	events    []generation.Event
	startErr  error
	cancelErr error
	marked    bool

	startedChat  string
	startedWith  string
	cancelledFor string
}

func (f *fakeGenerator) Start(ctx context.Context, chatID, prompt string) (<-chan generation.Event, error) {
	f.startedChat = chatID
	f.startedWith = prompt
	if f.startErr != nil {
		return nil, f.startErr
	}

	ch := make(chan generation.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeGenerator) Cancel(ctx context.Context, chatID string) (bool, error) {
	f.cancelledFor = chatID
	return f.marked, f.cancelErr
}

func setupRouter(gen Generator) *chi.Mux {
	r := chi.NewRouter()
	New(gen).RegisterRoutes(r)
	return r
}

func TestStreamGenerateEmitsSSE(t *testing.T) {
	gen := &fakeGenerator{events: []generation.Event{
		{Content: "Hello", AccumulatedContent: "Hello", Status: generation.StatusStreaming},
		{Content: "", AccumulatedContent: "Hello", Status: generation.StatusComplete},
	}}
	r := setupRouter(gen)

	req := httptest.NewRequest(http.MethodGet, "/stream-generate?prompt=hi&chat_id=c1", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if gen.startedChat != "c1" || gen.startedWith != "hi" {
		t.Fatalf("generator started with wrong arguments: %+v", gen)
	}

	body := resp.Body.String()
	if !strings.Contains(body, "event: message") {
		t.Fatalf("missing message event: %q", body)
	}
	if !strings.Contains(body, `"status":"streaming"`) || !strings.Contains(body, `"status":"complete"`) {
		t.Fatalf("missing statuses: %q", body)
	}
	if !strings.Contains(body, `"content":""`) {
		t.Fatalf("terminal event must carry empty content: %q", body)
	}
}

func TestStreamGenerateErrorEventName(t *testing.T) {
	gen := &fakeGenerator{events: []generation.Event{
		{Status: generation.StatusError, Error: "model exploded"},
		{Status: generation.StatusComplete},
	}}
	r := setupRouter(gen)

	req := httptest.NewRequest(http.MethodGet, "/stream-generate?prompt=hi&chat_id=c1", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	body := resp.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Fatalf("missing error event: %q", body)
	}
}

func TestStreamGenerateValidation(t *testing.T) {
	r := setupRouter(&fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/stream-generate?chat_id=c1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing prompt, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream-generate?prompt=hi", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing chat_id, got %d", resp.Code)
	}
}

func TestStreamGenerateStartErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"missing chat":  {store.ErrChatNotFound, http.StatusNotFound},
		"missing model": {generation.ErrMissingModel, http.StatusBadRequest},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := setupRouter(&fakeGenerator{startErr: tc.err})

			req := httptest.NewRequest(http.MethodGet, "/stream-generate?prompt=hi&chat_id=c1", nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestCancelGeneration(t *testing.T) {
	gen := &fakeGenerator{marked: true}
	r := setupRouter(gen)

	req := httptest.NewRequest(http.MethodPost, "/stream-generate/c1/cancel", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gen.cancelledFor != "c1" {
		t.Fatalf("cancel routed to wrong chat: %q", gen.cancelledFor)
	}

	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["message"] != "Generation cancelled and stored" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCancelWithoutActiveGeneration(t *testing.T) {
	r := setupRouter(&fakeGenerator{marked: false})

	req := httptest.NewRequest(http.MethodPost, "/stream-generate/c1/cancel", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["message"] != "No active generation found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCancelMissingChat(t *testing.T) {
	r := setupRouter(&fakeGenerator{cancelErr: store.ErrChatNotFound})

	req := httptest.NewRequest(http.MethodPost, "/stream-generate/c1/cancel", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
