package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/synpt/backend/internal/service/generation"
)

// webSocketTransport streams generation events over a websocket and lets
// the client cancel mid-generation through the same connection.
type webSocketTransport struct {
	generator Generator
	upgrader  websocket.Upgrader
}

func newWebSocketTransport(generator Generator) *webSocketTransport {
	return &webSocketTransport{
		generator: generator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// wsFrame mirrors the SSE wire shape: the event name plus the same JSON
// payload that SSE carries in its data line.
type wsFrame struct {
	Event string           `json:"event"`
	Data  generation.Event `json:"data"`
}

type wsInbound struct {
	Action string `json:"action"`
}

func (t *webSocketTransport) handle(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		http.Error(w, "prompt query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := t.generator.Start(ctx, chatID, prompt)
	if err != nil {
		t.writeFrame(conn, wsFrame{
			Event: "error",
			Data: generation.Event{
				Status: generation.StatusError,
				Error:  err.Error(),
			},
		})
		return
	}

	go t.readPump(ctx, cancel, conn, chatID)

	for ev := range events {
		t.writeFrame(conn, wsFrame{Event: ev.Name(), Data: ev})
	}

	log.Printf("[stream] websocket finished for chat=%s", chatID)
}

// readPump watches for a cancel action and for the connection going away.
func (t *webSocketTransport) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, chatID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			return
		}

		var inbound wsInbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			continue
		}
		if inbound.Action == "cancel" {
			if _, err := t.generator.Cancel(ctx, chatID); err != nil {
				log.Printf("[stream] websocket cancel failed for chat %s: %v", chatID, err)
			}
		}
	}
}

func (t *webSocketTransport) writeFrame(conn *websocket.Conn, frame wsFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[stream] websocket write failed: %v", err)
	}
}
