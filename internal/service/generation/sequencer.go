// Package generation runs the token-to-event pipeline: it appends the user
// prompt and an assistant placeholder to the chat, streams model fragments,
// and after every fragment re-extracts sections, persists the partial
// message, and emits an event to the subscribed transport.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/synpt/backend/internal/analysis/segment"
	"github.com/synpt/backend/internal/memory"
	"github.com/synpt/backend/internal/model/chat"
	"github.com/synpt/backend/internal/store"
)

const (
	cancelledMarker   = "\n\n[Generation cancelled]"
	errorMarkerFormat = "\n\n[Error occurred: %s]"

	// fragmentYieldDelay keeps the event loop from starving slow consumers.
	fragmentYieldDelay = 10 * time.Millisecond

	eventTimeLayout = "2006-01-02 15:04:05"
)

// ErrMissingModel is returned when a chat carries no model name to
// generate with.
var ErrMissingModel = errors.New("chat has no model configured")

// TokenStreamer produces model output for an ordered list of turns.
type TokenStreamer interface {
	StreamingEnabled() bool
	Generate(ctx context.Context, modelName string, turns []*schema.Message) (*schema.Message, error)
	Stream(ctx context.Context, modelName string, turns []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

// ContextBuilder assembles the turns sent to the model for a prompt.
type ContextBuilder interface {
	Build(chatID string, history []chat.Message, prompt string) []*schema.Message
}

// Sequencer coordinates one generation per chat: persistence, section
// extraction, event fan-out and cancellation.
type Sequencer struct {
	store   store.ChatStore
	tokens  TokenStreamer
	builder ContextBuilder
	memory  *memory.Service

	yieldDelay time.Duration

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates a sequencer over the given store, token source and context
// builder.
func New(st store.ChatStore, tokens TokenStreamer, builder ContextBuilder, mem *memory.Service) *Sequencer {
	return &Sequencer{
		store:      st,
		tokens:     tokens,
		builder:    builder,
		memory:     mem,
		yieldDelay: fragmentYieldDelay,
		active:     make(map[string]context.CancelFunc),
	}
}

// Start appends the prompt and an empty streaming assistant message to the
// chat, then launches generation in the background. The returned channel
// carries one event per fragment, closes after the terminal event, and is
// abandoned when ctx is cancelled.
func (s *Sequencer) Start(ctx context.Context, chatID, prompt string) (<-chan Event, error) {
	current, err := s.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if current.Model.Name == "" {
		return nil, ErrMissingModel
	}

	// Context turns are built from history as it was before this prompt.
	history := current.Messages

	updated := append(append([]chat.Message{}, history...),
		chat.Message{Type: chat.SenderUser, Content: prompt, Timestamp: chat.Now()},
		chat.Message{Type: chat.SenderAssistant, Content: "", Timestamp: chat.Now(), IsStreaming: true},
	)
	if err := s.store.ReplaceMessages(ctx, chatID, updated); err != nil {
		return nil, err
	}
	assistantIndex := len(updated) - 1

	turns := s.builder.Build(chatID, history, prompt)
	log.Printf("[generation] chat=%s model=%s context turns=%d", chatID, current.Model.Name, len(turns))

	genCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.active[chatID] = cancel
	s.mu.Unlock()

	events := make(chan Event, 8)
	go s.run(genCtx, chatID, current.Model.Name, assistantIndex, turns, events)
	return events, nil
}

// Cancel stops any in-flight generation for the chat and appends the
// cancellation marker to its last assistant message. It reports whether a
// message was marked.
func (s *Sequencer) Cancel(ctx context.Context, chatID string) (bool, error) {
	s.mu.Lock()
	cancel, running := s.active[chatID]
	s.mu.Unlock()
	if running {
		cancel()
	}

	current, err := s.store.Get(ctx, chatID)
	if err != nil {
		return false, err
	}

	for i := len(current.Messages) - 1; i >= 0; i-- {
		msg := current.Messages[i]
		if msg.Type != chat.SenderAssistant {
			continue
		}

		content := msg.Content + cancelledMarker
		sections := segment.Extract(content)
		if err := s.store.UpdateMessage(ctx, chatID, i, content, sections, false); err != nil {
			return false, err
		}

		s.reindexMemory(ctx, chatID)
		log.Printf("[generation] cancelled chat=%s message=%d", chatID, i)
		return true, nil
	}

	return false, nil
}

func (s *Sequencer) run(ctx context.Context, chatID, modelName string, assistantIndex int, turns []*schema.Message, events chan<- Event) {
	defer close(events)
	defer s.release(chatID)

	accumulated, err := s.consume(ctx, chatID, modelName, assistantIndex, turns, events)
	switch {
	case err == nil:
		persistCtx := context.WithoutCancel(ctx)
		sections := segment.Extract(accumulated)
		if perr := s.store.UpdateMessage(persistCtx, chatID, assistantIndex, accumulated, sections, false); perr != nil {
			log.Printf("[generation] failed to persist final message for chat %s: %v", chatID, perr)
		}
		s.reindexMemory(persistCtx, chatID)

	case errors.Is(err, context.Canceled):
		// Cancel already persisted the marker; do not overwrite it.

	default:
		log.Printf("[generation] stream failed for chat %s: %v", chatID, err)
		persistCtx := context.WithoutCancel(ctx)
		content := accumulated + fmt.Sprintf(errorMarkerFormat, err)
		if perr := s.store.UpdateMessage(persistCtx, chatID, assistantIndex, content, segment.Extract(content), false); perr != nil {
			log.Printf("[generation] failed to persist error marker for chat %s: %v", chatID, perr)
		}
		s.emit(ctx, events, Event{
			Status:             StatusError,
			Error:              err.Error(),
			AccumulatedContent: accumulated,
		})
	}

	// The terminal event is sent exactly once, on every exit path.
	s.emit(ctx, events, Event{
		Content:            "",
		Status:             StatusComplete,
		AccumulatedContent: accumulated,
		Time:               time.Now().Format(eventTimeLayout),
	})
}

// consume drains the token source, persisting and emitting per fragment.
// It returns whatever accumulated, alongside the first failure.
func (s *Sequencer) consume(ctx context.Context, chatID, modelName string, assistantIndex int, turns []*schema.Message, events chan<- Event) (string, error) {
	if !s.tokens.StreamingEnabled() {
		response, err := s.tokens.Generate(ctx, modelName, turns)
		if err != nil {
			return "", err
		}
		s.handleFragment(ctx, chatID, assistantIndex, response.Content, response.Content, events)
		return response.Content, nil
	}

	stream, err := s.tokens.Stream(ctx, modelName, turns)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	accumulated := ""
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			return accumulated, nil
		}
		if recvErr != nil {
			return accumulated, recvErr
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		accumulated += chunk.Content
		s.handleFragment(ctx, chatID, assistantIndex, chunk.Content, accumulated, events)

		select {
		case <-ctx.Done():
			return accumulated, ctx.Err()
		case <-time.After(s.yieldDelay):
		}
	}
}

func (s *Sequencer) handleFragment(ctx context.Context, chatID string, assistantIndex int, fragment, accumulated string, events chan<- Event) {
	sections := segment.Extract(accumulated)

	// Persist first so a dropped consumer never loses text already streamed.
	if err := s.store.UpdateMessage(ctx, chatID, assistantIndex, accumulated, sections, true); err != nil {
		log.Printf("[generation] failed to persist partial message for chat %s: %v", chatID, err)
	}

	s.emit(ctx, events, Event{
		Content:            fragment,
		AccumulatedContent: accumulated,
		Sections:           sections,
		Status:             StatusStreaming,
		Time:               time.Now().Format(eventTimeLayout),
	})
}

func (s *Sequencer) emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
		// Consumer likely gone; deliver into the buffer when possible.
		select {
		case events <- ev:
		default:
		}
	}
}

func (s *Sequencer) reindexMemory(ctx context.Context, chatID string) {
	updated, err := s.store.Get(ctx, chatID)
	if err != nil {
		log.Printf("[generation] failed to reload chat %s for memory reindex: %v", chatID, err)
		return
	}
	s.memory.Reindex(chatID, updated.Messages)
}

func (s *Sequencer) release(chatID string) {
	s.mu.Lock()
	if cancel, ok := s.active[chatID]; ok {
		cancel()
		delete(s.active, chatID)
	}
	s.mu.Unlock()
}
