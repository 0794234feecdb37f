package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/synpt/backend/internal/model/chat"
)

// MemoryStore implements ChatStore with in-process maps. It backs tests and
// development runs without a database file.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]chat.Chat
}

// NewMemoryStore returns an empty in-memory chat store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]chat.Chat)}
}

func cloneChat(c chat.Chat) chat.Chat {
	copied := c
	copied.Messages = append([]chat.Message(nil), c.Messages...)
	return copied
}

// Create assigns an id and timestamps and stores the chat.
func (s *MemoryStore) Create(_ context.Context, c chat.Chat) (chat.Chat, error) {
	now := chat.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Messages == nil {
		c.Messages = []chat.Message{}
	}

	s.mu.Lock()
	s.chats[c.ID] = cloneChat(c)
	s.mu.Unlock()

	return c, nil
}

// Get returns a copy of the stored chat.
func (s *MemoryStore) Get(_ context.Context, id string) (chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return chat.Chat{}, ErrChatNotFound
	}
	return cloneChat(c), nil
}

// List returns all chats, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]chat.Chat, error) {
	s.mu.RLock()
	chats := make([]chat.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		chats = append(chats, cloneChat(c))
	}
	s.mu.RUnlock()

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt > chats[j].UpdatedAt
	})
	return chats, nil
}

// Update replaces title, model and messages, refreshing updated_at.
func (s *MemoryStore) Update(_ context.Context, id string, c chat.Chat) (chat.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chats[id]
	if !ok {
		return chat.Chat{}, ErrChatNotFound
	}

	existing.Title = c.Title
	existing.Model = c.Model
	existing.Messages = append([]chat.Message(nil), c.Messages...)
	existing.UpdatedAt = chat.Now()
	s.chats[id] = existing

	return cloneChat(existing), nil
}

// Delete removes the chat.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return ErrChatNotFound
	}
	delete(s.chats, id)
	return nil
}

// ReplaceMessages swaps the chat's entire message list.
func (s *MemoryStore) ReplaceMessages(_ context.Context, id string, messages []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chats[id]
	if !ok {
		return ErrChatNotFound
	}

	existing.Messages = append([]chat.Message(nil), messages...)
	existing.UpdatedAt = chat.Now()
	s.chats[id] = existing
	return nil
}

// UpdateMessage rewrites one message in place.
func (s *MemoryStore) UpdateMessage(_ context.Context, id string, index int, content string, sections []chat.Section, streaming bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chats[id]
	if !ok {
		return ErrChatNotFound
	}
	if index < 0 || index >= len(existing.Messages) {
		return ErrMessageIndex
	}

	messages := append([]chat.Message(nil), existing.Messages...)
	messages[index].Content = content
	messages[index].Sections = sections
	messages[index].IsStreaming = streaming

	existing.Messages = messages
	existing.UpdatedAt = chat.Now()
	s.chats[id] = existing
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
