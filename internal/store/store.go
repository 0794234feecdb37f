// Package store persists chats and their ordered message lists.
package store

import (
	"context"
	"errors"

	"github.com/synpt/backend/internal/model/chat"
)

var (
	// ErrChatNotFound is returned when no chat exists for the given id.
	ErrChatNotFound = errors.New("chat not found")
	// ErrMessageIndex is returned when a per-message update addresses an
	// index outside the chat's message list.
	ErrMessageIndex = errors.New("message index out of range")
)

// ChatStore is the persistence contract for chats. Implementations must be
// safe for concurrent use across chats; within one chat the streaming
// sequencer is the sole writer while a generation is in flight.
type ChatStore interface {
	// Create assigns an id and timestamps and persists the chat.
	Create(ctx context.Context, c chat.Chat) (chat.Chat, error)
	// Get returns the chat for id or ErrChatNotFound.
	Get(ctx context.Context, id string) (chat.Chat, error)
	// List returns all chats, most recently updated first.
	List(ctx context.Context) ([]chat.Chat, error)
	// Update replaces the chat's mutable fields, preserving id and
	// creation time.
	Update(ctx context.Context, id string, c chat.Chat) (chat.Chat, error)
	// Delete removes the chat.
	Delete(ctx context.Context, id string) error
	// ReplaceMessages swaps the chat's entire message list.
	ReplaceMessages(ctx context.Context, id string, messages []chat.Message) error
	// UpdateMessage rewrites one message's content, sections and streaming
	// flag in place. Used on every fragment while a response streams.
	UpdateMessage(ctx context.Context, id string, index int, content string, sections []chat.Section, streaming bool) error
	// Close releases underlying resources.
	Close() error
}
