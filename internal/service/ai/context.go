package ai

import (
	"github.com/cloudwego/eino/schema"

	"github.com/synpt/backend/internal/config"
	"github.com/synpt/backend/internal/memory"
	"github.com/synpt/backend/internal/model/chat"
)

// memoryContextPrefix marks a turn injected from older conversation so the
// model treats it as background rather than immediate dialogue.
const memoryContextPrefix = "[Previous Context] "

// ContextBuilder assembles the ordered turn list sent to the model:
// top-ranked older memories first, then the recent window in chronological
// order, then the new prompt as a user turn.
type ContextBuilder struct {
	memory *memory.Service
	cfg    config.ContextConfig
}

// NewContextBuilder wires the builder to the memory index and its policy.
func NewContextBuilder(mem *memory.Service, cfg config.ContextConfig) *ContextBuilder {
	return &ContextBuilder{memory: mem, cfg: cfg}
}

// Build converts history plus the new prompt into role/content turns. While
// history fits the recent window it is passed through 1:1. Beyond that the
// memory index is rebuilt from the full history and queried with the
// prompt; retrieved memories are filtered to messages strictly before the
// window start so nothing appears both as memory and as recent turn.
func (b *ContextBuilder) Build(chatID string, history []chat.Message, prompt string) []*schema.Message {
	turns := make([]*schema.Message, 0, b.cfg.RecentWindow+b.cfg.MemoryInject+1)

	recent := history
	if len(history) > b.cfg.RecentWindow {
		windowStart := len(history) - b.cfg.RecentWindow
		recent = history[windowStart:]

		b.memory.Reindex(chatID, history)

		injected := 0
		for _, match := range b.memory.Retrieve(chatID, prompt, b.cfg.MemoryLimit) {
			if match.MessageIndex >= windowStart {
				continue
			}
			if injected == b.cfg.MemoryInject {
				break
			}
			turns = append(turns, asTurn(match.Type, memoryContextPrefix+match.Content))
			injected++
		}
	}

	for _, msg := range recent {
		turns = append(turns, asTurn(msg.Type, msg.Content))
	}

	return append(turns, schema.UserMessage(prompt))
}

func asTurn(sender, content string) *schema.Message {
	if sender == chat.SenderUser {
		return schema.UserMessage(content)
	}
	return schema.AssistantMessage(content, nil)
}
