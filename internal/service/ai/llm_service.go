// Package ai wraps an eino chat chain over the local Ollama daemon. It is
// the chat-completion token source of the system: given a model name and an
// ordered list of role/content turns it produces a stream of response
// fragments, without requiring the full response upfront.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"

	"github.com/synpt/backend/internal/config"
)

// Service drives the configured chat model.
type Service struct {
	chatModel model.ChatModel
	cfg       config.OllamaConfig
	chain     compose.Runnable[[]*schema.Message, *schema.Message]
}

// NewService creates the chat model and compiles it into a runnable chain.
func NewService(ctx context.Context, cfg config.OllamaConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled reports whether streamed output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Generate runs the chain to completion for the given turns. The chat's own
// model name overrides the configured default when non-empty.
func (s *Service) Generate(ctx context.Context, modelName string, turns []*schema.Message) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, turns, chainOptions(modelName)...)
	if err != nil {
		return nil, fmt.Errorf("failed to run chat chain: %w", err)
	}
	return response, nil
}

// Stream yields response fragments for the given turns as they are
// generated.
func (s *Service) Stream(ctx context.Context, modelName string, turns []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chain.Stream(ctx, turns, chainOptions(modelName)...)
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}
	return stream, nil
}

func chainOptions(modelName string) []compose.Option {
	if modelName == "" {
		return nil
	}
	return []compose.Option{compose.WithChatModelOption(model.WithModel(modelName))}
}

// ListModels enumerates the models installed on the local daemon.
func (s *Service) ListModels(ctx context.Context) (*api.ListResponse, error) {
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}

	client := api.NewClient(base, http.DefaultClient)
	models, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ollama models: %w", err)
	}
	return models, nil
}
