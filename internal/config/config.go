package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Context ContextConfig
	Storage StorageConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ollamaCfg, err := loadOllamaConfig()
	if err != nil {
		return nil, err
	}

	contextCfg, err := loadContextConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Ollama:  ollamaCfg,
		Context: contextCfg,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8000" or "127.0.0.1:8000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OllamaConfig describes the local model daemon.
type OllamaConfig struct {
	BaseURL        string
	Model          string
	Temperature    float64
	StreamResponse bool
}

// NewChatModel builds the eino chat model bound to the local Ollama daemon.
// Temperature defaults to 0 so repeated generations stay deterministic.
func (c OllamaConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	temperature := float32(c.Temperature)
	return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Options: &api.Options{
			Temperature: temperature,
		},
	})
}

func loadOllamaConfig() (OllamaConfig, error) {
	temperature, err := parseOptionalFloatEnv("OLLAMA_TEMPERATURE")
	if err != nil {
		return OllamaConfig{}, err
	}

	stream, err := parseBoolEnv("OLLAMA_STREAM", true)
	if err != nil {
		return OllamaConfig{}, err
	}

	cfg := OllamaConfig{
		BaseURL:        getEnvOrDefault("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		Model:          strings.TrimSpace(os.Getenv("OLLAMA_MODEL")),
		Temperature:    0,
		StreamResponse: stream,
	}
	if temperature != nil {
		cfg.Temperature = *temperature
	}
	return cfg, nil
}

// ContextConfig bounds how much history is sent back to the model: the
// recent-message window plus the keyword-memory retrieval limits.
type ContextConfig struct {
	// RecentWindow is the number of most recent messages included verbatim.
	RecentWindow int
	// MemoryLimit caps how many relevant memories retrieval may return.
	MemoryLimit int
	// MemoryInject caps how many retrieved memories are injected as turns.
	MemoryInject int
	// MinKeywordMatches is the minimum keyword overlap considered relevant.
	MinKeywordMatches int
}

func loadContextConfig() (ContextConfig, error) {
	cfg := ContextConfig{
		RecentWindow:      15,
		MemoryLimit:       5,
		MemoryInject:      3,
		MinKeywordMatches: 2,
	}

	overrides := []struct {
		key    string
		target *int
	}{
		{"CONTEXT_RECENT_WINDOW", &cfg.RecentWindow},
		{"MEMORY_SEARCH_LIMIT", &cfg.MemoryLimit},
		{"CONTEXT_MEMORY_INJECT", &cfg.MemoryInject},
		{"MEMORY_MIN_MATCHES", &cfg.MinKeywordMatches},
	}
	for _, o := range overrides {
		val, err := parseOptionalIntEnv(o.key)
		if err != nil {
			return ContextConfig{}, err
		}
		if val != nil {
			if *val < 1 {
				return ContextConfig{}, fmt.Errorf("invalid %s value %d: must be positive", o.key, *val)
			}
			*o.target = *val
		}
	}

	return cfg, nil
}

// StorageConfig locates the chat database.
type StorageConfig struct {
	Path string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{Path: getEnvOrDefault("DB_PATH", "synpt.db")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
