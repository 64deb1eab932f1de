package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultOpenAIChatModel      = "gpt-4"
	DefaultOpenAIEmbeddingModel = "text-embedding-ada-002"
	DefaultOllamaChatModel      = "mistral"
	DefaultOllamaEmbeddingModel = "nomic-embed-text:latest"
	DefaultOllamaURL            = "http://localhost:11434"
)

// ProviderConfig selects and configures the model backend.
type ProviderConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

// Provider holds the chat model and the embedding client of one backend.
type Provider struct {
	Chat      llms.Model
	Embedding embeddings.EmbedderClient
}

// NewProvider builds langchaingo clients for the configured backend.
func NewProvider(config ProviderConfig) (*Provider, error) {
	switch config.Provider {
	case ProviderOpenAI, "":
		return newOpenAIProvider(config)
	case ProviderOllama:
		return newOllamaProvider(config)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.Provider)
	}
}

func newOpenAIProvider(config ProviderConfig) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI")
	}
	if config.ChatModel == "" {
		config.ChatModel = DefaultOpenAIChatModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultOpenAIEmbeddingModel
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return &Provider{Chat: client, Embedding: client}, nil
}

func newOllamaProvider(config ProviderConfig) (*Provider, error) {
	if config.ChatModel == "" {
		config.ChatModel = DefaultOllamaChatModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultOllamaEmbeddingModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultOllamaURL
	}

	chat, err := ollama.New(ollama.WithModel(config.ChatModel),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	emb, err := ollama.New(ollama.WithModel(config.EmbeddingModel),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Provider{Chat: chat, Embedding: emb}, nil
}
