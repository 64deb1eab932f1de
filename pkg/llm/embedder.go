package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/seogap/pkg/processor"
)

// DefaultMaxChars is the character budget applied to text before embedding.
const DefaultMaxChars = 4000

var (
	// ErrEmptyText is returned instead of calling the provider with no text.
	ErrEmptyText = errors.New("llm: no text to embed")
	// ErrNoEmbedding is returned when the provider answers with no vector.
	ErrNoEmbedding = errors.New("llm: provider returned no embedding")
)

type EmbedderConfig struct {
	MaxChars int
}

// Embedder turns a single text into a vector.
type Embedder struct {
	config EmbedderConfig
	client embeddings.EmbedderClient
}

func NewEmbedder(client embeddings.EmbedderClient, config EmbedderConfig) *Embedder {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultMaxChars
	}
	return &Embedder{
		config: config,
		client: client,
	}
}

// Embed collapses whitespace, truncates text to the configured budget and returns its embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	text = processor.Prepare(text, e.config.MaxChars)

	vectors, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	return FlattenEmbeddings(vectors)
}

// FlattenEmbeddings returns the single vector of a one-input embedding call.
func FlattenEmbeddings(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrNoEmbedding
	}
	return vectors[0], nil
}
