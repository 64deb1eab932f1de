package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// ErrNoChoices is returned when the model answers without any choice.
var ErrNoChoices = errors.New("llm: response has no choices")

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
}

// ChatEngine sends single-turn prompts to a chat model.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewChatEngine creates a ChatEngine over model, filling config defaults.
func NewChatEngine(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// Complete sends prompt as a user message and returns the first choice's text.
func (ce *ChatEngine) Complete(ctx context.Context, prompt string) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if ce.config.SystemTemplate != "" {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate))
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
