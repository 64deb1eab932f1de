package config

import (
	"fmt"
	"net/url"

	"github.com/xhad/seogap/pkg/analyzer"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Server.AllowedOrigin != "*" {
		if u, err := url.Parse(c.Server.AllowedOrigin); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "server.allowed_origin",
				Message: "allowed_origin must be an absolute origin or *",
			})
		}
	}

	if c.Server.RequestTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "server.request_timeout",
			Message: "request_timeout cannot be negative",
		})
	}

	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errors = append(errors, ValidationError{
			Field:   "server.rate_limit",
			Message: "rate_limit and rate_burst cannot be negative",
		})
	}

	// Validate LLM config
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.api_key",
				Message: "OPENAI_API_KEY is required for the openai provider",
			})
		}
	case "ollama":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	// Validate Scraper config
	if c.Scraper.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.timeout",
			Message: "timeout must be positive",
		})
	}

	// Validate Analysis config
	if c.Analysis.SimilarityThreshold < -1 || c.Analysis.SimilarityThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "analysis.similarity_threshold",
			Message: "similarity_threshold must be between -1 and 1",
		})
	}

	if c.Analysis.EmbedMaxChars < 1 || c.Analysis.PromptMaxChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "analysis.embed_max_chars",
			Message: "embed_max_chars and prompt_max_chars must be positive",
		})
	}

	if c.Analysis.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "analysis.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Analysis.TargetFailure != "fail" && c.Analysis.TargetFailure != "isolate" {
		errors = append(errors, ValidationError{
			Field:   "analysis.target_failure",
			Message: "target_failure must be fail or isolate",
		})
	}

	if !analyzer.SupportedLanguage(c.Analysis.Language) {
		errors = append(errors, ValidationError{
			Field:   "analysis.language",
			Message: fmt.Sprintf("unsupported language: %s", c.Analysis.Language),
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Logging config
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be json or console",
		})
	}

	return errors
}
