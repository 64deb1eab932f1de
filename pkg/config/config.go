package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		AllowedOrigin  string        `yaml:"allowed_origin"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		RateLimit      float64       `yaml:"rate_limit"`
		RateBurst      int           `yaml:"rate_burst"`
	} `yaml:"server"`

	LLM struct {
		Provider       string  `yaml:"provider"`
		APIKey         string  `yaml:"api_key"`
		BaseURL        string  `yaml:"base_url"`
		ChatModel      string  `yaml:"chat_model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Scraper struct {
		Timeout      time.Duration `yaml:"timeout"`
		UserAgent    string        `yaml:"user_agent"`
		MaxBodyBytes int64         `yaml:"max_body_bytes"`
	} `yaml:"scraper"`

	Analysis struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		EmbedMaxChars       int     `yaml:"embed_max_chars"`
		PromptMaxChars      int     `yaml:"prompt_max_chars"`
		Concurrency         int     `yaml:"concurrency"`
		TargetFailure       string  `yaml:"target_failure"`
		Language            string  `yaml:"language"`
	} `yaml:"analysis"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"seogap.yaml",
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/seogap/config.yaml"),
			"/etc/seogap/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	if err := mergeWithEnv(&config); err != nil {
		return nil, err
	}

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	if err := mergeWithEnv(config); err != nil {
		return nil, err
	}
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 5000
	}
	if config.Server.AllowedOrigin == "" {
		config.Server.AllowedOrigin = "https://www.batuhandurmaz.com"
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 2 * time.Minute
	}
	if config.Server.RateBurst == 0 {
		config.Server.RateBurst = 5
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}

	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 10 * time.Second
	}
	if config.Scraper.MaxBodyBytes == 0 {
		config.Scraper.MaxBodyBytes = 5 << 20
	}

	if config.Analysis.SimilarityThreshold == 0 {
		config.Analysis.SimilarityThreshold = 0.85
	}
	if config.Analysis.EmbedMaxChars == 0 {
		config.Analysis.EmbedMaxChars = 4000
	}
	if config.Analysis.PromptMaxChars == 0 {
		config.Analysis.PromptMaxChars = 3000
	}
	if config.Analysis.Concurrency == 0 {
		config.Analysis.Concurrency = 4
	}
	if config.Analysis.TargetFailure == "" {
		config.Analysis.TargetFailure = "fail"
	}
	if config.Analysis.Language == "" {
		config.Analysis.Language = "en"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "seo_analyses"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
	}
}

func mergeWithEnv(config *Config) error {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if origin := os.Getenv("SEOGAP_ALLOWED_ORIGIN"); origin != "" {
		config.Server.AllowedOrigin = origin
	}
	if level := os.Getenv("SEOGAP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "****"
	}
	if c.Database.URL != "" {
		c.Database.URL = "****"
	}
	return c
}
