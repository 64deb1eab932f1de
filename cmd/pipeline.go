package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/seogap/pkg/analyzer"
	cfgPkg "github.com/xhad/seogap/pkg/config"
	"github.com/xhad/seogap/pkg/llm"
	"github.com/xhad/seogap/pkg/scraper"
	"github.com/xhad/seogap/pkg/store"
	"go.uber.org/zap"
)

// loadConfig reads the config, applies command line overrides and validates the result.
func loadConfig(path string, overrides ...func(*cfgPkg.Config)) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

func newLogger(cfg *cfgPkg.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

type pipeline struct {
	analyzer *analyzer.Analyzer
	archive  *store.Archive
}

func (p *pipeline) Close() {
	if p.archive != nil {
		p.archive.Close()
	}
}

// buildPipeline wires the provider, scraper, prompts and the optional archive into an Analyzer.
func buildPipeline(ctx context.Context, cfg *cfgPkg.Config, log *zap.Logger) (*pipeline, error) {
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	language := cfg.Analysis.Language
	chat, err := llm.NewChatEngine(provider.Chat, llm.ChatConfig{
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		SystemTemplate: analyzer.SystemPrompt(language),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	deps := analyzer.Deps{
		Extractor: scraper.NewWithConfig(scraper.ScraperConfig{
			Timeout:      cfg.Scraper.Timeout,
			UserAgent:    cfg.Scraper.UserAgent,
			MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
			Logger:       log.Named("scraper"),
		}),
		Embedder: llm.NewEmbedder(provider.Embedding, llm.EmbedderConfig{MaxChars: cfg.Analysis.EmbedMaxChars}),
		Gap:      analyzer.NewGapAnalyzer(chat, cfg.Analysis.PromptMaxChars, language),
		Keywords: analyzer.NewKeywordExpander(chat, language, log.Named("keywords")),
		Logger:   log.Named("analyzer"),
	}

	p := &pipeline{}
	if cfg.Database.URL != "" {
		archive, err := store.NewWithConfig(ctx, store.ArchiveConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
			Logger:     log.Named("archive"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		p.archive = archive
		deps.Recorder = archive
	}

	a, err := analyzer.New(analyzer.Config{
		SimilarityThreshold: cfg.Analysis.SimilarityThreshold,
		Concurrency:         cfg.Analysis.Concurrency,
		TargetFailure:       cfg.Analysis.TargetFailure,
	}, deps)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.analyzer = a

	return p, nil
}
