package types

import (
	"context"

	"github.com/xhad/seogap/internal/models"
)

// Core interfaces

// TextExtractor fetches a page and returns its visible text.
type TextExtractor interface {
	Extract(ctx context.Context, url string) (models.Document, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GapAnalyzer asks the LLM what the target page is missing compared to a competitor.
type GapAnalyzer interface {
	Analyze(ctx context.Context, myText, competitorText, keyword string) (string, error)
}

// KeywordExpander returns keyword suggestions, or a fallback message; it never fails.
type KeywordExpander interface {
	Expand(ctx context.Context, keyword string) string
}

// Recorder archives finished analyses.
type Recorder interface {
	Record(ctx context.Context, resp *models.AnalysisResponse) error
	Close()
}
