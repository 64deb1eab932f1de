// Package analyzer compares a target page against competitor pages and asks an LLM
// to explain the content gaps.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/internal/types"
	"github.com/xhad/seogap/pkg/similarity"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSimilarityThreshold = 0.85
	DefaultConcurrency         = 4

	// TargetFailureFail aborts the request when the target page cannot be embedded.
	TargetFailureFail = "fail"
	// TargetFailureIsolate answers normally and marks every competitor as failed.
	TargetFailureIsolate = "isolate"
)

type Config struct {
	SimilarityThreshold float64
	Concurrency         int
	TargetFailure       string
}

// Deps are the collaborators of an Analyzer. Recorder and Logger are optional.
type Deps struct {
	Extractor types.TextExtractor
	Embedder  types.Embedder
	Gap       types.GapAnalyzer
	Keywords  types.KeywordExpander
	Recorder  types.Recorder
	Logger    *zap.Logger
}

// TargetError reports that the target page could not be extracted or embedded.
type TargetError struct {
	URL string
	Err error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target page %s: %v", e.URL, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

type Stage string

const (
	StageTarget     Stage = "target"
	StageCompetitor Stage = "competitor"
	StageKeyword    Stage = "keyword"
	StageDone       Stage = "done"
)

// Event is reported to a ProgressFunc as work finishes.
type Event struct {
	Stage      Stage
	URL        string
	Index      int
	Total      int
	Similarity float64
	Err        error
}

// ProgressFunc may be called concurrently from several goroutines.
type ProgressFunc func(Event)

type Analyzer struct {
	config Config
	deps   Deps
	log    *zap.Logger
}

func New(config Config, deps Deps) (*Analyzer, error) {
	if deps.Extractor == nil || deps.Embedder == nil || deps.Gap == nil || deps.Keywords == nil {
		return nil, errors.New("analyzer: extractor, embedder, gap analyzer and keyword expander are required")
	}
	if config.SimilarityThreshold == 0 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	switch config.TargetFailure {
	case "":
		config.TargetFailure = TargetFailureFail
	case TargetFailureFail, TargetFailureIsolate:
	default:
		return nil, fmt.Errorf("analyzer: unknown target failure policy %q", config.TargetFailure)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Analyzer{config: config, deps: deps, log: log}, nil
}

// Analyze runs the full comparison for one request. It returns a *TargetError only when
// the target page fails under the fail policy; competitor failures are reported inside
// the response.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest, progress ProgressFunc) (*models.AnalysisResponse, error) {
	start := time.Now()
	notify := func(e Event) {
		if progress != nil {
			progress(e)
		}
	}

	resp := &models.AnalysisResponse{
		ID:        uuid.NewString(),
		Analysis:  make([]models.ComparisonResult, len(req.Competitors)),
		TargetURL: req.MyURL,
		Keyword:   req.Keyword,
	}
	log := a.log.With(zap.String("analysis_id", resp.ID), zap.String("target", req.MyURL))

	kwCtx, cancelKeywords := context.WithCancel(ctx)
	defer cancelKeywords()
	expansion := make(chan string, 1)
	go func() {
		expansion <- a.deps.Keywords.Expand(kwCtx, req.Keyword)
	}()

	target, targetVec, err := a.embedPage(ctx, req.MyURL)
	notify(Event{Stage: StageTarget, URL: req.MyURL, Total: len(req.Competitors), Err: err})

	if err != nil {
		targetErr := &TargetError{URL: req.MyURL, Err: err}
		if a.config.TargetFailure == TargetFailureFail {
			log.Error("target page failed", zap.Error(err))
			return nil, targetErr
		}

		log.Warn("target page failed, isolating", zap.Error(err))
		resp.TargetError = targetErr.Error()
		for i, u := range req.Competitors {
			resp.Analysis[i] = models.FailedComparison(u, targetErr)
		}
	} else {
		resp.TargetTitle = target.Title
		resp.TargetEmbedding = targetVec
		a.compareAll(ctx, log, target.Text, targetVec, req, resp.Analysis, notify)
	}

	resp.KeywordExpansion = <-expansion
	notify(Event{Stage: StageKeyword, URL: req.MyURL, Total: len(req.Competitors)})

	if a.deps.Recorder != nil {
		if err := a.deps.Recorder.Record(ctx, resp); err != nil {
			log.Warn("failed to archive analysis", zap.Error(err))
		}
	}

	log.Info("analysis finished",
		zap.Int("competitors", len(req.Competitors)),
		zap.Int("failed", countFailed(resp.Analysis)),
		zap.Duration("took", time.Since(start)),
	)
	notify(Event{Stage: StageDone, URL: req.MyURL, Total: len(req.Competitors)})

	return resp, nil
}

func (a *Analyzer) compareAll(ctx context.Context, log *zap.Logger, myText string, target []float32,
	req models.AnalysisRequest, results []models.ComparisonResult, notify ProgressFunc) {

	var g errgroup.Group
	g.SetLimit(a.config.Concurrency)

	for i, u := range req.Competitors {
		i, u := i, u
		g.Go(func() error {
			res := a.compareIsolated(ctx, myText, target, u, req.Keyword)
			results[i] = res

			if res.Failed() {
				log.Warn("competitor failed", zap.String("url", u), zap.Error(res.Err))
			} else {
				log.Info("competitor compared",
					zap.String("url", u),
					zap.Float64("similarity", res.Similarity),
					zap.Bool("gap_analyzed", res.Suggestion != ""),
				)
			}
			notify(Event{
				Stage:      StageCompetitor,
				URL:        u,
				Index:      i,
				Total:      len(req.Competitors),
				Similarity: res.Similarity,
				Err:        res.Err,
			})
			return nil
		})
	}

	_ = g.Wait()
}

// compareIsolated keeps a panicking collaborator from taking down sibling comparisons.
func (a *Analyzer) compareIsolated(ctx context.Context, myText string, target []float32, url, keyword string) (res models.ComparisonResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.FailedComparison(url, fmt.Errorf("comparison panicked: %v", r))
		}
	}()
	return a.compare(ctx, myText, target, url, keyword)
}

func (a *Analyzer) compare(ctx context.Context, myText string, target []float32, url, keyword string) models.ComparisonResult {
	doc, vec, err := a.embedPage(ctx, url)
	if err != nil {
		return models.FailedComparison(url, err)
	}

	sim, err := similarity.Cosine(target, vec)
	if err != nil {
		return models.FailedComparison(url, err)
	}

	var suggestion string
	if similarity.Below(sim, a.config.SimilarityThreshold) {
		suggestion, err = a.deps.Gap.Analyze(ctx, myText, doc.Text, keyword)
		if err != nil {
			return models.FailedComparison(url, err)
		}
	}

	res := models.NewComparison(url, sim, suggestion)
	res.Title = doc.Title
	res.Embedding = vec
	return res
}

// embedPage extracts and embeds one page. A failed extraction degrades to empty text;
// its cause is kept in the error only if embedding then fails.
func (a *Analyzer) embedPage(ctx context.Context, url string) (models.Document, []float32, error) {
	doc, fetchErr := a.deps.Extractor.Extract(ctx, url)
	if fetchErr != nil {
		a.log.Warn("page extraction failed, using empty text", zap.String("url", url), zap.Error(fetchErr))
	}

	vec, err := a.deps.Embedder.Embed(ctx, doc.Text)
	if err != nil {
		if fetchErr != nil {
			return doc, nil, fmt.Errorf("%w: %w", err, fetchErr)
		}
		return doc, nil, err
	}
	return doc, vec, nil
}

func countFailed(results []models.ComparisonResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}
