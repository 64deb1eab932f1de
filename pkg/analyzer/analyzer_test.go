package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/similarity"
)

const (
	target = "https://a.test/page"
	near   = "https://b.test/near"
	far    = "https://c.test/far"
	broken = "https://d.test/broken"
)

type fixture struct {
	extractor *fakeExtractor
	embedder  *fakeEmbedder
	gap       *fakeGap
	keywords  *fakeKeywords
	recorder  *fakeRecorder
}

func newFixture() *fixture {
	return &fixture{
		extractor: &fakeExtractor{
			pages: map[string]string{
				target: "target text",
				near:   "near text",
				far:    "far text",
			},
			errs: map[string]error{
				broken: errors.New("connection refused"),
			},
		},
		embedder: &fakeEmbedder{
			vectors: map[string][]float32{
				"target text": {1, 0, 0},
				"near text":   {1, 0.1, 0},
				"far text":    {0, 1, 0},
			},
		},
		gap:      &fakeGap{},
		keywords: &fakeKeywords{reply: "shoe ideas"},
		recorder: &fakeRecorder{},
	}
}

func (f *fixture) analyzer(t *testing.T, config Config) *Analyzer {
	t.Helper()
	a, err := New(config, Deps{
		Extractor: f.extractor,
		Embedder:  f.embedder,
		Gap:       f.gap,
		Keywords:  f.keywords,
		Recorder:  f.recorder,
	})
	require.NoError(t, err)
	return a
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)

	f := newFixture()
	_, err = New(Config{TargetFailure: "ignore"}, Deps{
		Extractor: f.extractor, Embedder: f.embedder, Gap: f.gap, Keywords: f.keywords,
	})
	assert.ErrorContains(t, err, "unknown target failure policy")

	a := f.analyzer(t, Config{})
	assert.Equal(t, DefaultSimilarityThreshold, a.config.SimilarityThreshold)
	assert.Equal(t, DefaultConcurrency, a.config.Concurrency)
	assert.Equal(t, TargetFailureFail, a.config.TargetFailure)
}

func TestAnalyzeThresholdGating(t *testing.T) {
	f := newFixture()
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{
		MyURL:       target,
		Competitors: []string{near, far},
		Keyword:     "shoes",
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Analysis, 2)

	nearRes := resp.Analysis[0]
	assert.Equal(t, near, nearRes.URL)
	assert.NoError(t, nearRes.Err)
	assert.Greater(t, nearRes.Similarity, DefaultSimilarityThreshold)
	assert.Empty(t, nearRes.Suggestion)

	farRes := resp.Analysis[1]
	assert.Equal(t, far, farRes.URL)
	assert.NoError(t, farRes.Err)
	assert.Equal(t, 0.0, farRes.Similarity)
	assert.Equal(t, "missing: far text", farRes.Suggestion)

	assert.Equal(t, int32(1), f.gap.calls.Load())
	assert.Equal(t, "shoe ideas", resp.KeywordExpansion)
	assert.Equal(t, int32(1), f.keywords.calls.Load())
	assert.NotEmpty(t, resp.ID)
}

func TestAnalyzeGapCalledOncePerBelowThresholdCompetitor(t *testing.T) {
	f := newFixture()
	a := f.analyzer(t, Config{SimilarityThreshold: 0.999})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{
		MyURL:       target,
		Competitors: []string{near, far, far},
	}, nil)
	require.NoError(t, err)

	for _, r := range resp.Analysis {
		assert.NotEmpty(t, r.Suggestion)
	}
	assert.Equal(t, int32(3), f.gap.calls.Load())
}

func TestAnalyzeIsolatesCompetitorFailure(t *testing.T) {
	f := newFixture()
	f.embedder.errs = map[string]error{"near text": errors.New("provider down")}
	a := f.analyzer(t, Config{Concurrency: 1})

	competitors := []string{far, broken, near, far}
	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{
		MyURL:       target,
		Competitors: competitors,
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Analysis, len(competitors))

	for i, u := range competitors {
		assert.Equal(t, u, resp.Analysis[i].URL)
	}

	assert.False(t, resp.Analysis[0].Failed())
	assert.True(t, resp.Analysis[1].Failed())
	assert.ErrorContains(t, resp.Analysis[1].Err, "connection refused")
	assert.True(t, resp.Analysis[2].Failed())
	assert.ErrorContains(t, resp.Analysis[2].Err, "provider down")
	assert.False(t, resp.Analysis[3].Failed())
	assert.Equal(t, "missing: far text", resp.Analysis[3].Suggestion)
}

func TestAnalyzeExactlyOneFailure(t *testing.T) {
	f := newFixture()
	a := f.analyzer(t, Config{Concurrency: 8})

	competitors := []string{far, near, broken, far, near}
	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: competitors}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Analysis, 5)

	assert.Equal(t, 1, countFailed(resp.Analysis))
	assert.True(t, resp.Analysis[2].Failed())
	for i, r := range resp.Analysis {
		assert.Equal(t, competitors[i], r.URL)
	}
}

func TestAnalyzeGapErrorAndPanic(t *testing.T) {
	f := newFixture()
	f.gap.err = errors.New("context length exceeded")
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{far, near}}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, resp.Analysis[0].Err, "context length exceeded")
	assert.False(t, resp.Analysis[1].Failed())

	f = newFixture()
	f.gap.panicOn = "far text"
	a = f.analyzer(t, Config{})

	resp, err = a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{far, near}}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, resp.Analysis[0].Err, "panicked")
	assert.False(t, resp.Analysis[1].Failed())
}

func TestAnalyzeZeroVectorCompetitor(t *testing.T) {
	f := newFixture()
	f.extractor.pages["https://z.test"] = "zero text"
	f.embedder.vectors["zero text"] = []float32{0, 0, 0}
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{"https://z.test"}}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Analysis[0].Failed())
	assert.Zero(t, f.gap.calls.Load())
}

func TestAnalyzeNonFiniteVectorCompetitor(t *testing.T) {
	f := newFixture()
	f.extractor.pages["https://n.test"] = "nan text"
	f.embedder.vectors["nan text"] = []float32{float32(math.NaN()), 1, 0}
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{near, "https://n.test"}}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Analysis[0].Failed())
	assert.True(t, resp.Analysis[1].Failed())
	assert.ErrorIs(t, resp.Analysis[1].Err, similarity.ErrNotFinite)

	_, err = json.Marshal(resp)
	assert.NoError(t, err)
}

func TestAnalyzeCarriesTitles(t *testing.T) {
	f := newFixture()
	f.extractor.titles = map[string]string{target: "Target Page", near: "Near Page"}
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{near}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Target Page", resp.TargetTitle)
	assert.Equal(t, "Near Page", resp.Analysis[0].Title)
}

func TestAnalyzeTargetFailurePolicies(t *testing.T) {
	f := newFixture()
	f.extractor.errs[target] = errors.New("timeout")
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{near}}, nil)
	require.Error(t, err)
	assert.Nil(t, resp)

	var targetErr *TargetError
	require.True(t, errors.As(err, &targetErr))
	assert.Equal(t, target, targetErr.URL)
	assert.ErrorContains(t, err, "timeout")
	assert.Empty(t, f.recorder.recorded)

	f = newFixture()
	f.extractor.errs[target] = errors.New("timeout")
	a = f.analyzer(t, Config{TargetFailure: TargetFailureIsolate})

	resp, err = a.Analyze(context.Background(), models.AnalysisRequest{
		MyURL:       target,
		Competitors: []string{near, far},
		Keyword:     "shoes",
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, resp.TargetError, "timeout")
	require.Len(t, resp.Analysis, 2)
	for _, r := range resp.Analysis {
		assert.True(t, r.Failed())
	}
	assert.Equal(t, "shoe ideas", resp.KeywordExpansion)
	assert.Zero(t, f.gap.calls.Load())
}

func TestAnalyzeEmptyCompetitors(t *testing.T) {
	f := newFixture()
	a := f.analyzer(t, Config{})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: []string{}, Keyword: "shoes"}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Analysis)
	assert.NotNil(t, resp.Analysis)
	assert.Equal(t, "shoe ideas", resp.KeywordExpansion)
}

func TestAnalyzeRecordsAndReportsProgress(t *testing.T) {
	f := newFixture()
	f.recorder.err = errors.New("db down")
	a := f.analyzer(t, Config{})

	var mu sync.Mutex
	stages := map[Stage]int{}
	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{
		MyURL:       target,
		Competitors: []string{near, far, broken},
	}, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		stages[e.Stage]++
		assert.Equal(t, 3, e.Total)
	})
	require.NoError(t, err, "archive failures must not fail the analysis")

	assert.Equal(t, 1, stages[StageTarget])
	assert.Equal(t, 3, stages[StageCompetitor])
	assert.Equal(t, 1, stages[StageKeyword])
	assert.Equal(t, 1, stages[StageDone])

	require.Len(t, f.recorder.recorded, 1)
	rec := f.recorder.recorded[0]
	assert.Same(t, resp, rec)
	assert.Equal(t, []float32{1, 0, 0}, rec.TargetEmbedding)
	assert.Equal(t, []float32{1, 0.1, 0}, rec.Analysis[0].Embedding)
}

func TestAnalyzeManyCompetitorsPreservesOrder(t *testing.T) {
	f := newFixture()
	var competitors []string
	for i := 0; i < 40; i++ {
		u := fmt.Sprintf("https://c%d.test", i)
		text := fmt.Sprintf("page %d", i)
		f.extractor.pages[u] = text
		f.embedder.vectors[text] = []float32{1, float32(i), 0}
		competitors = append(competitors, u)
	}
	a := f.analyzer(t, Config{Concurrency: 6})

	resp, err := a.Analyze(context.Background(), models.AnalysisRequest{MyURL: target, Competitors: competitors}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Analysis, 40)
	for i, r := range resp.Analysis {
		assert.Equal(t, competitors[i], r.URL)
		assert.False(t, r.Failed())
	}
}
