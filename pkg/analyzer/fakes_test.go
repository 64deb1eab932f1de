package analyzer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/xhad/seogap/internal/models"
)

type fakeExtractor struct {
	pages  map[string]string
	titles map[string]string
	errs   map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (models.Document, error) {
	if err, ok := f.errs[url]; ok {
		return models.Document{URL: url}, err
	}
	text, ok := f.pages[url]
	if !ok {
		return models.Document{URL: url}, errors.New("no such page")
	}
	return models.Document{URL: url, Title: f.titles[url], Text: text}, nil
}

// fakeEmbedder maps page text to a fixed vector and fails on empty text like the real one.
type fakeEmbedder struct {
	vectors map[string][]float32
	errs    map[string]error
	mu      sync.Mutex
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if text == "" {
		return nil, errors.New("no text to embed")
	}
	if err, ok := f.errs[text]; ok {
		return nil, err
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return vec, nil
}

type fakeGap struct {
	calls   atomic.Int32
	err     error
	panicOn string
}

func (f *fakeGap) Analyze(_ context.Context, myText, competitorText, keyword string) (string, error) {
	f.calls.Add(1)
	if f.panicOn != "" && competitorText == f.panicOn {
		panic("boom")
	}
	if f.err != nil {
		return "", f.err
	}
	return "missing: " + competitorText, nil
}

type fakeKeywords struct {
	calls atomic.Int32
	reply string
}

func (f *fakeKeywords) Expand(_ context.Context, keyword string) string {
	f.calls.Add(1)
	if keyword == "" {
		return ""
	}
	return f.reply
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []*models.AnalysisResponse
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, resp *models.AnalysisResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, resp)
	return f.err
}

func (f *fakeRecorder) Close() {}
