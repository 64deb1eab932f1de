package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrorMarker replaces the similarity value of a competitor that could not be compared.
const ErrorMarker = "Hata"

// AnalysisRequest is the body of POST /api/seo-analyze.
type AnalysisRequest struct {
	MyURL       string   `json:"my_url" validate:"required,http_url"`
	Competitors []string `json:"competitors" validate:"required"`
	Keyword     string   `json:"keyword"`
}

// ComparisonResult is the outcome of comparing the target page with one competitor.
// Exactly one of Similarity/Suggestion or Err is meaningful.
type ComparisonResult struct {
	URL        string
	Similarity float64
	Suggestion string
	Err        error

	// Page title and embedding of the competitor, kept for the archive only.
	Title     string
	Embedding []float32
}

// NewComparison builds a successful result. Similarity is rounded to three decimals.
func NewComparison(url string, similarity float64, suggestion string) ComparisonResult {
	return ComparisonResult{
		URL:        url,
		Similarity: math.Round(similarity*1000) / 1000,
		Suggestion: suggestion,
	}
}

// FailedComparison builds a result carrying the error marker.
func FailedComparison(url string, err error) ComparisonResult {
	return ComparisonResult{URL: url, Err: err}
}

// Failed reports whether the comparison could not be completed.
func (r ComparisonResult) Failed() bool {
	return r.Err != nil
}

type comparisonJSON struct {
	URL        string          `json:"url"`
	Similarity json.RawMessage `json:"similarity"`
	Suggestion string          `json:"suggestion"`
}

// MarshalJSON writes similarity as a number, or as ErrorMarker with the error text as suggestion.
func (r ComparisonResult) MarshalJSON() ([]byte, error) {
	out := comparisonJSON{URL: r.URL, Suggestion: r.Suggestion}
	if r.Err != nil {
		out.Similarity, _ = json.Marshal(ErrorMarker)
		out.Suggestion = r.Err.Error()
	} else {
		sim, err := json.Marshal(r.Similarity)
		if err != nil {
			return nil, fmt.Errorf("similarity for %s: %w", r.URL, err)
		}
		out.Similarity = sim
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the numeric and the error-marker form.
func (r *ComparisonResult) UnmarshalJSON(data []byte) error {
	var in comparisonJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = ComparisonResult{URL: in.URL, Suggestion: in.Suggestion}

	var marker string
	if err := json.Unmarshal(in.Similarity, &marker); err == nil {
		r.Err = errors.New(in.Suggestion)
		r.Suggestion = ""
		return nil
	}

	if err := json.Unmarshal(in.Similarity, &r.Similarity); err != nil {
		return fmt.Errorf("similarity for %s: %w", in.URL, err)
	}
	return nil
}

// AnalysisResponse is the body returned for one analysis request.
type AnalysisResponse struct {
	ID               string             `json:"id,omitempty"`
	Analysis         []ComparisonResult `json:"analysis"`
	KeywordExpansion string             `json:"keyword_expansion"`
	TargetError      string             `json:"target_error,omitempty"`

	// Target page data, kept for the archive only.
	TargetURL       string    `json:"-"`
	TargetTitle     string    `json:"-"`
	Keyword         string    `json:"-"`
	TargetEmbedding []float32 `json:"-"`
}
