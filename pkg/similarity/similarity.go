// Package similarity compares embedding vectors.
package similarity

import (
	"errors"
	"math"
)

var (
	// ErrZeroVector is returned when either vector has zero magnitude.
	ErrZeroVector = errors.New("similarity: zero-magnitude vector")
	// ErrDimensionMismatch is returned for empty vectors or vectors of different length.
	ErrDimensionMismatch = errors.New("similarity: vector dimensions differ")
	// ErrNotFinite is returned when a vector holds NaN or Inf components.
	ErrNotFinite = errors.New("similarity: vector is not finite")
)

// Cosine returns dot(a,b) / (|a| * |b|), clamped to [-1, 1].
// Accumulation is done in float64 so identical vectors score exactly 1.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0, ErrNotFinite
	}
	return math.Max(-1, math.Min(1, sim)), nil
}

// Below reports whether sim is strictly under threshold.
func Below(sim, threshold float64) bool {
	return sim < threshold
}
