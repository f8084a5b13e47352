// Package similarity holds the vector similarity primitives used for ranking.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// Cosine returns dot(a,b) / (|a|*|b|).
// Vectors must have equal non-zero length and non-zero magnitude: a zero vector has no
// direction, so ErrInvalidVector is returned instead of NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vector", domain.ErrInvalidVector)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: zero magnitude", domain.ErrInvalidVector)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push |sim| slightly past 1 for (anti)parallel vectors.
	return math.Max(-1, math.Min(1, sim)), nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Validate checks that v is usable for cosine ranking in a deployment of dimensionality dim.
// dim <= 0 skips the length check.
func Validate(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidVector)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrVectorDimMismatch, dim, len(v))
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("%w: non-finite component at %d", domain.ErrInvalidVector, i)
		}
	}
	if Magnitude(v) == 0 {
		return fmt.Errorf("%w: zero magnitude", domain.ErrInvalidVector)
	}
	return nil
}
