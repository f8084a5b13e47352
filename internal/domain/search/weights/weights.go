package weights

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
)

// Strategy selects how per-source scores are scaled before weighting.
type Strategy string

// Normalization strategies.
const (
	// None uses raw source scores.
	None Strategy = "none"
	// Max divides each source's scores by that source's max positive score.
	Max Strategy = "max"
)

// IsValid checks if the strategy is supported.
func (s Strategy) IsValid() bool {
	return s == None || s == Max
}

// Weights are the coefficients of the merge formula.
type Weights struct {
	Lexical   float64
	Vector    float64
	Normalize Strategy
}

// New validates weight coefficients. Empty strategy means None.
func New(lexical, vector float64, normalize Strategy) (Weights, error) {
	w := Weights{Lexical: lexical, Vector: vector, Normalize: normalize}
	if w.Normalize == "" {
		w.Normalize = None
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate checks that coefficients are finite and non-negative and the strategy is known.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"lexical": w.Lexical, "vector": w.Vector} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s weight must be a non-negative number, got %v", domain.ErrValidation, name, v)
		}
	}
	if w.Lexical == 0 && w.Vector == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", domain.ErrValidation)
	}
	if !w.Normalize.IsValid() {
		return fmt.Errorf("%w: unknown normalization %q", domain.ErrValidation, w.Normalize)
	}
	return nil
}

// Default returns the built-in weights for a merging mode.
// Hybrid favors full-text relevance, RAG favors plot similarity.
func Default(m mode.Mode) Weights {
	switch m {
	case mode.RAG:
		return Weights{Lexical: 0.4, Vector: 0.6, Normalize: None}
	default:
		return Weights{Lexical: 0.6, Vector: 0.4, Normalize: None}
	}
}
