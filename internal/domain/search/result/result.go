package result

import (
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

// Scored is a movie with the per-source scores it received.
// At least one of the scores is present.
type Scored struct {
	movie   movie.Movie
	lexical *float64
	vector  *float64
}

// NewLexical creates a hit produced by the full-text source.
func NewLexical(m movie.Movie, score float64) Scored {
	return Scored{movie: m, lexical: &score}
}

// NewVector creates a hit produced by the vector source.
func NewVector(m movie.Movie, similarity float64) Scored {
	return Scored{movie: m, vector: &similarity}
}

// New creates a hit carrying any combination of scores.
func New(m movie.Movie, lexical, vector *float64) (Scored, error) {
	if lexical == nil && vector == nil {
		return Scored{}, fmt.Errorf("%w: result %q has no score", domain.ErrValidation, m.ID())
	}
	return Scored{movie: m, lexical: copyScore(lexical), vector: copyScore(vector)}, nil
}

// Movie returns the matched movie.
func (s *Scored) Movie() movie.Movie { return s.movie }

// ID returns the movie identifier.
func (s *Scored) ID() string { return s.movie.ID() }

// LexicalScore returns the full-text relevance score, nil when the lexical source did not match.
func (s *Scored) LexicalScore() *float64 { return copyScore(s.lexical) }

// VectorScore returns the cosine similarity, nil when the vector source did not match.
func (s *Scored) VectorScore() *float64 { return copyScore(s.vector) }

// Ranked is a Scored result with its merged score.
type Ranked struct {
	Scored
	combined float64
}

// NewRanked attaches the combined score to a hit.
func NewRanked(s Scored, combined float64) Ranked {
	return Ranked{Scored: s, combined: combined}
}

// CombinedScore returns the weighted score used for ordering.
func (r *Ranked) CombinedScore() float64 { return r.combined }

func copyScore(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
