package search

import (
	"context"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// LexicalSource returns full-text matches scored by relevance.
type LexicalSource interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]result.Scored, error)
}

// VectorSource returns nearest plots scored by cosine similarity.
type VectorSource interface {
	SearchVector(ctx context.Context, vector []float32, limit int) ([]result.Scored, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Synthesizer turns ranked movies into a natural-language answer to the query.
type Synthesizer interface {
	Summarize(ctx context.Context, ranked []result.Ranked, query string) (string, error)
}
