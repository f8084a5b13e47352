package catalog

import (
	"context"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

// Repository is the consumer interface for movie storage.
type Repository interface {
	CreateIndex(ctx context.Context) error
	DropIndex(ctx context.Context, deleteDocs bool) error
	IndexExists(ctx context.Context) (bool, error)
	UpsertBatch(ctx context.Context, movies []movie.Movie) error
	Get(ctx context.Context, id string) (movie.Movie, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes plots that arrive without an embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
