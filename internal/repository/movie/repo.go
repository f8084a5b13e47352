package movie

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	dommovie "github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

// store is the consumer interface for movie storage (ISP).
//
//nolint:interfacebloat // movie repo needs hash + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores movies as hashes covered by a single FT index.
type Repo struct {
	store  store
	schema Schema
}

// New creates a movie repository.
func New(s store, schema Schema) *Repo {
	return &Repo{store: s, schema: schema}
}

// CreateIndex creates the movie index. Existing hashes under the prefix are indexed in the background.
func (r *Repo) CreateIndex(ctx context.Context) error {
	def, err := buildIndex(r.schema)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return domain.ErrIndexExists
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// DropIndex removes the movie index; deleteDocs also deletes every movie hash.
// Dropping a missing index is not an error.
func (r *Repo) DropIndex(ctx context.Context, deleteDocs bool) error {
	if err := r.store.DropIndex(ctx, IndexName, deleteDocs); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// IndexExists reports whether the movie index has been created.
func (r *Repo) IndexExists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("index exists: %w", err)
	}
	return ok, nil
}

// Upsert stores a movie, replacing the fields of an existing one.
func (r *Repo) Upsert(ctx context.Context, m dommovie.Movie) error {
	if err := r.store.HSet(ctx, Key(m.ID()), movieToHash(m)); err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.ID(), err)
	}
	return nil
}

// UpsertBatch stores movies in one pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, movies []dommovie.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(movies))
	for i, m := range movies {
		items[i] = db.HashSetItem{Key: Key(m.ID()), Fields: movieToHash(m)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d movies: %w", len(movies), err)
	}
	return nil
}

// Get loads a movie by ID.
func (r *Repo) Get(ctx context.Context, id string) (dommovie.Movie, error) {
	fields, err := r.store.HGetAll(ctx, Key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dommovie.Movie{}, domain.ErrMovieNotFound
		}
		return dommovie.Movie{}, fmt.Errorf("get movie %s: %w", id, err)
	}
	return FromFields(id, fields)
}

// Delete removes a movie. A missing movie yields domain.ErrMovieNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, Key(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrMovieNotFound
		}
		return fmt.Errorf("delete movie %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed movies.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, "*")
	if err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}
