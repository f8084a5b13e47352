package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/domain/similarity"
	"github.com/kailas-cloud/moviesearch/internal/repository/movie"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Options tunes the vector source.
type Options struct {
	// Dimensions is the deployment embedding size; query vectors must match it.
	Dimensions int
	// Distance is the index metric, used to turn __vector_score into a similarity.
	Distance db.DistanceMetric
	// EFRuntime overrides the HNSW query-time candidate list when > 0.
	EFRuntime int
	// ExactRescore recomputes cosine similarity from stored embeddings,
	// replacing the approximate index score.
	ExactRescore bool
}

// Repo serves lexical and vector searches over the movie index.
// It implements usecase/search.LexicalSource and usecase/search.VectorSource.
type Repo struct {
	store store
	opts  Options
}

// New creates a search repository.
func New(s store, opts Options) *Repo {
	if opts.Distance == "" {
		opts.Distance = db.DistanceCosine
	}
	return &Repo{store: s, opts: opts}
}

var movieFields = []string{movie.FieldTitle, movie.FieldPlot, movie.FieldFullPlot}

// SearchLexical matches movies containing any query term in title or plots, scored by BM25.
// A query without searchable terms matches nothing.
func (r *Repo) SearchLexical(ctx context.Context, query string, limit int) ([]result.Scored, error) {
	terms := Terms(query)
	if len(terms) == 0 {
		return []result.Scored{}, nil
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    movie.IndexName,
		Terms:        terms,
		TopK:         limit,
		ReturnFields: movieFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search text: %w", domain.ErrSourceUnavailable, err)
	}

	out := make([]result.Scored, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		m, err := movie.FromFields(movie.IDFromKey(e.Key), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		out = append(out, result.NewLexical(m, e.Score))
	}
	return out, nil
}

// SearchVector returns the movies whose plot embedding is nearest to vector, scored by similarity.
func (r *Repo) SearchVector(ctx context.Context, vector []float32, limit int) ([]result.Scored, error) {
	if err := similarity.Validate(vector, r.opts.Dimensions); err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}

	fields := movieFields
	if r.opts.ExactRescore {
		fields = append(append([]string{}, movieFields...), movie.FieldEmbedding)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    movie.IndexName,
		VectorField:  movie.FieldEmbedding,
		Vector:       vector,
		K:            limit,
		ReturnFields: fields,
		EFRuntime:    r.opts.EFRuntime,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search knn: %w", domain.ErrSourceUnavailable, err)
	}

	out := make([]result.Scored, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		m, err := movie.FromFields(movie.IDFromKey(e.Key), e.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		sim := r.similarity(e.Score)
		if r.opts.ExactRescore && len(m.Embedding()) > 0 {
			if exact, err := similarity.Cosine(vector, m.Embedding()); err == nil {
				sim = exact
			}
		}
		out = append(out, result.NewVector(m.WithEmbedding(nil), sim))
	}

	if r.opts.ExactRescore {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].VectorScore() > *out[j].VectorScore()
		})
	}
	return out, nil
}

// similarity converts a raw __vector_score distance to a higher-is-better score.
func (r *Repo) similarity(distance float64) float64 {
	switch r.opts.Distance {
	case db.DistanceL2:
		return 1 / (1 + distance)
	default:
		// COSINE and IP distances are both 1 - <a,b>.
		return 1 - distance
	}
}

// Terms splits a query into lowercase words, dropping punctuation and duplicates.
func Terms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}
