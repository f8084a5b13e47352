package search

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/repository/movie"
)

// --- SearchLexical ---

func TestSearchLexical_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t, Options{})

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != movie.IndexName {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if !reflect.DeepEqual(q.Terms, []string{"space", "cowboys"}) {
			t.Errorf("unexpected terms: %v", q.Terms)
		}
		if q.TopK != 10 {
			t.Errorf("unexpected TopK: %d", q.TopK)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:   movie.Key("m1"),
					Score: 3.2,
					Fields: map[string]string{
						movie.FieldTitle: "Space Cowboys",
						movie.FieldPlot:  "Retired pilots go to space.",
					},
				},
				{
					Key:    movie.Key("m2"),
					Score:  1.1,
					Fields: map[string]string{movie.FieldTitle: "Cowboys & Aliens"},
				},
			},
		}, nil
	}

	hits, err := repo.SearchLexical(context.Background(), "Space, cowboys!", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "m1" {
		t.Errorf("expected ID m1, got %s", hits[0].ID())
	}
	m := hits[0].Movie()
	if m.Title() != "Space Cowboys" || m.Plot() != "Retired pilots go to space." {
		t.Errorf("unexpected movie %+v", m)
	}
	if *hits[0].LexicalScore() != 3.2 {
		t.Errorf("expected score 3.2, got %v", *hits[0].LexicalScore())
	}
	if hits[0].VectorScore() != nil {
		t.Error("lexical hit must not carry a vector score")
	}
}

func TestSearchLexical_NoTerms(t *testing.T) {
	repo, ms := newTestRepo(t, Options{})

	hits, err := repo.SearchLexical(context.Background(), "?!  ...", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("expected empty non-nil hits, got %v", hits)
	}
	if ms.textCalls != 0 {
		t.Error("store must not be queried without terms")
	}
}

func TestSearchLexical_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t, Options{})
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}
	}

	_, err := repo.SearchLexical(context.Background(), "heat", 10)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Error("expected db.Error in chain")
	}
}

// --- SearchVector ---

func TestSearchVector_ConvertsDistance(t *testing.T) {
	repo, ms := newTestRepo(t, Options{EFRuntime: 64})

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.VectorField != movie.FieldEmbedding {
			t.Errorf("unexpected vector field %q", q.VectorField)
		}
		if q.K != 5 || q.EFRuntime != 64 {
			t.Errorf("unexpected K %d / EF %d", q.K, q.EFRuntime)
		}
		for _, f := range q.ReturnFields {
			if f == movie.FieldEmbedding {
				t.Error("embedding must not be fetched without exact rescore")
			}
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: movie.Key("m1"), Score: 0.2, Fields: map[string]string{movie.FieldTitle: "Alien"}},
				{Key: movie.Key("m2"), Score: 1.5, Fields: map[string]string{movie.FieldTitle: "Heat"}},
			},
		}, nil
	}

	hits, err := repo.SearchVector(context.Background(), testVector(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if got := *hits[0].VectorScore(); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("expected similarity 0.8, got %v", got)
	}
	if got := *hits[1].VectorScore(); math.Abs(got-(-0.5)) > 1e-9 {
		t.Errorf("expected negative similarity -0.5 to pass through, got %v", got)
	}
	if hits[0].LexicalScore() != nil {
		t.Error("vector hit must not carry a lexical score")
	}
}

func TestSearchVector_L2Distance(t *testing.T) {
	repo, ms := newTestRepo(t, Options{Distance: db.DistanceL2})
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: movie.Key("m1"), Score: 1, Fields: map[string]string{movie.FieldTitle: "t"}},
		}}, nil
	}

	hits, err := repo.SearchVector(context.Background(), testVector(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *hits[0].VectorScore() != 0.5 {
		t.Errorf("expected 0.5, got %v", *hits[0].VectorScore())
	}
}

func TestSearchVector_DimensionMismatch(t *testing.T) {
	repo, _ := newTestRepo(t, Options{Dimensions: 4})

	_, err := repo.SearchVector(context.Background(), []float32{1, 2, 3}, 5)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearchVector_ZeroVector(t *testing.T) {
	repo, _ := newTestRepo(t, Options{})

	_, err := repo.SearchVector(context.Background(), []float32{0, 0, 0, 0}, 5)
	if !errors.Is(err, domain.ErrInvalidVector) {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestSearchVector_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t, Options{})
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("timeout")
	}

	_, err := repo.SearchVector(context.Background(), testVector(), 5)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchVector_ExactRescore(t *testing.T) {
	repo, ms := newTestRepo(t, Options{ExactRescore: true})
	query := []float32{1, 0, 0, 0}

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		found := false
		for _, f := range q.ReturnFields {
			if f == movie.FieldEmbedding {
				found = true
			}
		}
		if !found {
			t.Error("exact rescore needs stored embeddings")
		}
		// Approximate scores rank m1 first; exact cosine ranks m2 first.
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: movie.Key("m1"), Score: 0.01, Fields: map[string]string{
				movie.FieldTitle:     "near-ish",
				movie.FieldEmbedding: db.EncodeVector([]float32{0, 1, 0, 0}),
			}},
			{Key: movie.Key("m2"), Score: 0.02, Fields: map[string]string{
				movie.FieldTitle:     "exact",
				movie.FieldEmbedding: db.EncodeVector([]float32{2, 0, 0, 0}),
			}},
		}}, nil
	}

	hits, err := repo.SearchVector(context.Background(), query, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].ID() != "m2" || *hits[0].VectorScore() != 1 {
		t.Errorf("expected m2 with similarity 1 first, got %s %v", hits[0].ID(), *hits[0].VectorScore())
	}
	if *hits[1].VectorScore() != 0 {
		t.Errorf("expected orthogonal similarity 0, got %v", *hits[1].VectorScore())
	}
	m := hits[0].Movie()
	if m.Embedding() != nil {
		t.Error("embeddings must not leak into results")
	}
}

// --- Terms ---

func TestTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Space Cowboys", []string{"space", "cowboys"}},
		{"sci-fi, sci-fi!", []string{"sci", "fi"}},
		{"  ", []string{}},
		{"Amélie 2001", []string{"amélie", "2001"}},
	}
	for _, tc := range tests {
		if got := Terms(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Terms(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
