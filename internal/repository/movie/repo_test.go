package movie

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	dommovie "github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

func testMovie(t *testing.T, id string, emb []float32) dommovie.Movie {
	t.Helper()
	m, err := dommovie.New(id, "Title "+id, "A short plot.", "", emb, 4)
	if err != nil {
		t.Fatalf("movie.New: %v", err)
	}
	return m
}

func TestCreateIndex_Definition(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.schema.TitleWeight = 2

	var got *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}

	if err := repo.CreateIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != IndexName {
		t.Errorf("index name = %q, want %q", got.Name, IndexName)
	}
	if len(got.Prefixes) != 1 || got.Prefixes[0] != KeyPrefix {
		t.Errorf("prefixes = %v", got.Prefixes)
	}
	if len(got.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(got.Fields))
	}
	if got.Fields[0].Name != FieldTitle || got.Fields[0].Weight != 2 {
		t.Errorf("title field = %+v", got.Fields[0])
	}
	vec := got.Fields[3]
	if vec.Name != FieldEmbedding || vec.Vector == nil {
		t.Fatalf("vector field = %+v", vec)
	}
	if vec.Vector.Dim != 4 || vec.Vector.Distance != db.DistanceCosine {
		t.Errorf("vector spec = %+v", *vec.Vector)
	}
	if vec.Vector.Algorithm != db.VectorHNSW {
		t.Errorf("expected HNSW, got %q", vec.Vector.Algorithm)
	}
}

func TestCreateIndex_Flat(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.schema.Algorithm = db.VectorFlat

	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		if def.Fields[3].Vector.Algorithm != db.VectorFlat {
			t.Errorf("expected FLAT, got %q", def.Fields[3].Vector.Algorithm)
		}
		return nil
	}
	if err := repo.CreateIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }

	if err := repo.CreateIndex(context.Background()); !errors.Is(err, domain.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_InvalidSchema(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.schema.Dimensions = 0

	if err := repo.CreateIndex(context.Background()); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}

func TestDropIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotDD bool
	ms.dropIndexFn = func(_ context.Context, name string, deleteDocs bool) error {
		if name != IndexName {
			t.Errorf("unexpected index %q", name)
		}
		gotDD = deleteDocs
		return nil
	}
	if err := repo.DropIndex(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotDD {
		t.Error("expected DD flag to be forwarded")
	}

	ms.dropIndexFn = func(context.Context, string, bool) error { return db.ErrIndexNotFound }
	if err := repo.DropIndex(context.Background(), false); err != nil {
		t.Errorf("dropping a missing index must succeed, got %v", err)
	}
}

func TestUpsert_WritesHash(t *testing.T) {
	repo, ms := newTestRepo(t)
	m := testMovie(t, "tt0078748", []float32{1, 0, 0, 0})

	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != KeyPrefix+"tt0078748" {
			t.Errorf("unexpected key %q", key)
		}
		if fields[FieldTitle] != "Title tt0078748" {
			t.Errorf("unexpected title %q", fields[FieldTitle])
		}
		if _, ok := fields[FieldFullPlot]; ok {
			t.Error("empty full plot must be omitted")
		}
		if len(fields[FieldEmbedding]) != 16 {
			t.Errorf("expected 16-byte vector blob, got %d", len(fields[FieldEmbedding]))
		}
		return nil
	}

	if err := repo.Upsert(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsert_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	storeErr := &db.Error{Op: db.OpHSet, Err: errors.New("oom")}
	ms.hsetFn = func(context.Context, string, map[string]string) error { return storeErr }

	err := repo.Upsert(context.Background(), testMovie(t, "m1", nil))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestUpsertBatch(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		got = items
		return nil
	}

	movies := []dommovie.Movie{testMovie(t, "a", nil), testMovie(t, "b", nil)}
	if err := repo.UpsertBatch(context.Background(), movies); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Key != Key("b") {
		t.Errorf("unexpected items %+v", got)
	}

	if err := repo.UpsertBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch must be a no-op, got %v", err)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	m := testMovie(t, "m1", []float32{0.5, -0.5, 0.25, 1})
	stored := movieToHash(m)

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != Key("m1") {
			t.Errorf("unexpected key %q", key)
		}
		return stored, nil
	}

	got, err := repo.Get(context.Background(), "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title() != m.Title() || got.Plot() != m.Plot() {
		t.Errorf("unexpected movie %+v", got)
	}
	for i, v := range m.Embedding() {
		if got.Embedding()[i] != v {
			t.Fatalf("embedding[%d] = %v, want %v", i, got.Embedding()[i], v)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, store := newTestRepo(t)
	var deleted string
	store.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}
	if err := repo.Delete(context.Background(), "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != Key("m1") {
		t.Errorf("deleted %q, want %q", deleted, Key("m1"))
	}

	store.delFn = func(context.Context, string) error { return db.ErrKeyNotFound }
	if err := repo.Delete(context.Background(), "m1"); !errors.Is(err, domain.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestFromFields_BadEmbedding(t *testing.T) {
	_, err := FromFields("m1", map[string]string{FieldTitle: "t", FieldEmbedding: "abc"})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != IndexName || query != "*" {
			t.Errorf("unexpected count query %q %q", index, query)
		}
		return 1500, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1500 {
		t.Errorf("Count() = %d", n)
	}
}

func TestKeyHelpers(t *testing.T) {
	if IDFromKey(Key("abc")) != "abc" {
		t.Error("IDFromKey must invert Key")
	}
}
