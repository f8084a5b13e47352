package catalog

import (
	"context"
	"sync"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

type mockRepo struct {
	mu          sync.Mutex
	movies      map[string]movie.Movie
	batches     int
	upsertErr   error
	createErr   error
	dropped     bool
	droppedDocs bool
	exists      bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{movies: map[string]movie.Movie{}}
}

func (m *mockRepo) CreateIndex(_ context.Context) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.exists = true
	return nil
}

func (m *mockRepo) DropIndex(_ context.Context, deleteDocs bool) error {
	m.dropped, m.droppedDocs, m.exists = true, deleteDocs, false
	return nil
}

func (m *mockRepo) IndexExists(_ context.Context) (bool, error) { return m.exists, nil }

func (m *mockRepo) UpsertBatch(_ context.Context, movies []movie.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.batches++
	for _, mv := range movies {
		m.movies[mv.ID()] = mv
	}
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (movie.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.movies[id]
	if !ok {
		return movie.Movie{}, domain.ErrMovieNotFound
	}
	return mv, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.movies, id)
	return nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.movies), nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
	vec   []float32
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 5}, nil
}
