package movie

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/moviesearch/internal/domain/similarity"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Field limits.
const (
	MaxIDLength    = 128
	MaxTitleLength = 1024
	MaxPlotSize    = 65536
)

// Movie is a read-only snapshot of a catalog entry.
type Movie struct {
	id        string
	title     string
	plot      string
	fullPlot  string
	embedding []float32
}

// New validates and creates a Movie. dim is the deployment embedding dimensionality;
// the embedding may be empty (it is filled by ingestion), but when present it must be
// usable for cosine ranking.
func New(id, title, plot, fullPlot string, embedding []float32, dim int) (Movie, error) {
	if id == "" {
		return Movie{}, fmt.Errorf("movie ID is required")
	}
	if len(id) > MaxIDLength {
		return Movie{}, fmt.Errorf("movie ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Movie{}, fmt.Errorf("movie ID must be alphanumeric with underscores and hyphens")
	}
	if title == "" {
		return Movie{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return Movie{}, fmt.Errorf("title too long (max %d bytes)", MaxTitleLength)
	}
	if len(plot) > MaxPlotSize || len(fullPlot) > MaxPlotSize {
		return Movie{}, fmt.Errorf("plot too large (max %d bytes)", MaxPlotSize)
	}
	if len(embedding) > 0 {
		if err := similarity.Validate(embedding, dim); err != nil {
			return Movie{}, fmt.Errorf("plot embedding: %w", err)
		}
	}

	return Movie{
		id:        id,
		title:     title,
		plot:      plot,
		fullPlot:  fullPlot,
		embedding: cloneVector(embedding),
	}, nil
}

// Reconstruct creates a Movie without validation (storage hydration).
func Reconstruct(id, title, plot, fullPlot string, embedding []float32) Movie {
	return Movie{id: id, title: title, plot: plot, fullPlot: fullPlot, embedding: embedding}
}

// ID returns the movie identifier.
func (m *Movie) ID() string { return m.id }

// Title returns the movie title.
func (m *Movie) Title() string { return m.title }

// Plot returns the short plot (may be empty).
func (m *Movie) Plot() string { return m.plot }

// FullPlot returns the long plot (may be empty).
func (m *Movie) FullPlot() string { return m.fullPlot }

// Embedding returns the plot embedding vector (may be nil).
func (m *Movie) Embedding() []float32 { return m.embedding }

// EmbeddingText returns the text the plot embedding is computed from:
// the short plot, falling back to the full plot and then the title.
func (m *Movie) EmbeddingText() string {
	switch {
	case m.plot != "":
		return m.plot
	case m.fullPlot != "":
		return m.fullPlot
	default:
		return m.title
	}
}

// WithEmbedding returns a copy of the movie carrying the given embedding.
func (m *Movie) WithEmbedding(embedding []float32) Movie {
	c := *m
	c.embedding = cloneVector(embedding)
	return c
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
