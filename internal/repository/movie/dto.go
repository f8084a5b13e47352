package movie

import (
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/db"
	dommovie "github.com/kailas-cloud/moviesearch/internal/domain/movie"
)

// movieToHash converts a Movie to HSET fields. Empty optional fields are omitted;
// a movie without an embedding is stored but never returned by KNN queries.
func movieToHash(m dommovie.Movie) map[string]string {
	h := map[string]string{FieldTitle: m.Title()}
	if m.Plot() != "" {
		h[FieldPlot] = m.Plot()
	}
	if m.FullPlot() != "" {
		h[FieldFullPlot] = m.FullPlot()
	}
	if len(m.Embedding()) > 0 {
		h[FieldEmbedding] = db.EncodeVector(m.Embedding())
	}
	return h
}

// FromFields hydrates a Movie from hash fields returned by HGETALL or FT.SEARCH.
// The embedding is decoded only when present in fields.
func FromFields(id string, fields map[string]string) (dommovie.Movie, error) {
	var emb []float32
	if blob, ok := fields[FieldEmbedding]; ok && blob != "" {
		v, err := db.DecodeVector(blob)
		if err != nil {
			return dommovie.Movie{}, fmt.Errorf("decode embedding of %s: %w", id, err)
		}
		emb = v
	}
	return dommovie.Reconstruct(id, fields[FieldTitle], fields[FieldPlot], fields[FieldFullPlot], emb), nil
}
