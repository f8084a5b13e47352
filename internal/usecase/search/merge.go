package search

import (
	"sort"

	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/weights"
)

// Merge unions lexical and vector hits by movie ID and ranks them by
// combined = w.Lexical*lexical + w.Vector*vector, where a missing score counts as 0.
// Lexical hits are scanned first, so ties keep lexical-then-vector first-seen order.
// Reported per-source scores stay raw even when normalization is enabled.
func Merge(lexical, vector []result.Scored, w weights.Weights, limit int) []result.Ranked {
	type entry struct {
		movie   movie.Movie
		lexical *float64
		vector  *float64
	}

	entries := make([]*entry, 0, len(lexical)+len(vector))
	byID := make(map[string]*entry, len(lexical)+len(vector))

	for i := range lexical {
		id := lexical[i].ID()
		if e, ok := byID[id]; ok {
			if e.lexical == nil {
				e.lexical = lexical[i].LexicalScore()
			}
			continue
		}
		e := &entry{movie: lexical[i].Movie(), lexical: lexical[i].LexicalScore()}
		byID[id] = e
		entries = append(entries, e)
	}
	for i := range vector {
		id := vector[i].ID()
		if e, ok := byID[id]; ok {
			if e.vector == nil {
				e.vector = vector[i].VectorScore()
			}
			continue
		}
		e := &entry{movie: vector[i].Movie(), vector: vector[i].VectorScore()}
		byID[id] = e
		entries = append(entries, e)
	}

	lexScale, vecScale := 1.0, 1.0
	if w.Normalize == weights.Max {
		lexScale = maxScale(lexical, (*result.Scored).LexicalScore)
		vecScale = maxScale(vector, (*result.Scored).VectorScore)
	}

	ranked := make([]result.Ranked, 0, len(entries))
	for _, e := range entries {
		combined := w.Lexical*valueOrZero(e.lexical)/lexScale + w.Vector*valueOrZero(e.vector)/vecScale
		s, err := result.New(e.movie, e.lexical, e.vector)
		if err != nil {
			// unreachable: every entry is created from a scored hit
			continue
		}
		ranked = append(ranked, result.NewRanked(s, combined))
	}

	return sortAndTruncate(ranked, limit)
}

// RankLexical ranks lexical hits by their own score, used when no vector scores are requested.
func RankLexical(lexical []result.Scored, limit int) []result.Ranked {
	seen := make(map[string]struct{}, len(lexical))
	ranked := make([]result.Ranked, 0, len(lexical))
	for i := range lexical {
		if _, ok := seen[lexical[i].ID()]; ok {
			continue
		}
		seen[lexical[i].ID()] = struct{}{}
		ranked = append(ranked, result.NewRanked(lexical[i], valueOrZero(lexical[i].LexicalScore())))
	}
	return sortAndTruncate(ranked, limit)
}

func sortAndTruncate(ranked []result.Ranked, limit int) []result.Ranked {
	if limit <= 0 {
		limit = request.DefaultLimit
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore() > ranked[j].CombinedScore()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// maxScale returns the largest positive score of a source, or 1 when there is none.
func maxScale(hits []result.Scored, score func(*result.Scored) *float64) float64 {
	best := 0.0
	for i := range hits {
		if v := score(&hits[i]); v != nil && *v > best {
			best = *v
		}
	}
	if best == 0 {
		return 1
	}
	return best
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
