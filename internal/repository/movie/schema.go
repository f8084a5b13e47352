package movie

import (
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// Hash field names of a stored movie.
const (
	FieldTitle     = "title"
	FieldPlot      = "plot"
	FieldFullPlot  = "fullplot"
	FieldEmbedding = "plot_embedding"
)

// TextFields are the fields the full-text index covers.
var TextFields = []string{FieldTitle, FieldPlot, FieldFullPlot}

// KeyPrefix is the key prefix of every movie hash.
const KeyPrefix = domain.KeyPrefix + "movie:"

// IndexName is the FT index over movie hashes.
const IndexName = domain.KeyPrefix + "movies:idx"

// Key returns the hash key of a movie.
func Key(id string) string {
	return KeyPrefix + id
}

// IDFromKey strips the movie key prefix.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}

// Schema tunes the movie index.
type Schema struct {
	Dimensions  int
	Distance    db.DistanceMetric
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
	// TitleWeight boosts title matches over plot matches; 0 keeps the default weight.
	TitleWeight float64
}

// DefaultSchema mirrors domain.DefaultVectorConfig.
func DefaultSchema() Schema {
	vc := domain.DefaultVectorConfig()
	return Schema{
		Dimensions:  vc.Dimensions,
		Distance:    db.DistanceCosine,
		Algorithm:   db.VectorHNSW,
		M:           16,
		EFConstruct: 200,
	}
}

// buildIndex creates the FT index definition for movie hashes.
func buildIndex(s Schema) (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName).Prefix(KeyPrefix)
	b = b.TextWeighted(FieldTitle, s.TitleWeight).Text(FieldPlot).Text(FieldFullPlot)

	b = b.Vector(FieldEmbedding, db.VectorSpec{
		Algorithm:   s.Algorithm,
		Dim:         s.Dimensions,
		Distance:    s.Distance,
		M:           s.M,
		EFConstruct: s.EFConstruct,
	})

	return b.Build() //nolint:wrapcheck // validation message is self-describing
}
