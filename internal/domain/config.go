package domain

// KeyPrefix namespaces every key the service writes to the store.
const KeyPrefix = "moviesearch:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	Algorithm      string
}

// DefaultVectorConfig returns the defaults matching the sample_mflix embedded_movies dataset,
// whose plot_embedding field was produced by text-embedding-ada-002.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-ada-002",
		Dimensions:     1536,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
