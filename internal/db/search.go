package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	ReturnFields []string
	// EFRuntime overrides the HNSW query-time candidate list size when > 0.
	EFRuntime int
}

// TextQuery is the input for full-text search.
type TextQuery struct {
	IndexName string
	// Fields restricts matching to these TEXT fields; empty means all TEXT fields.
	Fields []string
	// Terms are OR-ed: a document matches when it contains any of them.
	Terms        []string
	TopK         int
	ReturnFields []string
	// Scorer selects the FT.SEARCH scoring function (BM25STD when empty).
	Scorer string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key string
	// Score is the relevance score for text queries and the raw
	// __vector_score (distance) for KNN queries.
	Score  float64
	Fields map[string]string
}
