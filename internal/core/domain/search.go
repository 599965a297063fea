package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (k). Zero uses the configured default.
	Limit int

	// ProjectID restricts results to one project when non-zero.
	ProjectID int

	// Filter is an additional metadata equality filter.
	Filter Metadata
}

// SearchResult represents a single retrieved chunk.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string `json:"chunk_id"`

	// DocumentID is the owning document.
	DocumentID string `json:"document_id"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Metadata is the stored chunk metadata.
	Metadata Metadata `json:"metadata"`

	// Distance is the cosine distance to the query, in [0, 2].
	Distance float64 `json:"distance"`

	// Score is the relevance score, 1 - Distance.
	Score float64 `json:"score"`
}

// RelevanceScore converts a cosine distance into a relevance score.
func RelevanceScore(distance float64) float64 {
	return 1 - distance
}

// Dump is the full index contents as parallel arrays.
type Dump struct {
	IDs       []string   `json:"ids"`
	Documents []string   `json:"documents"`
	Metadatas []Metadata `json:"metadatas"`
}

// Stats summarises the index.
type Stats struct {
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	Collection     string `json:"collection"`
	EmbeddingModel string `json:"embedding_model"`
	IndexBackend   string `json:"index_backend"`
}
