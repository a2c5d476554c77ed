package types

// SearchResult represents a single chunk search hit
type SearchResult struct {
	ChunkID string
	Rank    int // Position in result set (1-based)

	RelevanceScore float64 // Normalized BM25 score

	SourcePath string
	Start      int
	End        int
	StartLine  int
	EndLine    int
	Module     string
	Language   LanguageHint
	Content    string
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
