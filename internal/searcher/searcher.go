package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/codefactory/internal/storage"
	"github.com/dshills/codefactory/pkg/types"
)

const (
	// DefaultLimit is used when a request has no limit
	DefaultLimit = 10
	// MaxLimit caps the number of results per request
	MaxLimit = 100
	// DefaultCacheSize is the number of responses kept in the LRU cache
	DefaultCacheSize = 1000
	// DefaultCacheTTL is how long a cached response stays valid
	DefaultCacheTTL = time.Hour
)

// ErrEmptyQuery is returned for requests without a query
var ErrEmptyQuery = errors.New("query cannot be empty")

// Request contains parameters for a search operation
type Request struct {
	Query        string
	Limit        int
	ProjectID    int64
	Language     types.LanguageHint // empty means any language
	PathGlob     string             // SQLite GLOB over the relative path
	MinRelevance float64
	UseCache     bool // Whether to use query cache
	CacheTTL     time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher runs BM25 keyword search over the chunk store
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(storage storage.Storage) *Searcher {
	// Cache will automatically evict least recently used entries
	cache, err := lru.New[[32]byte, *cacheEntry](DefaultCacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: storage,
		cache:   cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	// Check cache if enabled
	if req.UseCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	textResults, err := s.storage.SearchText(ctx, req.ProjectID, req.Query, req.Limit, filtersFor(req))
	if err != nil {
		return nil, err
	}

	results, err := s.fetchResults(ctx, req.ProjectID, textResults)
	if err != nil {
		return nil, err
	}

	response := &Response{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// filtersFor translates request filters into store filters
func filtersFor(req Request) *storage.SearchFilters {
	if req.Language == "" && req.PathGlob == "" && req.MinRelevance == 0 {
		return nil
	}
	filters := &storage.SearchFilters{
		FilePattern:  req.PathGlob,
		MinRelevance: req.MinRelevance,
	}
	if req.Language != "" {
		filters.Languages = []string{string(req.Language)}
	}
	return filters
}

// fetchResults retrieves full chunk data for ranked text results
func (s *Searcher) fetchResults(ctx context.Context, projectID int64, ranked []storage.TextResult) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(ranked))

	for _, tr := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := s.storage.GetChunk(ctx, projectID, tr.ChunkID)
		if err != nil {
			continue // Skip chunks removed since the search ran
		}

		results = append(results, types.SearchResult{
			ChunkID:        chunk.ID,
			Rank:           len(results) + 1,
			RelevanceScore: tr.BM25Score,
			SourcePath:     chunk.SourcePath,
			Start:          chunk.StartOffset,
			End:            chunk.EndOffset,
			StartLine:      chunk.StartLine,
			EndLine:        chunk.EndLine,
			Module:         chunk.Module,
			Language:       types.LanguageHint(chunk.Language),
			Content:        chunk.Content,
		})
	}

	return results, nil
}

// validateRequest ensures search request is valid and fills defaults
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Language != "" && !req.Language.Valid() {
		return fmt.Errorf("unknown language %q", req.Language)
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req Request) (*Response, bool) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}

	// Check if entry has expired while holding read lock to avoid race condition
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		// Remove expired entry - need write lock
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, false
	}

	// Entry is valid - return a copy while still holding read lock
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, true
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copyResponse creates a copy of a Response. SearchResult holds only
// values, so copying the slice is a deep copy.
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req Request) [32]byte {
	// Build deterministic string representation
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%d", req.ProjectID, req.Limit)
	data.WriteString("|")
	data.WriteString(string(req.Language))
	data.WriteString("|")
	data.WriteString(req.PathGlob)
	data.WriteString("|")
	fmt.Fprintf(&data, "%.4f", req.MinRelevance)

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops every cached response. Entries are keyed by a hash
// of the request, so the cache is purged as a whole after a project changes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// EvictLRU shrinks the cache to at most maxEntries, dropping the least
// recently used responses first. It returns the number of evicted entries.
func (s *Searcher) EvictLRU(maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cache.Resize(maxEntries), nil
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
