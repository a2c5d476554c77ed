package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/analyzer"
	"github.com/dshills/codefactory/internal/artifact"
	"github.com/dshills/codefactory/internal/searcher"
	"github.com/dshills/codefactory/internal/storage"
	"github.com/dshills/codefactory/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeRepositoryNotFound = -32001 // Path is not an analyzable repository
	ErrorCodeAnalysisInProgress = -32002 // Another analysis is already running
	ErrorCodeNotAnalyzed        = -32003 // Repository not analyzed into the store
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeChunkNotFound      = -32005 // No chunk with the given id
)

// Skeleton output formats
const (
	skeletonText = "text"
	skeletonJSON = "json"
)

// handleAnalyzeRepository handles the analyze_repository tool invocation
func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	// Only one analysis writes to the store at a time
	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeAnalysisInProgress, "an analysis is already running", map[string]interface{}{
			"path": path,
		})
	}
	defer s.lock.Release()

	a, err := analyzer.New(s.base.WithRoot(path), s.logger)
	if err != nil {
		return nil, analysisError(err)
	}

	res, err := a.Run(ctx)
	if err != nil {
		return nil, analysisError(err)
	}

	stats, err := a.Persist(ctx, s.storage, res)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to store analysis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.searcher.InvalidateCache()
	s.results.Add(res.Root, res)

	response := map[string]interface{}{
		"analyzed":   true,
		"root":       res.Root,
		"project_id": stats.ProjectID,
		"summary":    res.Summary,
		"store": map[string]interface{}{
			"files_updated":   stats.FilesUpdated,
			"files_unchanged": stats.FilesUnchanged,
			"files_removed":   stats.FilesRemoved,
			"chunks_written":  stats.ChunksWritten,
			"rechunked":       stats.Rechunked,
		},
		"dependencies": res.Dependencies.Total(),
	}

	if getBoolDefault(args, "write_artifacts", false) {
		dir := getStringDefault(args, "output_dir", s.base.OutputDir)
		if err := artifact.Write(dir, res.ArtifactSet()); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to write artifacts", map[string]interface{}{
				"error": err.Error(),
			})
		}
		response["artifacts_dir"] = dir
	}

	return mcp.NewToolResultText(s.formatJSON(response)), nil
}

// handleGetSkeleton handles the get_skeleton tool invocation
func (s *Server) handleGetSkeleton(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	format := getStringDefault(args, "format", skeletonText)
	if format != skeletonText && format != skeletonJSON {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid format", map[string]interface{}{
			"param":   "format",
			"value":   format,
			"allowed": []string{skeletonText, skeletonJSON},
		})
	}

	res, err := s.result(ctx, path)
	if err != nil {
		return nil, err
	}

	if format == skeletonText {
		return mcp.NewToolResultText(res.SkeletonText), nil
	}

	response := map[string]interface{}{
		"root":      res.Root,
		"skeleton":  res.Skeleton,
		"bytes":     res.Summary.SkeletonBytes,
		"budget":    res.Summary.SkeletonBudget,
		"truncated": res.Summary.SkeletonTruncated,
	}
	return mcp.NewToolResultText(s.formatJSON(response)), nil
}

// result returns the cached analysis of root, analyzing it on a miss.
// Cached results are replaced by every analyze_repository call.
func (s *Server) result(ctx context.Context, root string) (*analyzer.Result, error) {
	if res, ok := s.results.Get(root); ok {
		return res, nil
	}

	a, err := analyzer.New(s.base.WithRoot(root), s.logger)
	if err != nil {
		return nil, analysisError(err)
	}
	res, err := a.Run(ctx)
	if err != nil {
		return nil, analysisError(err)
	}
	s.results.Add(res.Root, res)
	return res, nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	language := types.LanguageHint(getStringDefault(args, "language", ""))
	if language != "" && !language.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid language", map[string]interface{}{
			"param": "language",
			"value": language,
		})
	}

	project, err := s.project(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Query:        query,
		Limit:        limit,
		ProjectID:    project.ID,
		Language:     language,
		PathGlob:     getStringDefault(args, "path_glob", ""),
		MinRelevance: getFloatDefault(args, "min_relevance", 0),
		UseCache:     true,
	})
	if errors.Is(err, searcher.ErrEmptyQuery) || errors.Is(err, storage.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query has no searchable terms", map[string]interface{}{
			"param": "query",
			"value": query,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":            r.Rank,
			"chunk_id":        r.ChunkID,
			"source_path":     r.SourcePath,
			"start":           r.Start,
			"end":             r.End,
			"start_line":      r.StartLine,
			"end_line":        r.EndLine,
			"module":          r.Module,
			"language":        r.Language,
			"relevance_score": r.RelevanceScore,
			"content":         r.Content,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       results,
	}
	return mcp.NewToolResultText(s.formatJSON(response)), nil
}

// handleGetChunk handles the get_chunk tool invocation
func (s *Server) handleGetChunk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	chunkID, ok := args["chunk_id"].(string)
	if !ok || chunkID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_id parameter is required", map[string]interface{}{
			"param":  "chunk_id",
			"reason": "missing or empty",
		})
	}

	project, err := s.project(ctx, path)
	if err != nil {
		return nil, err
	}

	chunk, err := s.storage.GetChunk(ctx, project.ID, chunkID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeChunkNotFound, "chunk not found", map[string]interface{}{
			"chunk_id": chunkID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load chunk", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chunk": chunk.ToTypesChunk(),
	}
	return mcp.NewToolResultText(s.formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"analyzed": false,
			"path":     path,
			"message":  "Repository not analyzed. Use analyze_repository tool to analyze it.",
		}
		return mcp.NewToolResultText(s.formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"analyzed": true,
		"project": map[string]interface{}{
			"path":             project.RootPath,
			"module_path":      project.ModulePath,
			"chunking_key":     project.ChunkingKey,
			"last_analyzed_at": project.LastAnalyzedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":    status.FilesCount,
			"eligible_files": status.EligibleFiles,
			"chunks_count":   status.ChunksCount,
			"languages":      status.Languages,
			"index_size_mb":  fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"analysis_running":    s.lock.Held(),
		},
	}

	return mcp.NewToolResultText(s.formatJSON(response)), nil
}

// project looks up the stored project for an analyzed root
func (s *Server) project(ctx context.Context, path string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotAnalyzed, "repository not analyzed", map[string]interface{}{
			"path": path,
			"hint": "call analyze_repository first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// Helper functions

// analysisError maps analyzer failures to MCP errors
func analysisError(err error) error {
	switch {
	case errors.Is(err, types.ErrRepositoryNotFound):
		return newMCPError(ErrorCodeRepositoryNotFound, "repository not found", map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return newMCPError(ErrorCodeInternalError, "analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// requirePath extracts and validates the path parameter
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	return filepath.Clean(path), nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func (s *Server) formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode tool response", zap.Error(err))
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
