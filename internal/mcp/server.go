package mcp

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/analyzer"
	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/searcher"
	"github.com/dshills/codefactory/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codefactory"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// resultCacheSize bounds the number of analysis results kept in memory
	resultCacheSize = 8
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	searcher *searcher.Searcher
	base     config.Config
	logger   *zap.Logger

	// lock rejects a second analysis while one is writing to the store
	lock analyzer.Lock
	// results holds recent analysis results by absolute root
	results *lru.Cache[string, *analyzer.Result]
}

// NewServer creates a new MCP server instance. base supplies every setting
// except the repository root, which each tool call names.
func NewServer(base config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewSQLiteStorage(base.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	results, err := lru.New[string, *analyzer.Result](resultCacheSize)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage:  store,
		searcher: searcher.NewSearcher(store),
		base:     base,
		logger:   logger,
		results:  results,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	s.logger.Info("serving MCP on stdio", zap.String("db", s.base.Storage.DBPath))

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the chunk store
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeRepositoryTool(), s.handleAnalyzeRepository)
	s.mcp.AddTool(getSkeletonTool(), s.handleGetSkeleton)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getChunkTool(), s.handleGetChunk)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
