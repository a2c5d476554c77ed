package storage

import (
	"context"
	"time"

	"github.com/dshills/codefactory/pkg/types"
)

// Storage defines the interface for persisting and querying analysis results
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	GetProjectByID(ctx context.Context, projectID int64) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, projectID int64, chunkID string) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	ListChunks(ctx context.Context, projectID int64) ([]*Chunk, error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error

	// Search operations
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an analyzed repository
type Project struct {
	ID             int64
	RootPath       string
	ModulePath     string // from go.mod, when present
	TotalFiles     int
	TotalChunks    int
	ChunkingKey    string // chunking configuration the stored chunks were built with
	IndexVersion   string
	LastAnalyzedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// File represents a file seen by the walker
type File struct {
	ID             int64
	ProjectID      int64
	FilePath       string // Relative to project root, slash separated
	Language       string
	Fingerprint    [16]byte // xxh3-128 of the chunked text
	SizeBytes      int64
	Eligible       bool
	Reason         string // exclusion reason, empty when eligible
	ChunkCount     int
	LastAnalyzedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Chunk represents a stored chunk
type Chunk struct {
	ID            string
	FileID        int64
	SourcePath    string // filled on read from the owning file
	StartOffset   int
	EndOffset     int
	StartLine     int
	EndLine       int
	Module        string
	Content       string
	ContentHash   [32]byte
	Language      string
	ContextBefore string
	CreatedAt     time.Time
}

// SearchFilters contains filters for narrowing search results
type SearchFilters struct {
	Languages    []string // Filter by language hint
	FilePattern  string   // Glob pattern for file paths
	MinRelevance float64  // Minimum relevance score
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   string
	BM25Score float64
}

// ProjectStatus contains statistics about a stored project
type ProjectStatus struct {
	Project        *Project
	FilesCount     int
	EligibleFiles  int
	ChunksCount    int
	Languages      map[string]int // chunk count per language
	IndexSizeMB    float64
	LastAnalyzedAt time.Time
	Health         HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// ToTypesChunk converts a stored Chunk to types.Chunk
func (c *Chunk) ToTypesChunk() types.Chunk {
	return types.Chunk{
		ID:            c.ID,
		SourcePath:    c.SourcePath,
		Start:         c.StartOffset,
		End:           c.EndOffset,
		StartLine:     c.StartLine,
		EndLine:       c.EndLine,
		Module:        c.Module,
		Content:       c.Content,
		Language:      types.LanguageHint(c.Language),
		ContextBefore: c.ContextBefore,
	}
}

// FromTypesChunk converts types.Chunk to a stored Chunk
func FromTypesChunk(c types.Chunk, fileID int64) *Chunk {
	return &Chunk{
		ID:            c.ID,
		FileID:        fileID,
		SourcePath:    c.SourcePath,
		StartOffset:   c.Start,
		EndOffset:     c.End,
		StartLine:     c.StartLine,
		EndLine:       c.EndLine,
		Module:        c.Module,
		Content:       c.Content,
		ContentHash:   c.ContentHash(),
		Language:      string(c.Language),
		ContextBefore: c.ContextBefore,
	}
}
