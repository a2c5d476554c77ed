package types

import "errors"

// Analysis errors
var (
	// ErrRepositoryNotFound is fatal: the root is missing or not a directory
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrFileRead marks a single unreadable file; the run continues
	ErrFileRead = errors.New("file read error")
	// ErrOversizedFile marks a file above the configured size ceiling
	ErrOversizedFile = errors.New("file exceeds maximum size")
)

// Search result errors
var (
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrEmptyContent          = errors.New("content cannot be empty")
)
