package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/storage"
	"github.com/dshills/codefactory/pkg/types"
)

// PersistStats counts what Persist changed in the store
type PersistStats struct {
	ProjectID      int64
	FilesUpdated   int
	FilesUnchanged int
	FilesRemoved   int
	ChunksWritten  int
	Rechunked      bool // the chunking configuration changed since the last run
}

// ChunkingKey identifies the chunking configuration stored chunks were
// built with. A different key invalidates every stored chunk.
func ChunkingKey(c config.Chunking) string {
	return fmt.Sprintf("%s/%d/%g/%d", c.Boundary, c.TargetSize, c.ToleranceFactor, c.OverlapLines)
}

// Fingerprint hashes the chunked text of one file. Chunk contents
// concatenate to the decoded file text, so equal fingerprints mean equal
// chunk input.
func Fingerprint(chunks []types.Chunk) [16]byte {
	h := xxh3.New()
	for i := range chunks {
		_, _ = h.WriteString(chunks[i].Content)
	}
	return h.Sum128().Bytes()
}

// Persist writes res into store in a single transaction. Files whose
// fingerprint, eligibility and chunking key are unchanged keep their stored
// chunks; files no longer present are removed.
func (a *Analyzer) Persist(ctx context.Context, store storage.Storage, res *Result) (*PersistStats, error) {
	key := ChunkingKey(a.cfg.Chunking)

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	project, err := getOrCreateProject(ctx, tx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}
	stats := &PersistStats{
		ProjectID: project.ID,
		Rechunked: project.ChunkingKey != "" && project.ChunkingKey != key,
	}
	rekey := project.ChunkingKey != key

	existing, err := tx.ListFiles(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]*storage.File, len(existing))
	for _, f := range existing {
		stored[f.FilePath] = f
	}

	byFile := groupChunks(res.Chunks)
	for _, entry := range res.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks := byFile[entry.RelativePath]
		file := &storage.File{
			ProjectID:   project.ID,
			FilePath:    entry.RelativePath,
			Language:    string(entry.Language),
			Fingerprint: Fingerprint(chunks),
			SizeBytes:   entry.SizeBytes,
			Eligible:    entry.Eligible,
			Reason:      string(entry.Reason),
			ChunkCount:  len(chunks),
		}

		old, found := stored[entry.RelativePath]
		delete(stored, entry.RelativePath)
		if found && !rekey && unchanged(old, file) {
			stats.FilesUnchanged++
			continue
		}

		if found {
			if err := tx.DeleteChunksByFile(ctx, old.ID); err != nil {
				return nil, fmt.Errorf("failed to delete old chunks: %w", err)
			}
		}
		if err := tx.UpsertFile(ctx, file); err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if err := tx.UpsertChunk(ctx, storage.FromTypesChunk(c, file.ID)); err != nil {
				return nil, err
			}
		}
		stats.FilesUpdated++
		stats.ChunksWritten += len(chunks)
	}

	for _, gone := range stored {
		if err := tx.DeleteFile(ctx, gone.ID); err != nil {
			return nil, fmt.Errorf("failed to delete removed file: %w", err)
		}
		stats.FilesRemoved++
	}

	project.ModulePath = res.ModulePath
	project.TotalFiles = len(res.Files)
	project.TotalChunks = len(res.Chunks)
	project.ChunkingKey = key
	project.LastAnalyzedAt = time.Now()
	if err := tx.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.logger.Info("store updated",
		zap.Int64("project_id", stats.ProjectID),
		zap.Int("files_updated", stats.FilesUpdated),
		zap.Int("files_unchanged", stats.FilesUnchanged),
		zap.Int("files_removed", stats.FilesRemoved),
		zap.Int("chunks_written", stats.ChunksWritten),
		zap.Bool("rechunked", stats.Rechunked),
	)
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func getOrCreateProject(ctx context.Context, store storage.Storage, res *Result) (*storage.Project, error) {
	project, err := store.GetProject(ctx, res.Root)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     res.Root,
		ModulePath:   res.ModulePath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func unchanged(old, cur *storage.File) bool {
	return old.Fingerprint == cur.Fingerprint &&
		old.Eligible == cur.Eligible &&
		old.Reason == cur.Reason &&
		old.Language == cur.Language &&
		old.ChunkCount == cur.ChunkCount
}

// groupChunks indexes chunks by source path, keeping offset order
func groupChunks(chunks []types.Chunk) map[string][]types.Chunk {
	byFile := make(map[string][]types.Chunk)
	for _, c := range chunks {
		byFile[c.SourcePath] = append(byFile[c.SourcePath], c)
	}
	return byFile
}
