// Package storage provides SQLite-based persistence for analysis results.
//
// The storage layer manages:
//   - Project metadata (root path, module path, chunking key)
//   - Per-file records with fingerprints and exclusion reasons
//   - Chunks keyed by their content-derived id
//   - An FTS5 full-text index over chunk content
//
// # Database Schema
//
// Tables:
//   - projects: one row per analyzed repository root
//   - files: every file the walker reported, eligible or not
//   - chunks: chunk text and offsets, cascading from files
//   - chunks_fts: external-content FTS5 index kept in sync by triggers
//
// # Transactions
//
// Use transactions for atomic re-analysis of a repository:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	for _, c := range chunks {
//	    if err := tx.UpsertChunk(ctx, storage.FromTypesChunk(c, file.ID)); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Full-Text Search
//
// SearchText quotes every query term, so FTS5 operators in user input are
// matched literally. Raw bm25 scores are mapped into (0, 1) with higher
// meaning more relevant.
//
// # Build Tags
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with -tags "sqlite_cgo sqlite_fts5" switches to github.com/mattn/go-sqlite3.
package storage
