// Package types provides the shared domain types of the repository analyzer.
//
// FileEntry is produced by the walker for every file it sees, eligible or
// not. SkeletonNode is the budgeted project tree. Chunk is a slice of an
// eligible file; the chunks of one file are ordered by Start, never overlap,
// and concatenate back to the file content:
//
//	var b strings.Builder
//	for _, c := range chunks {
//	    b.WriteString(c.Content)
//	}
//	// b.String() == file content
//
// Chunk ids come from ComputeChunkID and depend only on the relative path,
// the offsets and the hash of the whole file, so an unchanged file always
// yields the same ids and any edit to the file changes all of them.
//
// Summary carries the counters of one run. Per-file problems never fail a
// run; they show up as FilesSkipped, FilesFiltered or FilesOversized.
package types
