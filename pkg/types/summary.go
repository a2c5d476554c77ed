package types

import "time"

// Summary aggregates the per-file outcomes of one analysis run so callers
// can detect silent data loss without the run failing.
type Summary struct {
	Root string `json:"root"`

	FilesSeen      int `json:"files_seen"`
	FilesProcessed int `json:"files_processed"`
	FilesFiltered  int `json:"files_filtered"`
	FilesOversized int `json:"files_oversized"`
	FilesSkipped   int `json:"files_skipped"` // read errors
	FilesEmpty     int `json:"files_empty"`

	DirsPruned      int `json:"dirs_pruned"`
	SymlinksSkipped int `json:"symlinks_skipped"`

	ChunksCreated  int `json:"chunks_created"`
	BoundarySplits int `json:"boundary_splits"`
	LineSplits     int `json:"line_splits"`
	ForcedSplits   int `json:"forced_splits"`

	SkeletonBudget        int  `json:"skeleton_budget"`
	SkeletonBytes         int  `json:"skeleton_bytes"`
	SkeletonTruncated     bool `json:"skeleton_truncated"`
	SkeletonTruncatedDirs int  `json:"skeleton_truncated_dirs"`

	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// SkippedRatio returns the fraction of seen files that produced no chunks
// because they were skipped, filtered or oversized.
func (s *Summary) SkippedRatio() float64 {
	if s.FilesSeen == 0 {
		return 0
	}
	lost := s.FilesSkipped + s.FilesFiltered + s.FilesOversized
	return float64(lost) / float64(s.FilesSeen)
}
