package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codefactory/internal/artifact"
	"github.com/dshills/codefactory/internal/chunker"
	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/filter"
	"github.com/dshills/codefactory/internal/manifest"
	"github.com/dshills/codefactory/internal/skeleton"
	"github.com/dshills/codefactory/internal/walker"
	"github.com/dshills/codefactory/pkg/types"
)

// Analyzer coordinates one analysis pipeline: walk -> skeleton + chunk -> result
type Analyzer struct {
	cfg     config.Config
	root    string
	logger  *zap.Logger
	filter  *filter.Filter
	chunker *chunker.Chunker
}

// Result is everything a run produces. It is built once and not modified
// afterwards.
type Result struct {
	Root         string
	ModulePath   string            // from go.mod, when present
	Files        []types.FileEntry // every walked file in walk order
	Skeleton     *types.SkeletonNode
	SkeletonText string
	Chunks       []types.Chunk // grouped by file in walk order, then by offset
	Dependencies manifest.Dependencies
	Summary      types.Summary
}

// ArtifactSet returns the artifacts of r
func (r *Result) ArtifactSet() artifact.Set {
	return artifact.Set{
		SkeletonText: r.SkeletonText,
		Skeleton:     r.Skeleton,
		Chunks:       r.Chunks,
		Dependencies: r.Dependencies,
		Summary:      r.Summary,
	}
}

// New creates an Analyzer for cfg. The repository ignore file, when present,
// is read here so the filter stays a pure function during the run.
func New(cfg config.Config, logger *zap.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := cfg.AbsRoot()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrRepositoryNotFound, cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrRepositoryNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrRepositoryNotFound, root)
	}

	f, err := filter.New(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if cfg.Filter.IgnoreFile != "" {
		patterns, err := filter.ReadIgnoreFile(filepath.Join(root, cfg.Filter.IgnoreFile))
		if err != nil {
			return nil, err
		}
		if f, err = f.WithIgnores(patterns); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Filter.IgnoreFile, err)
		}
	}
	if own := outputIgnores(root, cfg); len(own) > 0 {
		if f, err = f.WithIgnores(own); err != nil {
			return nil, fmt.Errorf("output exclusion: %w", err)
		}
		logger.Debug("excluding run output", zap.Strings("patterns", own))
	}

	c, err := chunker.New(cfg.Chunking, cfg.Filter.MaxFileSize)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		cfg:     cfg,
		root:    root,
		logger:  logger.With(zap.String("root", root)),
		filter:  f,
		chunker: c,
	}, nil
}

// outputIgnores returns anchored ignore rules for the artifacts and chunk
// store of a run when they live inside root, so a later run never walks
// what an earlier one wrote.
func outputIgnores(root string, cfg config.Config) []string {
	var patterns []string
	if rel, ok := relUnder(root, cfg.OutputDir); ok {
		if rel == "." {
			for _, name := range artifact.Names() {
				patterns = append(patterns, "/"+name)
			}
		} else {
			patterns = append(patterns, "/"+rel+"/")
		}
	}
	if cfg.Storage.Enabled && cfg.Storage.DBPath != "" && cfg.Storage.DBPath != ":memory:" {
		// the trailing * also covers the -wal, -shm and -journal companions
		if rel, ok := relUnder(root, cfg.Storage.DBPath); ok && rel != "." {
			patterns = append(patterns, "/"+rel+"*")
		}
	}
	return patterns
}

// relUnder returns target relative to root in slash form when target is
// root or below it. Paths holding glob metacharacters are not expressible
// as ignore rules and are reported as outside.
func relUnder(root, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.ContainsAny(rel, `*?[]{}\`) {
		return "", false
	}
	return rel, true
}

// Root returns the absolute repository root
func (a *Analyzer) Root() string {
	return a.root
}

// fileResult is the chunking outcome of one eligible file
type fileResult struct {
	chunks []types.Chunk
	stats  chunker.Stats
	err    error
}

// Run analyzes the repository. Per-file failures are recorded in the
// summary; only a missing root, a bad configuration or cancellation fail
// the run.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	summary := types.Summary{
		Root:           a.root,
		SkeletonBudget: a.cfg.Skeleton.Budget,
	}

	w, err := walker.New(a.root, a.filter, a.logger,
		walker.WithSniffBytes(a.cfg.Filter.SniffBytes),
		walker.WithPruneHook(func(string, types.ExclusionReason) {
			summary.DirsPruned++
		}),
		walker.WithWarningHook(func(rel string, err error) {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %v", rel, err))
		}),
	)
	if err != nil {
		return nil, err
	}

	// Discover files
	var files []types.FileEntry
	for entry := range w.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files = append(files, entry)
		countEntry(&summary, entry)
	}

	// Render skeleton
	tree := skeleton.Build(filepath.Base(a.root), slices.Values(files))
	rendering := tree.Render(a.cfg.Skeleton.Budget, a.cfg.Skeleton.MaxDepth)
	summary.SkeletonBytes = rendering.Stats.Bytes
	summary.SkeletonTruncated = rendering.Stats.Truncated()
	summary.SkeletonTruncatedDirs = rendering.Stats.TruncatedDirs

	// Chunk eligible files
	eligible := make([]types.FileEntry, 0, len(files))
	for _, entry := range files {
		if entry.Eligible {
			eligible = append(eligible, entry)
		}
	}
	results, err := a.chunkFiles(ctx, eligible)
	if err != nil {
		return nil, err
	}

	chunks := make([]types.Chunk, 0)
	var stats chunker.Stats
	for i, res := range results {
		rel := eligible[i].RelativePath
		switch {
		case errors.Is(res.err, types.ErrOversizedFile):
			summary.FilesOversized++
			summary.Warnings = append(summary.Warnings, res.err.Error())
		case res.err != nil:
			summary.FilesSkipped++
			summary.Warnings = append(summary.Warnings, res.err.Error())
			a.logger.Warn("skipping file", zap.String("path", rel), zap.Error(res.err))
		case len(res.chunks) == 0:
			summary.FilesEmpty++
		default:
			summary.FilesProcessed++
			chunks = append(chunks, res.chunks...)
			stats.Add(res.stats)
		}
	}
	summary.ChunksCreated = len(chunks)
	summary.BoundarySplits = stats.BoundarySplits
	summary.LineSplits = stats.LineSplits
	summary.ForcedSplits = stats.ForcedSplits

	result := &Result{
		Root:         a.root,
		ModulePath:   readModulePath(a.root),
		Files:        files,
		Skeleton:     rendering.Root,
		SkeletonText: rendering.Text,
		Chunks:       chunks,
		Dependencies: manifest.Extract(a.root),
	}
	summary.Duration = time.Since(start)
	result.Summary = summary

	a.logger.Info("analysis complete",
		zap.Int("files_seen", summary.FilesSeen),
		zap.Int("files_processed", summary.FilesProcessed),
		zap.Int("chunks", summary.ChunksCreated),
		zap.Int("skeleton_bytes", summary.SkeletonBytes),
		zap.Bool("skeleton_truncated", summary.SkeletonTruncated),
		zap.Int("dependencies", result.Dependencies.Total()),
		zap.Duration("duration", summary.Duration),
	)
	if ratio := summary.SkippedRatio(); ratio > 0.5 {
		a.logger.Warn("most files produced no chunks", zap.Float64("skipped_ratio", ratio))
	}

	return result, nil
}

// chunkFiles reads and chunks files with at most cfg.Workers reads in
// flight. Results are indexed like files, so output order never depends on
// scheduling.
func (a *Analyzer) chunkFiles(ctx context.Context, files []types.FileEntry) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, stats, err := a.chunker.ChunkFile(entry)
			results[i] = fileResult{chunks: chunks, stats: stats, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// countEntry updates the discovery counters for one walked entry
func countEntry(s *types.Summary, entry types.FileEntry) {
	switch entry.Reason {
	case types.ReasonSymlink:
		s.SymlinksSkipped++
		return
	case types.ReasonNone:
	case types.ReasonOversized:
		s.FilesOversized++
	case types.ReasonUnreadable:
		s.FilesSkipped++
	default:
		s.FilesFiltered++
	}
	s.FilesSeen++
}

// readModulePath extracts the module path from root/go.mod, if any
func readModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return manifest.ModulePath(data)
}
