package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/codefactory/internal/artifact"
	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/pkg/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// pythonStatements returns n top-level statements of 20 bytes each
func pythonStatements(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "value_%02d = %08d\n", i, i)
	}
	return b.String()
}

// scenarioRepo holds a.py (300 bytes), b.md (50 bytes) and a denylisted
// node_modules/x.js
func scenarioRepo(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "a.py", pythonStatements(15))
	writeFile(t, root, "b.md", strings.Repeat("x", 49)+"\n")
	writeFile(t, root, "node_modules/x.js", "module.exports = {}\n")
	return root
}

func testConfig(root string) config.Config {
	cfg := config.Default().WithRoot(root)
	cfg.Chunking.TargetSize = 200
	cfg.Workers = 4
	return cfg
}

func newAnalyzer(t *testing.T, cfg config.Config) *Analyzer {
	t.Helper()
	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func chunksPerFile(chunks []types.Chunk) map[string]int {
	counts := make(map[string]int)
	for _, c := range chunks {
		counts[c.SourcePath]++
	}
	return counts
}

func TestRun_Scenario(t *testing.T) {
	root := scenarioRepo(t)
	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a.py": 2, "b.md": 1}, chunksPerFile(res.Chunks))
	assert.NotContains(t, res.SkeletonText, "node_modules")
	for _, f := range res.Files {
		assert.NotContains(t, f.RelativePath, "node_modules")
	}

	s := res.Summary
	assert.Equal(t, 2, s.FilesSeen)
	assert.Equal(t, 2, s.FilesProcessed)
	assert.Equal(t, 1, s.DirsPruned)
	assert.Equal(t, 3, s.ChunksCreated)
	assert.Equal(t, 1, s.BoundarySplits)
	assert.False(t, s.SkeletonTruncated)
	assert.Equal(t, len(res.SkeletonText), s.SkeletonBytes)
	assert.Equal(t, res.Root, s.Root)
}

func TestRun_Lossless(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, "src/main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n\n"+strings.Repeat("// filler line\n", 40))

	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	rebuilt := make(map[string]string)
	for _, c := range res.Chunks {
		require.NoError(t, c.Validate())
		rebuilt[c.SourcePath] += c.Content
	}
	for path, content := range rebuilt {
		raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		require.NoError(t, err)
		assert.Equal(t, string(raw), content, path)
	}
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	root := scenarioRepo(t)
	for i := 0; i < 20; i++ {
		writeFile(t, root, fmt.Sprintf("pkg/f%02d.py", i), pythonStatements(i+1))
	}

	cfg := testConfig(root)
	cfg.Workers = 1
	serial, err := newAnalyzer(t, cfg).Run(context.Background())
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := newAnalyzer(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, serial.Chunks, parallel.Chunks)
	assert.Equal(t, serial.SkeletonText, parallel.SkeletonText)
}

func TestRun_ChunkOrderFollowsWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.txt", "z\n")
	writeFile(t, root, "a/b.txt", "b\n")
	writeFile(t, root, "a.txt", "a\n")

	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	paths := make([]string, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		paths = append(paths, c.SourcePath)
	}
	assert.Equal(t, []string{"a.txt", "a/b.txt", "z.txt"}, paths)
}

func TestNew_RepositoryNotFound(t *testing.T) {
	_, err := New(config.Default().WithRoot(filepath.Join(t.TempDir(), "missing")), nil)
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(config.Default().WithRoot(file), nil)
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default().WithRoot(t.TempDir())
	cfg.Chunking.TargetSize = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestRun_IgnoreFile(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, ".factoryignore", "# docs are generated\n*.md\n")

	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	counts := chunksPerFile(res.Chunks)
	assert.Zero(t, counts["b.md"])
	assert.Equal(t, 2, counts["a.py"])
	assert.Equal(t, 1, res.Summary.FilesFiltered)
	assert.NotContains(t, res.SkeletonText, "b.md")
}

func TestRun_InvalidIgnorePattern(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, ".factoryignore", "!keep.md\n")

	_, err := New(testConfig(root), nil)
	assert.Error(t, err)
}

func TestRun_OversizedAndBinary(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, "blob.dat", "binary by extension")
	writeFile(t, root, "sniffed.txt", "text\x00with nul")

	cfg := testConfig(root)
	cfg.Filter.MaxFileSize = 100
	res, err := newAnalyzer(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"b.md": 1}, chunksPerFile(res.Chunks))
	assert.Equal(t, 1, res.Summary.FilesOversized)
	assert.Equal(t, 2, res.Summary.FilesFiltered)
	assert.Equal(t, 4, res.Summary.FilesSeen)
	assert.InDelta(t, 0.75, res.Summary.SkippedRatio(), 1e-9)
}

func TestRun_EmptyFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.go", "")

	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.NotNil(t, res.Chunks)
	assert.Equal(t, 1, res.Summary.FilesEmpty)
	assert.Contains(t, res.SkeletonText, "empty.go")
}

func TestRun_UnreadableFileSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}

	tests := []struct {
		name       string
		sniffBytes int
	}{
		{"read fails while chunking", 0},
		{"read fails while sniffing", 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := scenarioRepo(t)
			writeFile(t, root, "locked.txt", "secret\n")
			locked := filepath.Join(root, "locked.txt")
			require.NoError(t, os.Chmod(locked, 0o000))
			t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

			cfg := testConfig(root)
			cfg.Filter.SniffBytes = tt.sniffBytes
			res, err := newAnalyzer(t, cfg).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, res.Summary.FilesSkipped)
			require.NotEmpty(t, res.Summary.Warnings)
			assert.Contains(t, strings.Join(res.Summary.Warnings, "\n"), "locked.txt")
			assert.NotContains(t, chunksPerFile(res.Chunks), "locked.txt")
			assert.Contains(t, chunksPerFile(res.Chunks), "a.py")
			assert.Contains(t, chunksPerFile(res.Chunks), "b.md")
		})
	}
}

func TestRun_OwnOutputExcluded(t *testing.T) {
	tests := []struct {
		name   string
		output string // relative to root
		db     string // relative to root; empty disables the store
	}{
		{"output in subdirectory", "data", ""},
		{"output is root", ".", "cache.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := scenarioRepo(t)
			cfg := testConfig(root)
			cfg.OutputDir = filepath.Join(root, tt.output)
			if tt.db != "" {
				cfg.Storage.Enabled = true
				cfg.Storage.DBPath = filepath.Join(root, tt.db)
				writeFile(t, root, tt.db, "not really sqlite\n")
				writeFile(t, root, tt.db+"-wal", "write ahead log\n")
			}

			first, err := newAnalyzer(t, cfg).Run(context.Background())
			require.NoError(t, err)
			require.NoError(t, artifact.Write(cfg.OutputDir, first.ArtifactSet()))

			second, err := newAnalyzer(t, cfg).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, first.Chunks, second.Chunks)
			assert.Equal(t, first.SkeletonText, second.SkeletonText)
			assert.Equal(t, map[string]int{"a.py": 2, "b.md": 1}, chunksPerFile(second.Chunks))
		})
	}
}

func TestRun_SkeletonBudget(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 500; i++ {
		writeFile(t, root, fmt.Sprintf("big/f%03d.txt", i), "x\n")
	}
	writeFile(t, root, "small/a.txt", "a\n")
	writeFile(t, root, "small/b.txt", "b\n")

	cfg := testConfig(root)
	cfg.Skeleton.Budget = 100
	res, err := newAnalyzer(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, len(res.SkeletonText), 100)
	assert.Contains(t, res.SkeletonText, "big/ (+500 more files)")
	assert.Contains(t, res.SkeletonText, "a.txt")
	assert.True(t, res.Summary.SkeletonTruncated)
	assert.Equal(t, 1, res.Summary.SkeletonTruncatedDirs)
	assert.Equal(t, 502, res.Summary.ChunksCreated)
}

func TestRun_ManifestAndModulePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/demo\n\ngo 1.23\n\nrequire github.com/stretchr/testify v1.9.0\n")
	writeFile(t, root, "requirements.txt", "requests==2.31.0\n")

	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "example.com/demo", res.ModulePath)
	assert.Equal(t, []string{"github.com/stretchr/testify@v1.9.0"}, res.Dependencies.Go)
	assert.Equal(t, []string{"requests==2.31.0"}, res.Dependencies.Pip)
}

func TestRun_Cancelled(t *testing.T) {
	root := scenarioRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(t, testConfig(root)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_ArtifactSet(t *testing.T) {
	root := scenarioRepo(t)
	res, err := newAnalyzer(t, testConfig(root)).Run(context.Background())
	require.NoError(t, err)

	out := t.TempDir()
	require.NoError(t, artifact.Write(out, res.ArtifactSet()))

	chunks, err := artifact.ReadChunks(out)
	require.NoError(t, err)
	assert.Equal(t, res.Chunks, chunks)

	text, err := artifact.ReadSkeletonText(out)
	require.NoError(t, err)
	assert.Equal(t, res.SkeletonText, text)
}

func TestLock(t *testing.T) {
	var l Lock
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.True(t, l.Held())
	l.Release()
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
}
