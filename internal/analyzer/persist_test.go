package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/storage"
	"github.com/dshills/codefactory/pkg/types"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func runAndPersist(t *testing.T, a *Analyzer, store storage.Storage) (*Result, *PersistStats) {
	t.Helper()
	res, err := a.Run(context.Background())
	require.NoError(t, err)
	stats, err := a.Persist(context.Background(), store, res)
	require.NoError(t, err)
	return res, stats
}

func TestPersist_FirstRun(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, "go.mod", "module example.com/scenario\n")
	store := newStore(t)
	a := newAnalyzer(t, testConfig(root))

	res, stats := runAndPersist(t, a, store)
	assert.Equal(t, len(res.Files), stats.FilesUpdated)
	assert.Equal(t, len(res.Chunks), stats.ChunksWritten)
	assert.Zero(t, stats.FilesUnchanged)
	assert.False(t, stats.Rechunked)

	ctx := context.Background()
	project, err := store.GetProject(ctx, res.Root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/scenario", project.ModulePath)
	assert.Equal(t, len(res.Chunks), project.TotalChunks)
	assert.Equal(t, ChunkingKey(testConfig(root).Chunking), project.ChunkingKey)
	assert.False(t, project.LastAnalyzedAt.IsZero())

	stored, err := store.ListChunks(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, stored, len(res.Chunks))
	for i, c := range stored {
		assert.Equal(t, res.Chunks[i], c.ToTypesChunk())
	}
}

func TestPersist_Incremental(t *testing.T) {
	root := scenarioRepo(t)
	store := newStore(t)
	a := newAnalyzer(t, testConfig(root))

	_, first := runAndPersist(t, a, store)

	// Nothing changed
	_, second := runAndPersist(t, a, store)
	assert.Zero(t, second.FilesUpdated)
	assert.Equal(t, first.FilesUpdated, second.FilesUnchanged)
	assert.Zero(t, second.ChunksWritten)

	// One file edited, one removed
	writeFile(t, root, "b.md", "# Changed\n")
	require.NoError(t, os.Remove(filepath.Join(root, "a.py")))
	res, third := runAndPersist(t, a, store)
	assert.Equal(t, 1, third.FilesUpdated)
	assert.Equal(t, 1, third.FilesRemoved)

	ctx := context.Background()
	project, err := store.GetProject(ctx, res.Root)
	require.NoError(t, err)
	chunks, err := store.ListChunks(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "# Changed\n", chunks[0].Content)

	results, err := store.SearchText(ctx, project.ID, "changed", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0].ID, results[0].ChunkID)
}

func TestPersist_ChunkingChangeRechunks(t *testing.T) {
	root := scenarioRepo(t)
	store := newStore(t)

	_, first := runAndPersist(t, newAnalyzer(t, testConfig(root)), store)

	cfg := testConfig(root)
	cfg.Chunking.Boundary = config.BoundaryLines
	_, second := runAndPersist(t, newAnalyzer(t, cfg), store)
	assert.True(t, second.Rechunked)
	assert.Equal(t, first.FilesUpdated, second.FilesUpdated)
	assert.Zero(t, second.FilesUnchanged)
}

func TestPersist_RecordsExcludedFiles(t *testing.T) {
	root := scenarioRepo(t)
	writeFile(t, root, "logo.png", "not really a png")
	store := newStore(t)

	res, _ := runAndPersist(t, newAnalyzer(t, testConfig(root)), store)

	ctx := context.Background()
	project, err := store.GetProject(ctx, res.Root)
	require.NoError(t, err)
	file, err := store.GetFile(ctx, project.ID, "logo.png")
	require.NoError(t, err)
	assert.False(t, file.Eligible)
	assert.Equal(t, string(types.ReasonBinary), file.Reason)
	assert.Zero(t, file.ChunkCount)

	status, err := store.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.FilesCount)
	assert.Equal(t, 2, status.EligibleFiles)
}

func TestFingerprint(t *testing.T) {
	a := []types.Chunk{{Content: "ab"}, {Content: "cd"}}
	b := []types.Chunk{{Content: "abc"}, {Content: "d"}}
	c := []types.Chunk{{Content: "abce"}}

	// Same text, different partition
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.Equal(t, Fingerprint(nil), Fingerprint([]types.Chunk{}))
}

func TestChunkingKey(t *testing.T) {
	base := config.Default().Chunking
	changed := base
	changed.OverlapLines = 2
	assert.NotEqual(t, ChunkingKey(base), ChunkingKey(changed))
	assert.Equal(t, ChunkingKey(base), ChunkingKey(config.Default().Chunking))
}
