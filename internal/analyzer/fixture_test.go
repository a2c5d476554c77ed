package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codefactory/pkg/types"
)

const fixtureRepo = "testdata/gorepo"

func TestRun_GoFixture(t *testing.T) {
	root, err := filepath.Abs(fixtureRepo)
	require.NoError(t, err)

	cfg := testConfig(root)
	cfg.Chunking.TargetSize = 1000
	res, err := newAnalyzer(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "example.com/fixtures", res.ModulePath)
	assert.Equal(t, []string{"golang.org/x/crypto@v0.43.0"}, res.Dependencies.Go)
	assert.Contains(t, res.SkeletonText, "auth/")
	assert.Contains(t, res.SkeletonText, "authentication.go")

	byFile := make(map[string][]types.Chunk)
	for _, c := range res.Chunks {
		byFile[c.SourcePath] = append(byFile[c.SourcePath], c)
	}
	require.Contains(t, byFile, "auth/authentication.go")
	require.Contains(t, byFile, "errors.go")
	assert.Greater(t, len(byFile["auth/authentication.go"]), 1)

	for path, chunks := range byFile {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		require.NoError(t, err)

		var b strings.Builder
		for _, c := range chunks {
			b.WriteString(c.Content)
			assert.LessOrEqual(t, len(c.Content), int(float64(cfg.Chunking.TargetSize)*cfg.Chunking.ToleranceFactor), path)
			// No Go line in the fixtures is longer than the window, so
			// every cut lands on a line start
			if c.Start > 0 {
				assert.Equal(t, byte('\n'), data[c.Start-1], "%s chunk at %d", path, c.Start)
			}
			if strings.HasSuffix(path, ".go") {
				assert.Equal(t, types.LangGo, c.Language)
			}
		}
		assert.Equal(t, string(data), b.String(), path)
	}
}

func TestPersist_GoFixtureSearchable(t *testing.T) {
	root, err := filepath.Abs(fixtureRepo)
	require.NoError(t, err)

	cfg := testConfig(root)
	cfg.Chunking.TargetSize = 1000
	store := newStore(t)
	_, stats := runAndPersist(t, newAnalyzer(t, cfg), store)

	results, err := store.SearchText(context.Background(), stats.ProjectID, "bcrypt", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		chunk, err := store.GetChunk(context.Background(), stats.ProjectID, r.ChunkID)
		require.NoError(t, err)
		assert.Equal(t, "auth/authentication.go", chunk.SourcePath)
	}
}
