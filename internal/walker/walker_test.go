package walker

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/filter"
	"github.com/dshills/codefactory/pkg/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newWalker(t *testing.T, root string, opts ...Option) *Walker {
	t.Helper()
	f, err := filter.New(config.Default().Filter)
	require.NoError(t, err)
	w, err := New(root, f, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return w
}

func collect(w *Walker) (all []types.FileEntry, paths []string) {
	for e := range w.Entries() {
		all = append(all, e)
		paths = append(paths, e.RelativePath)
	}
	return all, paths
}

func eligiblePaths(w *Walker) []string {
	var paths []string
	for e := range w.Eligible() {
		paths = append(paths, e.RelativePath)
	}
	return paths
}

func TestNew_RepositoryNotFound(t *testing.T) {
	f, err := filter.New(config.Default().Filter)
	require.NoError(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), f, nil)
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)

	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")
	_, err = New(filepath.Join(root, "file.txt"), f, nil)
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)
}

func TestEntries_LexicographicOrder(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b.py", "a/z.py", "a.b", "a0.py", "a/b/c.py", "A.md"} {
		writeFile(t, root, rel, "x\n")
	}

	_, paths := collect(newWalker(t, root))
	assert.Equal(t, []string{"A.md", "a.b", "a/b/c.py", "a/z.py", "a0.py", "b.py"}, paths)
	assert.True(t, slices.IsSorted(paths))
}

func TestEntries_Restartable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one.go", "package one\n")
	writeFile(t, root, "sub/two.go", "package two\n")

	w := newWalker(t, root)
	first, _ := collect(w)
	second, _ := collect(w)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestEntries_DenylistPruned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "print(1)\n")
	writeFile(t, root, "node_modules/x.js", "x")
	writeFile(t, root, "web/node_modules/deep/y.js", "y")
	writeFile(t, root, ".git/HEAD", "ref")

	var pruned []string
	w := newWalker(t, root, WithPruneHook(func(rel string, reason types.ExclusionReason) {
		assert.Equal(t, types.ReasonDenylisted, reason)
		pruned = append(pruned, rel)
	}))

	_, paths := collect(w)
	assert.Equal(t, []string{"a.py"}, paths)
	assert.ElementsMatch(t, []string{".git", "node_modules", "web/node_modules"}, pruned)
}

func TestEntries_MetadataAndReasons(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "logo.png", "png")
	writeFile(t, root, "blob.txt", "abc\x00def")

	all, _ := collect(newWalker(t, root))
	require.Len(t, all, 3)

	byPath := map[string]types.FileEntry{}
	for _, e := range all {
		byPath[e.RelativePath] = e
	}

	goFile := byPath["main.go"]
	assert.True(t, goFile.Eligible)
	assert.Equal(t, types.LangGo, goFile.Language)
	assert.Equal(t, int64(13), goFile.SizeBytes)
	assert.Equal(t, filepath.Join(newWalker(t, root).Root(), "main.go"), goFile.AbsolutePath)

	assert.Equal(t, types.ReasonBinary, byPath["logo.png"].Reason)
	assert.Equal(t, types.ReasonBinary, byPath["blob.txt"].Reason)
	assert.False(t, byPath["blob.txt"].Eligible)
}

func TestEntries_SniffDisabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "blob.txt", "abc\x00def")

	assert.Equal(t, []string{"blob.txt"}, eligiblePaths(newWalker(t, root, WithSniffBytes(0))))
}

func TestEntries_SymlinkLoop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.go", "package pkg\n")
	if err := os.Symlink(root, filepath.Join(root, "pkg", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "pkg", "a.go"), filepath.Join(root, "alias.go")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	all, paths := collect(newWalker(t, root))
	assert.Equal(t, []string{"alias.go", "pkg/a.go", "pkg/loop"}, paths)
	for _, e := range all {
		if e.RelativePath != "pkg/a.go" {
			assert.Equal(t, types.ReasonSymlink, e.Reason)
			assert.False(t, e.Eligible)
		}
	}
}

func TestEntries_EarlyStop(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a/1.go", "a/2.go", "b/3.go"} {
		writeFile(t, root, rel, "package x\n")
	}

	var seen []string
	for e := range newWalker(t, root).Entries() {
		seen = append(seen, e.RelativePath)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a/1.go", "a/2.go"}, seen)
}

func TestEntries_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeFile(t, root, "locked/secret.go", "package locked\n")
	writeFile(t, root, "open.go", "package open\n")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked"), 0o755) })

	var warned []string
	w := newWalker(t, root, WithWarningHook(func(rel string, err error) {
		warned = append(warned, rel)
	}))

	assert.Equal(t, []string{"open.go"}, eligiblePaths(w))
	assert.Equal(t, []string{"locked"}, warned)
}
