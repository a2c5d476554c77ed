package skeleton

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codefactory/pkg/types"
)

func entries(paths ...string) []types.FileEntry {
	out := make([]types.FileEntry, 0, len(paths))
	for _, p := range paths {
		out = append(out, types.FileEntry{RelativePath: p, Eligible: true})
	}
	return out
}

func buildTree(paths ...string) *Tree {
	return Build("repo", slices.Values(entries(paths...)))
}

func findNode(root *types.SkeletonNode, p string) *types.SkeletonNode {
	var found *types.SkeletonNode
	root.Walk(func(n *types.SkeletonNode) bool {
		if n.Path == p {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestRender_Unlimited(t *testing.T) {
	tree := buildTree("README.md", "src/main.go", "src/util/str.go", "docs/guide.md")

	r := tree.Render(0, 0)
	want := strings.Join([]string{
		"repo/",
		"  docs/",
		"    guide.md",
		"  src/",
		"    util/",
		"      str.go",
		"    main.go",
		"  README.md",
		"",
	}, "\n")
	assert.Equal(t, want, r.Text)
	assert.False(t, r.Stats.Truncated())
	assert.Equal(t, 4, r.Stats.Files)
	assert.Equal(t, 4, r.Stats.Dirs)
	assert.Equal(t, len(want), r.Stats.Bytes)
}

func TestRender_LargeDirectoryTruncatedFirst(t *testing.T) {
	var paths []string
	for i := 0; i < 500; i++ {
		paths = append(paths, fmt.Sprintf("big/file%03d.py", i))
	}
	paths = append(paths, "small/a.py", "small/b.py")
	tree := buildTree(paths...)

	r := tree.Render(100, 0)
	assert.LessOrEqual(t, len(r.Text), 100)
	assert.Contains(t, r.Text, "  big/ (+500 more files)\n")
	assert.Contains(t, r.Text, "  small/\n    a.py\n    b.py\n")

	big := findNode(r.Root, "big")
	require.NotNil(t, big)
	assert.True(t, big.Truncated)
	assert.Equal(t, 500, big.Omitted)
	assert.Empty(t, big.Children)

	small := findNode(r.Root, "small")
	require.NotNil(t, small)
	assert.False(t, small.Truncated)
	assert.Len(t, small.Children, 2)

	assert.True(t, r.Stats.Truncated())
	assert.Equal(t, 1, r.Stats.TruncatedDirs)
	assert.Equal(t, 500, r.Stats.OmittedFiles)
}

func TestRender_NeverExceedsBudget(t *testing.T) {
	var paths []string
	for d := 0; d < 12; d++ {
		for f := 0; f <= d*3; f++ {
			paths = append(paths, fmt.Sprintf("pkg%02d/sub%d/file_%d.go", d, f%3, f))
		}
	}
	tree := buildTree(paths...)
	full := tree.Render(0, 0)

	for budget := 1; budget <= len(full.Text)+10; budget += 7 {
		r := tree.Render(budget, 0)
		assert.LessOrEqual(t, len(r.Text), budget, "budget %d", budget)
		assert.Equal(t, len(r.Text), r.Stats.Bytes)

		// Every file is either listed or counted in a truncated ancestor
		assert.Equal(t, tree.FileCount(), r.Stats.Files+r.Stats.OmittedFiles, "budget %d", budget)
	}
}

func TestRender_RootDoesNotFit(t *testing.T) {
	tree := buildTree("a.go", "b.go")

	r := tree.Render(5, 0)
	assert.Empty(t, r.Text)
	assert.True(t, r.Root.Truncated)
	assert.Equal(t, 2, r.Root.Omitted)
	assert.Equal(t, ".", r.Root.Path)
	assert.NotNil(t, r.Root.Children)
}

func TestRender_CollapsedRootOnly(t *testing.T) {
	tree := buildTree("a.go", "b.go")

	line := "repo/ (+2 more files)\n"
	r := tree.Render(len(line), 0)
	assert.Equal(t, line, r.Text)
	assert.True(t, r.Root.Truncated)
}

func TestRender_Deterministic(t *testing.T) {
	paths := []string{"z/1.go", "a/2.go", "m/n/3.go", "m/4.go", "5.go", "a/6.go"}
	first := Build("repo", slices.Values(entries(paths...))).Render(60, 0)

	slices.Reverse(paths)
	second := Build("repo", slices.Values(entries(paths...))).Render(60, 0)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Root, second.Root)
}

func TestRender_TiesBrokenByPath(t *testing.T) {
	tree := buildTree(
		"aa/long_file_name_1.go", "aa/long_file_name_2.go", "aa/long_file_name_3.go",
		"bb/long_file_name_1.go", "bb/long_file_name_2.go", "bb/long_file_name_3.go",
	)

	// Root listing with both directories collapsed, plus room to expand
	// exactly one of the two equally sized directories
	rootListing := "repo/\n  aa/ (+3 more files)\n  bb/ (+3 more files)\n"
	expandOne := len("  aa/\n") + 3*len("    long_file_name_1.go\n") - len("  aa/ (+3 more files)\n")
	r := tree.Render(len(rootListing)+expandOne, 0)

	assert.False(t, findNode(r.Root, "aa").Truncated)
	assert.True(t, findNode(r.Root, "bb").Truncated)
	assert.Equal(t, len(rootListing)+expandOne, len(r.Text))
}

func TestRender_LargerSiblingNeverExpandedPastSmaller(t *testing.T) {
	// a/ holds one long name and costs more to expand than b/ with two
	// short names; b/ is still the larger directory
	tree := buildTree(
		"a/"+strings.Repeat("n", 57)+".py",
		"b/x.py", "b/y.py",
	)

	r := tree.Render(50, 0)
	assert.LessOrEqual(t, len(r.Text), 50)

	a := findNode(r.Root, "a")
	b := findNode(r.Root, "b")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.Truncated)
	assert.True(t, b.Truncated, "b/ fits the budget but is larger than the truncated a/")
	assert.Contains(t, r.Text, "  b/ (+2 more files)
")
}

func TestRender_MaxDepth(t *testing.T) {
	tree := buildTree("a/b/c/d.go", "top.go")

	r := tree.Render(0, 2)
	assert.Equal(t, "repo/\n  a/\n    b/ (+1 more files)\n  top.go\n", r.Text)
	assert.True(t, findNode(r.Root, "a/b").Truncated)
}

func TestBuild_IgnoresIneligible(t *testing.T) {
	es := entries("keep.go")
	es = append(es, types.FileEntry{RelativePath: "node_modules/x.js", Reason: types.ReasonDenylisted})

	tree := Build("repo", slices.Values(es))
	assert.Equal(t, 1, tree.FileCount())
	assert.NotContains(t, tree.Render(0, 0).Text, "node_modules")
}

func TestBuild_EmptyRepository(t *testing.T) {
	r := Build("repo", slices.Values([]types.FileEntry(nil))).Render(100, 0)
	assert.Equal(t, "repo/\n", r.Text)
	assert.False(t, r.Root.Truncated)
}

func TestRendering_JSONShape(t *testing.T) {
	r := buildTree("src/a.py").Render(0, 0)

	data, err := json.Marshal(r.Root)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": ".", "kind": "dir", "truncated": false, "children": [
			{"path": "src", "kind": "dir", "truncated": false, "children": [
				{"path": "src/a.py", "kind": "file", "truncated": false, "children": []}
			]}
		]
	}`, string(data))
}

func BenchmarkRender(b *testing.B) {
	var paths []string
	for d := 0; d < 100; d++ {
		for f := 0; f < 100; f++ {
			paths = append(paths, fmt.Sprintf("dir%03d/inner/file%03d.go", d, f))
		}
	}
	tree := buildTree(paths...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Render(16000, 0)
	}
}
