package types

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeChunkID(t *testing.T) {
	hash := sha256.Sum256([]byte("package main\n"))

	id := ComputeChunkID("main.go", 0, 13, hash)
	assert.Len(t, id, 2*chunkIDBytes)
	assert.Equal(t, id, ComputeChunkID("main.go", 0, 13, hash), "ids are stable")

	other := sha256.Sum256([]byte("package other\n"))
	assert.NotEqual(t, id, ComputeChunkID("cmd/main.go", 0, 13, hash), "path")
	assert.NotEqual(t, id, ComputeChunkID("main.go", 1, 13, hash), "start")
	assert.NotEqual(t, id, ComputeChunkID("main.go", 0, 12, hash), "end")
	assert.NotEqual(t, id, ComputeChunkID("main.go", 0, 13, other), "file content")
}

func TestChunkValidate(t *testing.T) {
	valid := Chunk{ID: "abc", SourcePath: "a.go", Start: 2, End: 5, Content: "xyz", StartLine: 1, EndLine: 1}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, 3, valid.Len())

	tests := []struct {
		name   string
		mutate func(*Chunk)
	}{
		{"missing id", func(c *Chunk) { c.ID = "" }},
		{"missing path", func(c *Chunk) { c.SourcePath = "" }},
		{"negative start", func(c *Chunk) { c.Start = -1 }},
		{"empty range", func(c *Chunk) { c.End = c.Start }},
		{"length mismatch", func(c *Chunk) { c.Content = "xy" }},
		{"zero start line", func(c *Chunk) { c.StartLine = 0 }},
		{"end line before start", func(c *Chunk) { c.StartLine = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestModuleName(t *testing.T) {
	tests := map[string]string{
		"src/auth/UserService.java": "UserService",
		"main.go":                   "main",
		"Makefile":                  "Makefile",
		"archive.tar.gz":            "archive.tar",
		".env":                      ".env",
	}
	for in, want := range tests {
		assert.Equal(t, want, ModuleName(in), in)
	}
}

func TestNumberedContent(t *testing.T) {
	c := Chunk{Content: "a\n\nb\n", StartLine: 7}
	assert.Equal(t, "7 | a\n8 | \n9 | b\n", c.NumberedContent())
}

func TestChunkContentHash(t *testing.T) {
	c := Chunk{Content: "hello"}
	assert.Equal(t, sha256.Sum256([]byte("hello")), c.ContentHash())
}

func TestLanguageHint(t *testing.T) {
	for _, l := range AllLanguages {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, LanguageHint("cobol").Valid())
	assert.False(t, LanguageHint("").Valid())

	assert.Equal(t, BlockBrace, LangGo.BlockStyle())
	assert.Equal(t, BlockIndent, LangPython.BlockStyle())
	assert.Equal(t, BlockHeading, LangMarkdown.BlockStyle())
	assert.Equal(t, BlockNone, LangYAML.BlockStyle())
	assert.Equal(t, "brace", BlockBrace.String())
	assert.Equal(t, "none", BlockNone.String())
}

func TestSearchResultValidate(t *testing.T) {
	valid := SearchResult{ChunkID: "abc", Rank: 1, RelevanceScore: 0.5, Content: "x"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*SearchResult)
		want   error
	}{
		{"missing id", func(r *SearchResult) { r.ChunkID = "" }, ErrInvalidChunkID},
		{"zero rank", func(r *SearchResult) { r.Rank = 0 }, ErrInvalidRank},
		{"score above one", func(r *SearchResult) { r.RelevanceScore = 1.5 }, ErrInvalidRelevanceScore},
		{"negative score", func(r *SearchResult) { r.RelevanceScore = -0.1 }, ErrInvalidRelevanceScore},
		{"empty content", func(r *SearchResult) { r.Content = "" }, ErrEmptyContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestSummarySkippedRatio(t *testing.T) {
	var empty Summary
	assert.Zero(t, empty.SkippedRatio())

	s := Summary{FilesSeen: 8, FilesSkipped: 1, FilesFiltered: 2, FilesOversized: 1, FilesEmpty: 3}
	assert.InDelta(t, 0.5, s.SkippedRatio(), 1e-9)
}

func TestSkeletonNodeWalk(t *testing.T) {
	root := &SkeletonNode{Path: "repo", Kind: NodeDir, Children: []*SkeletonNode{
		{Path: "repo/a", Kind: NodeDir, Children: []*SkeletonNode{{Path: "repo/a/x.go", Kind: NodeFile}}},
		{Path: "repo/b.go", Kind: NodeFile},
	}}

	var visited []string
	root.Walk(func(n *SkeletonNode) bool {
		visited = append(visited, n.Path)
		return true
	})
	assert.Equal(t, []string{"repo", "repo/a", "repo/a/x.go", "repo/b.go"}, visited)

	visited = nil
	assert.False(t, root.Walk(func(n *SkeletonNode) bool {
		visited = append(visited, n.Path)
		return n.Kind == NodeDir
	}))
	assert.Equal(t, []string{"repo", "repo/a", "repo/a/x.go"}, visited)

	var nilNode *SkeletonNode
	assert.True(t, nilNode.Walk(func(*SkeletonNode) bool { return false }))
}
