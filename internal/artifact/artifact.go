// Package artifact persists the results of an analysis run as the files
// consumed by downstream generators, and reads them back.
package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/codefactory/internal/manifest"
	"github.com/dshills/codefactory/pkg/types"
)

// Artifact file names
const (
	SkeletonTextFile = "project_skeleton.txt"
	SkeletonJSONFile = "project_skeleton.json"
	ChunksFile       = "chunks.json"
	DependenciesFile = "dependencies.json"
	SummaryFile      = "summary.json"
)

// Names lists every artifact file a run writes
func Names() []string {
	return []string{SkeletonTextFile, SkeletonJSONFile, ChunksFile, DependenciesFile, SummaryFile}
}

// Set is everything one run writes
type Set struct {
	SkeletonText string
	Skeleton     *types.SkeletonNode
	Chunks       []types.Chunk
	Dependencies manifest.Dependencies
	Summary      types.Summary
}

// Write stores every artifact of set in dir. Each file is written to a
// temporary name and renamed into place, so readers never observe a
// partial file.
func Write(dir string, set Set) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	chunks := set.Chunks
	if chunks == nil {
		chunks = []types.Chunk{}
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{SkeletonTextFile, func(w io.Writer) error {
			_, err := io.WriteString(w, set.SkeletonText)
			return err
		}},
		{SkeletonJSONFile, encodeJSON(set.Skeleton)},
		{ChunksFile, encodeJSON(chunks)},
		{DependenciesFile, encodeJSON(set.Dependencies)},
		{SummaryFile, encodeJSON(set.Summary)},
	}

	for _, f := range files {
		if err := WriteFile(filepath.Join(dir, f.name), f.write); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}

// WriteFile atomically replaces name with the output of write
func WriteFile(name string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	buf := bufio.NewWriter(tmp)
	if err := write(buf); err != nil {
		cleanup()
		return err
	}
	if err := buf.Flush(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, name); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func encodeJSON(v any) func(io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// ReadChunks loads chunks.json from dir
func ReadChunks(dir string) ([]types.Chunk, error) {
	var chunks []types.Chunk
	if err := readJSON(filepath.Join(dir, ChunksFile), &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// ReadSkeleton loads project_skeleton.json from dir
func ReadSkeleton(dir string) (*types.SkeletonNode, error) {
	var root types.SkeletonNode
	if err := readJSON(filepath.Join(dir, SkeletonJSONFile), &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// ReadSkeletonText loads project_skeleton.txt from dir
func ReadSkeletonText(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, SkeletonTextFile))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", SkeletonTextFile, err)
	}
	return string(data), nil
}

// ReadSummary loads summary.json from dir
func ReadSummary(dir string) (types.Summary, error) {
	var summary types.Summary
	err := readJSON(filepath.Join(dir, SummaryFile), &summary)
	return summary, err
}

// ReadDependencies loads dependencies.json from dir
func ReadDependencies(dir string) (manifest.Dependencies, error) {
	var deps manifest.Dependencies
	err := readJSON(filepath.Join(dir, DependenciesFile), &deps)
	return deps, err
}

func readJSON(name string, v any) error {
	file, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(name), err)
	}
	defer func() { _ = file.Close() }()

	if err := json.NewDecoder(bufio.NewReader(file)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(name), err)
	}
	return nil
}
