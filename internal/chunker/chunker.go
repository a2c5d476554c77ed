package chunker

import (
	"crypto/sha256"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/pkg/types"
)

// Stats counts how chunk ends were chosen
type Stats struct {
	BoundarySplits int // end of a top-level block, heading or paragraph
	LineSplits     int // end of a line
	ForcedSplits   int // cut inside a line at the target size
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.BoundarySplits += other.BoundarySplits
	s.LineSplits += other.LineSplits
	s.ForcedSplits += other.ForcedSplits
}

// Chunker partitions file content into bounded-size chunks.
// A Chunker holds no mutable state and is safe for concurrent use.
type Chunker struct {
	target       int
	window       int
	linesOnly    bool
	overlapLines int
	maxFileSize  int64
}

// New creates a Chunker. maxFileSize <= 0 disables the size ceiling.
func New(cfg config.Chunking, maxFileSize int64) (*Chunker, error) {
	if cfg.TargetSize <= 0 {
		return nil, fmt.Errorf("chunk target size must be > 0, got %d", cfg.TargetSize)
	}
	factor := cfg.ToleranceFactor
	if factor < 1 {
		factor = 1
	}

	return &Chunker{
		target:       cfg.TargetSize,
		window:       int(float64(cfg.TargetSize) * factor),
		linesOnly:    cfg.Boundary == config.BoundaryLines,
		overlapLines: cfg.OverlapLines,
		maxFileSize:  maxFileSize,
	}, nil
}

// MaxChunkSize is the largest chunk the Chunker can produce
func (c *Chunker) MaxChunkSize() int {
	return c.window
}

// ChunkFile reads entry from disk and chunks it
func (c *Chunker) ChunkFile(entry types.FileEntry) ([]types.Chunk, Stats, error) {
	content, err := os.ReadFile(entry.AbsolutePath)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: %v", types.ErrFileRead, entry.RelativePath, err)
	}
	return c.ChunkContent(entry, content)
}

// ChunkContent partitions content into chunks ordered by offset.
// Concatenating the chunk contents reproduces the text exactly. Content that
// is not valid UTF-8 is decoded as ISO-8859-1 first and offsets refer to the
// decoded text.
func (c *Chunker) ChunkContent(entry types.FileEntry, content []byte) ([]types.Chunk, Stats, error) {
	if c.maxFileSize > 0 && int64(len(content)) > c.maxFileSize {
		return nil, Stats{}, fmt.Errorf("%w: %s is %d bytes", types.ErrOversizedFile, entry.RelativePath, len(content))
	}
	if len(content) == 0 {
		return nil, Stats{}, nil
	}

	fileHash := sha256.Sum256(content)
	text := decode(content)

	style := entry.Language.BlockStyle()
	if c.linesOnly {
		style = types.BlockNone
	}

	ends := lineEnds(text)
	var boundaries []int
	switch style {
	case types.BlockBrace:
		boundaries = braceBoundaries(text)
	case types.BlockIndent:
		boundaries = indentBoundaries(text)
	case types.BlockHeading:
		boundaries = headingBoundaries(text)
	}

	var (
		chunks []types.Chunk
		stats  Stats
		pos    int
		module = types.ModuleName(entry.RelativePath)
	)
	for pos < len(text) {
		end := c.nextEnd(text, pos, boundaries, ends, &stats)

		chunk := types.Chunk{
			ID:         types.ComputeChunkID(entry.RelativePath, pos, end, fileHash),
			SourcePath: entry.RelativePath,
			Start:      pos,
			End:        end,
			Content:    text[pos:end],
			Language:   entry.Language,
			StartLine:  lineAt(ends, pos),
			EndLine:    lineAt(ends, end-1),
			Module:     module,
		}
		if c.overlapLines > 0 && len(chunks) > 0 {
			chunk.ContextBefore = tailLines(chunks[len(chunks)-1].Content, c.overlapLines)
		}
		chunks = append(chunks, chunk)
		pos = end
	}

	return chunks, stats, nil
}

// nextEnd picks the end of the chunk starting at pos
func (c *Chunker) nextEnd(text string, pos int, boundaries, lineEnds []int, stats *Stats) int {
	n := len(text)
	if n-pos <= c.target {
		return n
	}

	limit := pos + c.target
	window := min(pos+c.window, n)

	// Safe split point at or before the target, then within the tolerance window
	if b, ok := lastIn(boundaries, pos, limit); ok {
		stats.BoundarySplits++
		return b
	}
	if b, ok := firstIn(boundaries, limit, window); ok {
		stats.BoundarySplits++
		return b
	}

	// Whole lines
	if b, ok := lastIn(lineEnds, pos, limit); ok {
		stats.LineSplits++
		return b
	}
	if b, ok := firstIn(lineEnds, limit, window); ok {
		stats.LineSplits++
		return b
	}

	// A single line longer than the window is cut at the target
	stats.ForcedSplits++
	end := limit
	for end > pos && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == pos {
		end = limit
		for end < n && !utf8.RuneStart(text[end]) {
			end++
		}
	}
	return end
}

// lastIn returns the largest offset b in sorted with lo < b <= hi
func lastIn(sorted []int, lo, hi int) (int, bool) {
	i, found := slices.BinarySearch(sorted, hi)
	if found {
		i++
	}
	if i == 0 || sorted[i-1] <= lo {
		return 0, false
	}
	return sorted[i-1], true
}

// firstIn returns the smallest offset b in sorted with lo < b <= hi
func firstIn(sorted []int, lo, hi int) (int, bool) {
	i, found := slices.BinarySearch(sorted, lo)
	if found {
		i++
	}
	if i == len(sorted) || sorted[i] > hi {
		return 0, false
	}
	return sorted[i], true
}

// lineAt returns the 1-based line holding the byte at off
func lineAt(lineEnds []int, off int) int {
	i, found := slices.BinarySearch(lineEnds, off)
	if found {
		i++
	}
	return i + 1
}

// lineEnds returns the offset just past every line, including a final line
// without a trailing newline
func lineEnds(text string) []int {
	ends := make([]int, 0, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			ends = append(ends, i+1)
		}
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		ends = append(ends, len(text))
	}
	return ends
}

// tailLines returns the last n lines of s
func tailLines(s string, n int) string {
	end := len(s)
	if end > 0 && s[end-1] == '\n' {
		end--
	}
	start := end
	for count := 0; start > 0; {
		i := strings.LastIndexByte(s[:start], '\n')
		if i < 0 {
			start = 0
			break
		}
		count++
		if count == n {
			start = i + 1
			break
		}
		start = i
	}
	return s[start:]
}
