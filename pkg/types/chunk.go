package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"path"
	"strconv"
	"strings"
)

// chunkIDBytes is the number of hash bytes kept in a chunk id
const chunkIDBytes = 16

// Chunk is a contiguous, non-overlapping slice of a source file
type Chunk struct {
	ID         string       `json:"id"`
	SourcePath string       `json:"source_path"`
	Start      int          `json:"start"` // byte offset, inclusive
	End        int          `json:"end"`   // byte offset, exclusive
	Content    string       `json:"content"`
	Language   LanguageHint `json:"language"`

	StartLine int    `json:"start_line"` // 1-based line of the first byte
	EndLine   int    `json:"end_line"`   // 1-based line of the last byte
	Module    string `json:"module"`     // file name without extension

	// ContextBefore carries the tail of the previous chunk when overlap is
	// enabled. It is prompt context only and not part of the partition.
	ContextBefore string `json:"context_before,omitempty"`
}

// ComputeChunkID derives a stable chunk id from the source path, the chunk
// offsets and the hash of the whole file content.
func ComputeChunkID(sourcePath string, start, end int, fileHash [32]byte) string {
	h := sha256.New()
	h.Write([]byte(sourcePath))
	h.Write([]byte{0})

	var offsets [16]byte
	binary.BigEndian.PutUint64(offsets[:8], uint64(start))
	binary.BigEndian.PutUint64(offsets[8:], uint64(end))
	h.Write(offsets[:])
	h.Write(fileHash[:])

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:chunkIDBytes])
}

// ModuleName returns the class or module name a file is known by: its base
// name without the extension
func ModuleName(sourcePath string) string {
	base := path.Base(sourcePath)
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" {
		return stem
	}
	return base
}

// NumberedContent returns the content with every line prefixed by its
// 1-based line number, "N | line"
func (c *Chunk) NumberedContent() string {
	var b strings.Builder
	line := c.StartLine
	for rest := c.Content; rest != ""; line++ {
		text, tail, found := strings.Cut(rest, "\n")
		b.WriteString(strconv.Itoa(line))
		b.WriteString(" | ")
		b.WriteString(text)
		if found {
			b.WriteByte('\n')
		}
		rest = tail
	}
	return b.String()
}

// ContentHash returns the SHA-256 hash of the chunk content
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// Len returns the chunk length in bytes
func (c *Chunk) Len() int {
	return c.End - c.Start
}

// Validate performs consistency checks on the chunk
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk id is required")
	}
	if c.SourcePath == "" {
		return errors.New("chunk source path is required")
	}
	if c.Start < 0 || c.End <= c.Start {
		return errors.New("chunk offsets must satisfy 0 <= start < end")
	}
	if len(c.Content) != c.End-c.Start {
		return errors.New("chunk content length does not match offsets")
	}
	if c.StartLine < 1 || c.EndLine < c.StartLine {
		return errors.New("chunk lines must satisfy 1 <= start_line <= end_line")
	}
	return nil
}
