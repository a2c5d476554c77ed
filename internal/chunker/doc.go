// Package chunker partitions file content into bounded-size chunks for use
// as prompt context.
//
// Chunks are contiguous, non-overlapping and ordered by offset; their
// concatenation is the file content, byte for byte. Split points are chosen
// in this order:
//
//   - the last block boundary at or before the target size
//   - the first block boundary within the tolerance window
//     (target size × tolerance factor)
//   - the last line end at or before the target size
//   - the first line end within the tolerance window
//   - a cut at the target size, on a rune boundary
//
// Block boundaries depend on the language hint. Brace languages split after
// a line that closes a top-level block or a blank line at depth zero; Python
// splits before column-zero statements; Markdown splits before top-level
// headings and paragraphs. Languages without block structure, and the
// "lines" boundary policy, use line ends only, so a line is only ever cut
// when it alone exceeds the tolerance window.
//
// # Basic Usage
//
//	c, err := chunker.New(cfg.Chunking, cfg.Filter.MaxFileSize)
//	if err != nil {
//	    return err
//	}
//
//	chunks, stats, err := c.ChunkFile(entry)
//	if errors.Is(err, types.ErrFileRead) {
//	    // skip the file, count it
//	}
//
// # Chunk Identifiers
//
// A chunk id hashes the source path, the chunk offsets and the SHA-256 of
// the whole file. Ids are stable while a file is unchanged; any edit to the
// file produces new ids for all of its chunks.
package chunker
