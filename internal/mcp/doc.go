// Package mcp implements the Model Context Protocol (MCP) server for codefactory.
//
// The server exposes the repository analyzer to AI coding assistants over
// JSON-RPC 2.0 on stdio. Five tools are registered:
//   - analyze_repository: walk, chunk and store a repository, optionally writing artifacts
//   - get_skeleton: return the size-budgeted directory skeleton as text or JSON
//   - search_chunks: full-text search over stored chunks
//   - get_chunk: fetch one stored chunk by id
//   - get_status: report store statistics for an analyzed repository
//
// # Basic Usage
//
//	codefactory serve --db ./data/codefactory.db
//
// Every tool takes an absolute "path" naming the repository root. All other
// settings (filters, chunk size, skeleton budget) come from the server's
// configuration.
//
// # Tool: analyze_repository
//
//	Request:
//	{
//	  "name": "analyze_repository",
//	  "arguments": {"path": "/path/to/repo", "write_artifacts": true}
//	}
//
//	Response:
//	{
//	  "analyzed": true,
//	  "project_id": 1,
//	  "summary": {"files_seen": 42, "files_processed": 40, "chunks_created": 118},
//	  "store": {"files_updated": 3, "files_unchanged": 37, "chunks_written": 9}
//	}
//
// Files whose content is unchanged since the previous run keep their stored
// chunks. Only one analysis runs at a time; a concurrent request fails with
// ErrorCodeAnalysisInProgress.
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {"path": "/path/to/repo", "query": "retry backoff", "language": "go"}
//	}
//
// Query terms are matched literally; FTS5 operators in the query have no
// effect. Results are ranked by normalized BM25 score.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing or invalid arguments)
//   - -32603: Internal error (database, filesystem)
//   - -32001: Repository not found
//   - -32002: Analysis in progress
//   - -32003: Repository not analyzed
//   - -32004: Empty query
//   - -32005: Chunk not found
//
// # Logging
//
// The server logs to stderr through zap; stdout is reserved for the protocol.
package mcp
