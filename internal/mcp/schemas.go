package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codefactory/pkg/types"
)

// pathProperty is the repository path parameter shared by every tool
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the repository root",
	}
}

// analyzeRepositoryTool returns the tool definition for analyze_repository
func analyzeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_repository",
		Description: "Walk a repository, build its budgeted skeleton and chunk every eligible file into the chunk store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"write_artifacts": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, also write project_skeleton.txt/json, chunks.json, dependencies.json and summary.json",
					"default":     false,
				},
				"output_dir": map[string]interface{}{
					"type":        "string",
					"description": "Directory for the artifacts (defaults to the configured output directory)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getSkeletonTool returns the tool definition for get_skeleton
func getSkeletonTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_skeleton",
		Description: "Return the size-budgeted directory skeleton of a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"format": map[string]interface{}{
					"type":        "string",
					"description": "text for the indented listing, json for the node tree",
					"enum":        []string{skeletonText, skeletonJSON},
					"default":     skeletonText,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	languages := make([]string, 0, len(types.AllLanguages))
	for _, l := range types.AllLanguages {
		languages = append(languages, string(l))
	}

	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Keyword (BM25) search over the chunks of an analyzed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms; every term must occur in a matching chunk",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Only return chunks with this language hint",
					"enum":        languages,
				},
				"path_glob": map[string]interface{}{
					"type":        "string",
					"description": "Glob over relative file paths (e.g., 'internal/*')",
				},
				"min_relevance": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getChunkTool returns the tool definition for get_chunk
func getChunkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_chunk",
		Description: "Return one stored chunk by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"chunk_id": map[string]interface{}{
					"type":        "string",
					"description": "Chunk id as returned by search_chunks or chunks.json",
				},
			},
			Required: []string{"path", "chunk_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query analysis status and chunk store statistics for a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
			},
			Required: []string{"path"},
		},
	}
}
