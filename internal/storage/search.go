package storage

import (
	"context"
	"fmt"
	"strings"
)

// searchText performs BM25 full-text search using FTS5
func searchText(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, ErrEmptyQuery
	}

	sqlQuery := `
		SELECT
			c.id AS chunk_id,
			bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.rowid
		INNER JOIN files f ON c.file_id = f.id
		WHERE chunks_fts MATCH ?
		AND f.project_id = ?
	`
	args := []interface{}{sanitized, projectID}

	sqlQuery, args = applyTextFilters(sqlQuery, args, filters)

	// bm25 is negative with lower meaning more relevant; ties resolve by path then offset
	sqlQuery += " ORDER BY score, f.file_path, c.start_offset LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.BM25Score); err != nil {
			return nil, err
		}
		result.BM25Score = normalizeBM25(result.BM25Score)

		if filters != nil && filters.MinRelevance > 0 && result.BM25Score < filters.MinRelevance {
			continue
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// applyTextFilters adds WHERE clause filters for text search
func applyTextFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.Languages) > 0 {
		query += " AND c.language IN (" + strings.TrimSuffix(strings.Repeat("?,", len(filters.Languages)), ",") + ")"
		for _, lang := range filters.Languages {
			args = append(args, lang)
		}
	}

	if filters.FilePattern != "" {
		query += " AND f.file_path GLOB ?"
		args = append(args, filters.FilePattern)
	}

	return query, args
}

// normalizeBM25 maps a raw bm25 score into (0, 1), higher is better
func normalizeBM25(raw float64) float64 {
	if raw >= 0 {
		return 0
	}
	s := -raw
	return s / (1 + s)
}

// sanitizeFTSQuery turns free text into an FTS5 query of quoted terms.
// Quoting neutralizes operators (AND, OR, NEAR, *, parentheses) and
// column filters; embedded quotes are doubled.
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.Trim(f, `"`) == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}
