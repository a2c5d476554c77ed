// Package searcher implements BM25 keyword search over stored chunks.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store)
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    ProjectID: project.ID,
//	    Query:     "user authentication",
//	    Limit:     10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s:%d-%d (score: %.2f)\n",
//	        r.Rank, r.SourcePath, r.Start, r.End, r.RelevanceScore)
//	}
//
// # Query Syntax
//
// Queries are free text. Every whitespace separated term is matched
// literally, so FTS5 operators such as AND, NEAR or * in user input carry
// no special meaning. A chunk must contain all terms to match.
//
// # Filtering
//
//	resp, _ := s.Search(ctx, searcher.Request{
//	    Query:        "connect",
//	    Language:     types.LangPython,
//	    PathGlob:     "scripts/*",
//	    MinRelevance: 0.2,
//	})
//
// PathGlob uses SQLite GLOB semantics, where * also matches "/".
//
// # Relevance Scoring
//
// Raw bm25 scores are mapped into (0, 1), higher is better. Scores are only
// comparable within one query.
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache (1000 entries,
// one hour TTL by default). Callers own the returned responses; the cache
// keeps its own copy. InvalidateCache purges everything and is called after
// a project is re-analyzed.
package searcher
