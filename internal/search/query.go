package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query.
type Params struct {
	Query string // User's search query
	Tag   string // Filter by exact tag (optional)

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result, ordered by relevance.
// Only the identity fields are authoritative; hits must be resolved
// against the primary store for the full talk record.
type Hit struct {
	ID        string            `json:"id"`
	Slug      string            `json:"slug"`
	Score     float64           `json:"score"`
	Title     string            `json:"title"`
	Speaker   string            `json:"speaker,omitempty"`
	RawTags   string            `json:"raw_tags,omitempty"` // Comma-joined, as stored
	Highlight map[string]string `json:"highlight,omitempty"`
}

// Search executes a search query and returns hits ranked by relevance.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")

	// Request stored fields
	searchRequest.Fields = []string{"id", "slug", "title", "speaker", "raw_tags"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if s, ok := hit.Fields["slug"].(string); ok {
			searchHit.Slug = s
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if sp, ok := hit.Fields["speaker"].(string); ok {
			searchHit.Speaker = sp
		}
		if rt, ok := hit.Fields["raw_tags"].(string); ok {
			searchHit.RawTags = rt
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlight = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlight[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	// Main text query across title, description, speaker and tags.
	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		speakerMatch := bleve.NewMatchQuery(params.Query)
		speakerMatch.SetField("speaker")
		speakerMatch.SetBoost(1.5)
		textQueries = append(textQueries, speakerMatch)

		// Exact tag hits rank high
		tagTerm := bleve.NewTermQuery(strings.ToLower(params.Query))
		tagTerm.SetField("tags")
		tagTerm.SetBoost(2.0)
		textQueries = append(textQueries, tagTerm)

		// Fuzzy matching for typo tolerance on title
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for partial words (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Tag filter (exact match)
	if params.Tag != "" {
		tq := bleve.NewTermQuery(params.Tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
