package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/packdex/packdex-server/internal/domain"
)

// Params configures a directory query.
type Params struct {
	Query       string
	IncludeNSFW bool
	Limit       int
	Offset      int
}

// DefaultParams returns the parameters used when the caller sets none.
func DefaultParams() Params {
	return Params{Limit: 20}
}

// Result is one page of directory hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is one matching pack.
type Hit struct {
	ID             string          `json:"id"`
	Kind           domain.PackKind `json:"kind"`
	Score          float64         `json:"score"`
	Title          string          `json:"title"`
	Author         string          `json:"author,omitempty"`
	NSFW           bool            `json:"nsfw"`
	MediaCount     int             `json:"media_count"`
	CharacterCount int             `json:"character_count"`
}

// Search queries the directory. An empty query lists every pack by id.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}
	params.Query = strings.TrimSpace(params.Query)

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	if params.Query == "" {
		req.SortBy([]string{"id"})
	} else {
		req.SortBy([]string{"-_score", "id"})
	}
	req.Fields = []string{"id", "kind", "title", "author", "nsfw", "media_count", "character_count"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = domain.PackKind(v)
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["author"].(string); ok {
			hit.Author = v
		}
		if v, ok := h.Fields["nsfw"].(bool); ok {
			hit.NSFW = v
		}
		if v, ok := h.Fields["media_count"].(float64); ok {
			hit.MediaCount = int(v)
		}
		if v, ok := h.Fields["character_count"].(float64); ok {
			hit.CharacterCount = int(v)
		}
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

// buildQuery matches titles first, then media titles, authors, and descriptions.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		text := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		text = append(text, titleMatch)

		mediaMatch := bleve.NewMatchQuery(params.Query)
		mediaMatch.SetField("media_titles")
		mediaMatch.SetBoost(1.5)
		text = append(text, mediaMatch)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")
		text = append(text, authorMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)
		text = append(text, descMatch)

		// Typo tolerance on titles
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		text = append(text, fuzzy)

		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if !params.IncludeNSFW {
		safe := bleve.NewBoolFieldQuery(false)
		safe.SetField("nsfw")
		queries = append(queries, safe)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
