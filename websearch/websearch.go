// Package websearch defines the web-search collaborator used to gather
// snippets for categories that are not answered from local source material.
//
// Implementations live in subpackages: tavily talks to the Tavily search API
// and page fetches result pages to replace thin hit content with the page's
// readable text.
package websearch

import (
	"context"
	"errors"

	"github.com/poiesic/boroughs/core"
)

// ErrSearchFailed indicates the search provider could not answer a query.
var ErrSearchFailed = errors.New("web search failed")

// Hit is one search result.
type Hit struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Snippet converts the hit into a snippet tagged with the originating query.
func (h Hit) Snippet(query string) core.Snippet {
	return core.Snippet{
		Content: h.Content,
		URL:     h.URL,
		Query:   query,
	}
}

// Searcher runs free-text queries against a search provider.
type Searcher interface {
	// Search returns hits in provider ranking order. No hits is not an error.
	Search(ctx context.Context, query string) ([]Hit, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string) ([]Hit, error)

// Search calls f(ctx, query).
func (f SearcherFunc) Search(ctx context.Context, query string) ([]Hit, error) {
	return f(ctx, query)
}
