// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/index"
	"github.com/poiesic/boroughs/source"
	"github.com/poiesic/boroughs/websearch"
)

// DefaultK is the number of index hits considered before keyword filtering.
const DefaultK = 30

// Retriever returns snippets for one neighborhood and category, in a
// deterministic order.
type Retriever interface {
	Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error)
}

// Supporter is implemented by retrievers that serve only some categories.
type Supporter interface {
	Supports(category core.Category) bool
}

// Enricher rewrites a snippet, typically replacing thin search content with
// the text of the page it links to.
type Enricher interface {
	Enrich(ctx context.Context, snippet core.Snippet) (core.Snippet, error)
}

func retrievalError(category core.Category, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrRetrievalFailed, category, err)
}

// KeywordRetriever filters vector index hits by category keywords.
type KeywordRetriever struct {
	index  index.Index
	table  *config.Table
	k      int
	logger *slog.Logger
}

var _ Retriever = (*KeywordRetriever)(nil)

// KeywordOption configures a KeywordRetriever.
type KeywordOption func(*KeywordRetriever)

// WithK sets how many index hits are filtered.
func WithK(k int) KeywordOption {
	return func(r *KeywordRetriever) {
		if k > 0 {
			r.k = k
		}
	}
}

// NewKeywordRetriever creates a retriever over idx.
func NewKeywordRetriever(idx index.Index, table *config.Table, opts ...KeywordOption) *KeywordRetriever {
	r := &KeywordRetriever{
		index:  idx,
		table:  table,
		k:      DefaultK,
		logger: slog.Default().With("component", "retriever", "strategy", "keyword"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve queries the index with the category's neighborhood-scoped query
// and keeps, in ranking order, the hits whose lowercased text contains at
// least one keyword.
func (r *KeywordRetriever) Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error) {
	cfg, err := r.table.Lookup(category)
	if err != nil {
		return nil, err
	}
	if !cfg.HasKeywords() {
		return []core.Snippet{}, nil
	}

	query := cfg.IndexQuery(key)
	hits, err := r.index.Query(ctx, query, r.k)
	if err != nil {
		return nil, retrievalError(category, err)
	}

	filtered := make([]core.Snippet, 0, len(hits))
	for _, hit := range hits {
		if containsAny(strings.ToLower(hit.Content), cfg.Keywords) {
			filtered = append(filtered, hit)
		}
	}

	r.logger.Debug("retrieved",
		"neighborhood", key.Neighborhood,
		"category", category,
		"hits", len(hits),
		"kept", len(filtered))
	return filtered, nil
}

// Close closes the underlying index.
func (r *KeywordRetriever) Close() error {
	return r.index.Close()
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SearchRetriever issues one web search per category.
type SearchRetriever struct {
	searcher websearch.Searcher
	table    *config.Table
	enricher Enricher
	logger   *slog.Logger
}

var _ Retriever = (*SearchRetriever)(nil)

// SearchOption configures a SearchRetriever.
type SearchOption func(*SearchRetriever)

// WithEnricher enriches each hit before it is returned.
func WithEnricher(enricher Enricher) SearchOption {
	return func(r *SearchRetriever) {
		r.enricher = enricher
	}
}

// NewSearchRetriever creates a retriever backed by searcher.
func NewSearchRetriever(searcher websearch.Searcher, table *config.Table, opts ...SearchOption) *SearchRetriever {
	r := &SearchRetriever{
		searcher: searcher,
		table:    table,
		logger:   slog.Default().With("component", "retriever", "strategy", "search"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve searches with the category's template and returns every hit as a
// snippet carrying its URL and the query. Hits without content are dropped.
func (r *SearchRetriever) Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error) {
	cfg, err := r.table.Lookup(category)
	if err != nil {
		return nil, err
	}
	if !cfg.HasSearch() {
		return []core.Snippet{}, nil
	}

	query := cfg.SearchQuery(key)
	hits, err := r.searcher.Search(ctx, query)
	if err != nil {
		return nil, retrievalError(category, err)
	}

	snippets := make([]core.Snippet, 0, len(hits))
	for _, hit := range hits {
		snippet := hit.Snippet(query)
		if r.enricher != nil {
			snippet, err = r.enricher.Enrich(ctx, snippet)
			if err != nil {
				return nil, retrievalError(category, err)
			}
		}
		if strings.TrimSpace(snippet.Content) == "" {
			continue
		}
		snippets = append(snippets, snippet)
	}

	r.logger.Debug("retrieved",
		"neighborhood", key.Neighborhood,
		"category", category,
		"query", query,
		"hits", len(snippets))
	return snippets, nil
}

// MaterialRetriever serves snippets from pre-extracted source material.
type MaterialRetriever struct {
	material *source.Material
}

var _ Retriever = (*MaterialRetriever)(nil)

// NewMaterialRetriever creates a retriever over material.
func NewMaterialRetriever(material *source.Material) *MaterialRetriever {
	return &MaterialRetriever{material: material}
}

// Retrieve returns the material recorded for category.
func (r *MaterialRetriever) Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.material.Snippets(category), nil
}

// Router dispatches each category to the retriever for its strategy.
// Either route may be nil.
type Router struct {
	table   *config.Table
	keyword Retriever
	search  Retriever
}

var (
	_ Retriever = (*Router)(nil)
	_ Supporter = (*Router)(nil)
	_ io.Closer = (*Router)(nil)
)

// NewRouter creates a router. keyword serves StrategyKeyword categories and
// search serves StrategySearch categories.
func NewRouter(table *config.Table, keyword, search Retriever) *Router {
	return &Router{table: table, keyword: keyword, search: search}
}

// route picks the preferred strategy's retriever, or the other one when the
// category is configured for it.
func (r *Router) route(category core.Category) Retriever {
	cfg, err := r.table.Lookup(category)
	if err != nil {
		return nil
	}
	keyword := r.keyword != nil && cfg.HasKeywords()
	search := r.search != nil && cfg.HasSearch()
	switch {
	case cfg.Strategy == config.StrategyKeyword && keyword:
		return r.keyword
	case cfg.Strategy == config.StrategySearch && search:
		return r.search
	case keyword:
		return r.keyword
	case search:
		return r.search
	}
	return nil
}

// Supports reports whether some route can serve category.
func (r *Router) Supports(category core.Category) bool {
	return r.route(category) != nil
}

// Retrieve delegates to the category's route. An unroutable category yields
// no snippets.
func (r *Router) Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error) {
	if _, err := r.table.Lookup(category); err != nil {
		return nil, err
	}
	route := r.route(category)
	if route == nil {
		return []core.Snippet{}, nil
	}
	return route.Retrieve(ctx, key, category)
}

// Close closes every route that holds resources.
func (r *Router) Close() error {
	var errs []error
	for _, route := range []Retriever{r.keyword, r.search} {
		if c, ok := route.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
