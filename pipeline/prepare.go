package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/boroughs/chunking"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/index"
	"github.com/poiesic/boroughs/retrieval"
	"github.com/poiesic/boroughs/source"
)

// Passes is a retriever made of several retrieval passes. The driver runs
// every pass that serves a category and merges the results in pass order.
type Passes []retrieval.Retriever

var (
	_ retrieval.Retriever = Passes(nil)
	_ retrieval.Supporter = Passes(nil)
	_ io.Closer           = Passes(nil)
)

// Retrieve concatenates the snippets of every pass serving category.
func (p Passes) Retrieve(ctx context.Context, key core.NeighborhoodKey, category core.Category) ([]core.Snippet, error) {
	out := []core.Snippet{}
	for _, pass := range p {
		if s, ok := pass.(retrieval.Supporter); ok && !s.Supports(category) {
			continue
		}
		snippets, err := pass.Retrieve(ctx, key, category)
		if err != nil {
			return nil, err
		}
		out = append(out, snippets...)
	}
	return out, nil
}

// Supports reports whether any pass serves category.
func (p Passes) Supports(category core.Category) bool {
	for _, pass := range p {
		s, ok := pass.(retrieval.Supporter)
		if !ok || s.Supports(category) {
			return true
		}
	}
	return false
}

// Close closes every pass that holds resources.
func (p Passes) Close() error {
	var errs []error
	for _, pass := range p {
		if c, ok := pass.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func passesOf(r retrieval.Retriever) []retrieval.Retriever {
	if p, ok := r.(Passes); ok {
		return p
	}
	return []retrieval.Retriever{r}
}

// Splitter cuts document text into chunks.
type Splitter interface {
	Split(ctx context.Context, text string, maxChunkSize int) ([]string, error)
}

// PDFPreparer serves neighborhoods from their PDF guide through a per
// neighborhood vector index.
type PDFPreparer struct {
	loader       *source.PDFLoader
	splitter     Splitter
	builder      index.Builder
	table        *config.Table
	k            int
	maxChunkSize int
	reuse        bool
	search       retrieval.Retriever
	supplement   retrieval.Retriever
	logger       *slog.Logger
}

// PDFOption configures a PDFPreparer.
type PDFOption func(*PDFPreparer)

// WithReuseIndex reloads an existing snapshot instead of rebuilding it.
func WithReuseIndex(reuse bool) PDFOption {
	return func(p *PDFPreparer) {
		p.reuse = reuse
	}
}

// WithK sets how many index hits the keyword retriever considers.
func WithK(k int) PDFOption {
	return func(p *PDFPreparer) {
		p.k = k
	}
}

// WithMaxChunkSize bounds chunk length in characters.
func WithMaxChunkSize(n int) PDFOption {
	return func(p *PDFPreparer) {
		p.maxChunkSize = n
	}
}

// WithSearchRoute serves search-strategy categories from search, and
// keyword categories from it when the guide has no keywords for them.
func WithSearchRoute(search retrieval.Retriever) PDFOption {
	return func(p *PDFPreparer) {
		p.search = search
	}
}

// WithSearchPass adds search as a second pass after the guide. Categories
// configured for both are refined twice and merged.
func WithSearchPass(search retrieval.Retriever) PDFOption {
	return func(p *PDFPreparer) {
		p.supplement = search
	}
}

// WithPreparerLogger sets a custom logger.
func WithPreparerLogger(logger *slog.Logger) PDFOption {
	return func(p *PDFPreparer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPDFPreparer creates a preparer reading guides through loader.
func NewPDFPreparer(loader *source.PDFLoader, splitter Splitter, builder index.Builder, table *config.Table, opts ...PDFOption) *PDFPreparer {
	p := &PDFPreparer{
		loader:       loader,
		splitter:     splitter,
		builder:      builder,
		table:        table,
		k:            retrieval.DefaultK,
		maxChunkSize: chunking.DefaultMaxChunkSize,
		logger:       slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare returns a router over the neighborhood's index. The guide must
// exist even when its snapshot is reused.
func (p *PDFPreparer) Prepare(ctx context.Context, key core.NeighborhoodKey) (retrieval.Retriever, error) {
	if err := p.loader.Check(key); err != nil {
		return nil, err
	}
	idx, err := p.Index(ctx, key)
	if err != nil {
		return nil, err
	}

	keyword := retrieval.NewKeywordRetriever(idx, p.table, retrieval.WithK(p.k))
	if p.supplement != nil {
		return Passes{
			retrieval.NewRouter(p.table, keyword, p.search),
			retrieval.NewRouter(p.table, nil, p.supplement),
		}, nil
	}
	return retrieval.NewRouter(p.table, keyword, p.search), nil
}

// Index builds the snapshot for key from its guide, or reloads it when
// reuse is enabled and one exists.
func (p *PDFPreparer) Index(ctx context.Context, key core.NeighborhoodKey) (index.Index, error) {
	if p.reuse && p.builder.Exists(key) {
		idx, err := p.builder.Reload(ctx, key)
		if err == nil {
			p.logger.Info("reusing index", "name", idx.Name(), "chunks", idx.Len())
			return idx, nil
		}
		if !errors.Is(err, core.ErrIndexNotFound) {
			return nil, err
		}
	}

	text, err := p.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	chunks, err := p.splitter.Split(ctx, text, p.maxChunkSize)
	if err != nil {
		return nil, err
	}
	return p.builder.Build(ctx, key, chunks)
}

// JSONPreparer serves neighborhoods from pre-gathered JSON material.
type JSONPreparer struct {
	loader *source.JSONLoader
}

// NewJSONPreparer creates a preparer reading material through loader.
func NewJSONPreparer(loader *source.JSONLoader) *JSONPreparer {
	return &JSONPreparer{loader: loader}
}

func (p *JSONPreparer) Prepare(ctx context.Context, key core.NeighborhoodKey) (retrieval.Retriever, error) {
	material, err := p.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return retrieval.NewMaterialRetriever(material), nil
}

// SearchPreparer serves every neighborhood from web search. It never skips.
type SearchPreparer struct {
	router *retrieval.Router
}

// NewSearchPreparer creates a preparer routing search-capable categories
// to search.
func NewSearchPreparer(table *config.Table, search retrieval.Retriever) *SearchPreparer {
	return &SearchPreparer{router: retrieval.NewRouter(table, nil, search)}
}

func (p *SearchPreparer) Prepare(ctx context.Context, _ core.NeighborhoodKey) (retrieval.Retriever, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.router, nil
}
