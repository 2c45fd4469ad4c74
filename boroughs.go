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

package boroughs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/boroughs/ai"
	"github.com/poiesic/boroughs/ai/openai"
	"github.com/poiesic/boroughs/chunking"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/index/badger"
	"github.com/poiesic/boroughs/pipeline"
	"github.com/poiesic/boroughs/refine"
	"github.com/poiesic/boroughs/retrieval"
	"github.com/poiesic/boroughs/source"
	"github.com/poiesic/boroughs/store"
	"github.com/poiesic/boroughs/store/mongo"
	"github.com/poiesic/boroughs/websearch"
	"github.com/poiesic/boroughs/websearch/page"
	"github.com/poiesic/boroughs/websearch/tavily"
)

// ErrSearchUnavailable indicates a search-backed component was requested
// without a configured searcher.
var ErrSearchUnavailable = errors.New("web search is not configured")

// Source selects where neighborhood material comes from.
type Source string

const (
	SourcePDF    Source = "pdf"
	SourceJSON   Source = "json"
	SourceSearch Source = "search"
)

// Sources lists the valid sources.
var Sources = []Source{SourcePDF, SourceJSON, SourceSearch}

// ParseSource maps a name to a Source.
func ParseSource(name string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Sources {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", name)
}

// Service wires the configured collaborators together.
type Service struct {
	cfg      *config.Config
	table    *config.Table
	provider ai.AIProvider
	records  store.RecordStore
	searcher websearch.Searcher
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	records  store.RecordStore
	searcher websearch.Searcher
	memory   bool
}

// WithProvider uses provider instead of an OpenAI-compatible one.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithRecordStore uses records instead of connecting to MongoDB.
func WithRecordStore(records store.RecordStore) Option {
	return func(o *serviceOptions) {
		o.records = records
	}
}

// WithMemoryStore keeps records in process.
func WithMemoryStore() Option {
	return func(o *serviceOptions) {
		o.memory = true
	}
}

// WithSearcher uses searcher instead of Tavily.
func WithSearcher(searcher websearch.Searcher) Option {
	return func(o *serviceOptions) {
		o.searcher = searcher
	}
}

// Open builds a service from cfg. Collaborators not given as options are
// created from cfg and secrets: the AI provider always, the MongoDB store
// unless a memory store is requested, and the Tavily searcher when its key
// is set.
func Open(ctx context.Context, cfg *config.Config, secrets config.Secrets, opts ...Option) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(aiConfig(cfg.AI, secrets.OpenAIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
	}

	searcher := options.searcher
	if searcher == nil && secrets.TavilyKey != "" {
		searcher, err = tavily.New(secrets.TavilyKey,
			tavily.WithBaseURL(cfg.Search.BaseURL),
			tavily.WithMaxResults(cfg.Search.MaxResults),
			tavily.WithSearchDepth(cfg.Search.Depth))
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	records := options.records
	switch {
	case records != nil:
	case options.memory:
		records = store.NewMemory()
	default:
		records, err = mongo.Connect(ctx, mongo.Config{
			URI:        secrets.MongoURI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
			Timeout:    cfg.Store.Timeout,
		})
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	return &Service{
		cfg:      cfg,
		table:    table,
		provider: provider,
		records:  records,
		searcher: searcher,
		logger:   slog.Default().With("component", "boroughs"),
	}, nil
}

func aiConfig(c config.AIConfig, apiKey string) *ai.Config {
	opts := []ai.ConfigOption{ai.WithAPIKey(apiKey), ai.WithTemperature(c.Temperature)}
	if c.Backend != "" {
		opts = append(opts, ai.WithBackend(c.Backend))
	}
	if c.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.EmbeddingHost))
	}
	if c.GenerationHost != "" {
		opts = append(opts, ai.WithGenerationHost(c.GenerationHost))
	}
	if c.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.EmbeddingModel))
	}
	if c.GenerationModel != "" {
		opts = append(opts, ai.WithGenerationModel(c.GenerationModel))
	}
	return ai.NewConfig(opts...)
}

func (s *Service) Close(ctx context.Context) error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.records.Close(ctx); err != nil {
		s.logger.Error("error closing record store", "err", err)
		return err
	}
	return nil
}

func (s *Service) Table() *config.Table {
	return s.table
}

func (s *Service) Records() store.RecordStore {
	return s.records
}

// HasSearch reports whether a searcher is configured.
func (s *Service) HasSearch() bool {
	return s.searcher != nil
}

func (s *Service) Chunker() *chunking.Chunker {
	return chunking.New(s.provider.Embedder(),
		chunking.WithDistanceThreshold(s.cfg.Chunking.DistanceThreshold))
}

func (s *Service) Builder() *badger.Builder {
	return badger.NewBuilder(s.cfg.Index.Dir, s.provider.Embedder(),
		badger.WithPrefix(s.cfg.Index.Prefix))
}

func (s *Service) PDFLoader() *source.PDFLoader {
	return source.NewPDFLoader(s.cfg.Source.PDFDir, source.WithPattern(s.cfg.Source.PDFPattern))
}

// SearchRetriever returns a retriever over the configured searcher, with
// page enrichment when the configuration asks for it.
func (s *Service) SearchRetriever() (*retrieval.SearchRetriever, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	var opts []retrieval.SearchOption
	if s.cfg.Search.Enrich {
		opts = append(opts, retrieval.WithEnricher(page.New()))
	}
	return retrieval.NewSearchRetriever(s.searcher, s.table, opts...), nil
}

// Preparer returns the preparer for src. For PDF guides a configured
// searcher serves the search-strategy categories; with supplement set it
// runs as a second pass over every category it can serve instead.
func (s *Service) Preparer(src Source, supplement bool) (pipeline.Preparer, error) {
	switch src {
	case SourcePDF:
		opts := []pipeline.PDFOption{
			pipeline.WithReuseIndex(s.cfg.Index.Reuse),
			pipeline.WithK(s.cfg.Index.K),
			pipeline.WithMaxChunkSize(s.cfg.Chunking.MaxChunkSize),
		}
		if s.searcher != nil || supplement {
			search, err := s.SearchRetriever()
			if err != nil {
				return nil, err
			}
			if supplement {
				opts = append(opts, pipeline.WithSearchPass(search))
			} else {
				opts = append(opts, pipeline.WithSearchRoute(search))
			}
		}
		return pipeline.NewPDFPreparer(s.PDFLoader(), s.Chunker(), s.Builder(), s.table, opts...), nil
	case SourceJSON:
		return pipeline.NewJSONPreparer(source.NewJSONLoader(s.cfg.Source.JSONDir)), nil
	case SourceSearch:
		search, err := s.SearchRetriever()
		if err != nil {
			return nil, err
		}
		return pipeline.NewSearchPreparer(s.table, search), nil
	default:
		return nil, fmt.Errorf("unknown source %q", src)
	}
}

func (s *Service) Refiner() *refine.Refiner {
	return refine.New(s.provider.Generator(), s.table, refine.WithPacing(s.cfg.Refine.Pacing))
}

// NewDriver creates a pipeline driver persisting through the service's store.
func (s *Service) NewDriver(preparer pipeline.Preparer, opts ...pipeline.Option) *pipeline.Driver {
	opts = append([]pipeline.Option{pipeline.WithNeighborhoodDelay(s.cfg.Refine.NeighborhoodDelay)}, opts...)
	return pipeline.NewDriver(s.table, preparer, s.Refiner(), s.records, opts...)
}
