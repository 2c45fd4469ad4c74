package boroughs

import (
	"context"
	"testing"

	"github.com/poiesic/boroughs/ai/mock"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/pipeline"
	"github.com/poiesic/boroughs/store"
	"github.com/poiesic/boroughs/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var williamsburg = core.NeighborhoodKey{Neighborhood: "Williamsburg", Borough: "Brooklyn"}

func testConfig(t *testing.T, categories ...string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Index.Dir = t.TempDir()
	cfg.Source.PDFDir = t.TempDir()
	cfg.Source.JSONDir = t.TempDir()
	cfg.Refine.Pacing = 0
	cfg.Refine.NeighborhoodDelay = 0
	cfg.Categories = categories
	return cfg
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, SourcePDF, s)

	_, err = ParseSource("wiki")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Run("uses given collaborators", func(t *testing.T) {
		records := store.NewMemory()
		svc, err := Open(context.Background(), testConfig(t), config.Secrets{},
			WithProvider(mock.NewMockProvider()), WithRecordStore(records))
		require.NoError(t, err)
		defer svc.Close(context.Background())

		assert.Same(t, records, svc.Records())
		assert.False(t, svc.HasSearch())
		assert.Len(t, svc.Table().Categories, 10)
	})

	t.Run("memory store", func(t *testing.T) {
		svc, err := Open(context.Background(), testConfig(t), config.Secrets{},
			WithProvider(mock.NewMockProvider()), WithMemoryStore())
		require.NoError(t, err)
		defer svc.Close(context.Background())
		assert.IsType(t, &store.Memory{}, svc.Records())
	})

	t.Run("tavily key enables search", func(t *testing.T) {
		svc, err := Open(context.Background(), testConfig(t), config.Secrets{TavilyKey: "tvly-test"},
			WithProvider(mock.NewMockProvider()), WithMemoryStore())
		require.NoError(t, err)
		defer svc.Close(context.Background())
		assert.True(t, svc.HasSearch())
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := Open(context.Background(), testConfig(t, "Zoos"), config.Secrets{},
			WithProvider(mock.NewMockProvider()), WithMemoryStore())
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("bad mongo uri", func(t *testing.T) {
		_, err := Open(context.Background(), testConfig(t), config.Secrets{MongoURI: "not-a-uri"},
			WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})
}

func TestService_Preparer(t *testing.T) {
	searcher := websearch.SearcherFunc(func(context.Context, string) ([]websearch.Hit, error) {
		return nil, nil
	})

	tests := []struct {
		name       string
		opts       []Option
		source     Source
		supplement bool
		wantErr    error
	}{
		{name: "pdf without search", source: SourcePDF},
		{name: "pdf with search route", opts: []Option{WithSearcher(searcher)}, source: SourcePDF},
		{name: "pdf with search pass", opts: []Option{WithSearcher(searcher)}, source: SourcePDF, supplement: true},
		{name: "pdf supplement needs search", source: SourcePDF, supplement: true, wantErr: ErrSearchUnavailable},
		{name: "json", source: SourceJSON},
		{name: "search", opts: []Option{WithSearcher(searcher)}, source: SourceSearch},
		{name: "search needs searcher", source: SourceSearch, wantErr: ErrSearchUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithProvider(mock.NewMockProvider()), WithMemoryStore()}, tt.opts...)
			svc, err := Open(context.Background(), testConfig(t), config.Secrets{}, opts...)
			require.NoError(t, err)
			defer svc.Close(context.Background())

			p, err := svc.Preparer(tt.source, tt.supplement)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestService_SearchRun(t *testing.T) {
	var queries []string
	searcher := websearch.SearcherFunc(func(_ context.Context, query string) ([]websearch.Hit, error) {
		queries = append(queries, query)
		return []websearch.Hit{{URL: "http://lucys.example", Content: "Lucy's Diner is on Bedford Ave."}}, nil
	})
	generator := mock.NewMockGenerator().WithReplies(
		`{"content": "Williamsburg grew up around the waterfront.", "urls": []}`,
		`{"name": "Lucy's Diner", "description": "A diner.", "address": "Bedford Ave"}`,
	)
	records := store.NewMemory()

	svc, err := Open(context.Background(), testConfig(t, "History", "Restaurants"), config.Secrets{},
		WithProvider(mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)),
		WithRecordStore(records),
		WithSearcher(searcher))
	require.NoError(t, err)
	defer svc.Close(context.Background())

	preparer, err := svc.Preparer(SourceSearch, false)
	require.NoError(t, err)
	report, err := svc.NewDriver(preparer).Run(context.Background(), []core.NeighborhoodKey{williamsburg})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(pipeline.StatePersisted))
	assert.Len(t, queries, 2)
	assert.Equal(t, 2, generator.CallCount())

	rec := report.Outcomes[0].Record
	assert.Equal(t, []core.Category{"History", "Restaurants"}, rec.Order)
	assert.Equal(t, []string{"http://lucys.example"}, rec.Categories["History"].URLs)
	require.Len(t, rec.Categories["Restaurants"].Items, 1)
	assert.Equal(t, "Lucy's Diner", rec.Categories["Restaurants"].Items[0].Name)
	assert.Equal(t, 1, records.Len())
}
