package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/boroughs/ai/mock"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/index"
	"github.com/poiesic/boroughs/refine"
	"github.com/poiesic/boroughs/retrieval"
	"github.com/poiesic/boroughs/source"
	"github.com/poiesic/boroughs/store"
	"github.com/poiesic/boroughs/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndex struct {
	chunks []string
	closed bool
}

func (s *stubIndex) Name() string { return "stub" }
func (s *stubIndex) Len() int     { return len(s.chunks) }
func (s *stubIndex) Close() error { s.closed = true; return nil }

func (s *stubIndex) Query(_ context.Context, text string, k int) ([]core.Snippet, error) {
	out := []core.Snippet{}
	for _, c := range s.chunks {
		if len(out) == k {
			break
		}
		out = append(out, core.Snippet{Content: c, Query: text})
	}
	return out, nil
}

type stubBuilder struct {
	exists    bool
	reloadErr error
	reloads   int
	built     [][]string
	idx       *stubIndex
}

var _ index.Builder = (*stubBuilder)(nil)

func (b *stubBuilder) Build(_ context.Context, _ core.NeighborhoodKey, chunks []string) (index.Index, error) {
	b.built = append(b.built, chunks)
	return b.idx, nil
}

func (b *stubBuilder) Reload(context.Context, core.NeighborhoodKey) (index.Index, error) {
	b.reloads++
	if b.reloadErr != nil {
		return nil, b.reloadErr
	}
	return b.idx, nil
}

func (b *stubBuilder) Exists(core.NeighborhoodKey) bool { return b.exists }

type stubSplitter struct {
	calls int
}

func (s *stubSplitter) Split(_ context.Context, text string, _ int) ([]string, error) {
	s.calls++
	return []string{text}, nil
}

func writeGuide(t *testing.T, loader *source.PDFLoader, key core.NeighborhoodKey) {
	t.Helper()
	require.NoError(t, os.WriteFile(loader.Path(key), []byte("not really a pdf"), 0644))
}

func TestPDFPreparer_MissingGuide(t *testing.T) {
	loader := source.NewPDFLoader(t.TempDir())
	builder := &stubBuilder{exists: true, idx: &stubIndex{}}
	splitter := &stubSplitter{}
	p := NewPDFPreparer(loader, splitter, builder, selectTable(t), WithReuseIndex(true))

	_, err := p.Prepare(context.Background(), ghostville)
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
	assert.Zero(t, builder.reloads)
	assert.Zero(t, splitter.calls)
}

func TestPDFPreparer_ReusesSnapshot(t *testing.T) {
	loader := source.NewPDFLoader(t.TempDir())
	writeGuide(t, loader, williamsburg)
	idx := &stubIndex{chunks: []string{
		"Lucy's Diner is a restaurant on Bedford Ave.",
		"McCarren Park hosts a weekend market.",
	}}
	builder := &stubBuilder{exists: true, idx: idx}
	splitter := &stubSplitter{}
	p := NewPDFPreparer(loader, splitter, builder, selectTable(t), WithReuseIndex(true))

	r, err := p.Prepare(context.Background(), williamsburg)
	require.NoError(t, err)
	assert.Equal(t, 1, builder.reloads)
	assert.Empty(t, builder.built)
	assert.Zero(t, splitter.calls)

	snippets, err := r.Retrieve(context.Background(), williamsburg, "Restaurants")
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0].Content, "Lucy's Diner")

	s, ok := r.(retrieval.Supporter)
	require.True(t, ok)
	assert.True(t, s.Supports("Restaurants"))
	assert.False(t, s.Supports("History"), "search-only category without a search route")

	closer, ok := r.(interface{ Close() error })
	require.True(t, ok)
	require.NoError(t, closer.Close())
	assert.True(t, idx.closed)
}

func TestPDFPreparer_Rebuilds(t *testing.T) {
	tests := []struct {
		name    string
		builder *stubBuilder
		opts    []PDFOption
		reloads int
	}{
		{
			name:    "reuse disabled",
			builder: &stubBuilder{exists: true, idx: &stubIndex{}},
		},
		{
			name:    "snapshot vanished",
			builder: &stubBuilder{exists: true, reloadErr: core.ErrIndexNotFound, idx: &stubIndex{}},
			opts:    []PDFOption{WithReuseIndex(true)},
			reloads: 1,
		},
		{
			name:    "no snapshot yet",
			builder: &stubBuilder{idx: &stubIndex{}},
			opts:    []PDFOption{WithReuseIndex(true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := source.NewPDFLoader(t.TempDir())
			writeGuide(t, loader, williamsburg)
			p := NewPDFPreparer(loader, &stubSplitter{}, tt.builder, selectTable(t), tt.opts...)

			// the guide is not a parseable PDF, so reaching the loader fails
			_, err := p.Prepare(context.Background(), williamsburg)
			require.Error(t, err)
			assert.NotErrorIs(t, err, core.ErrSourceNotFound)
			assert.Equal(t, tt.reloads, tt.builder.reloads)
			assert.Empty(t, tt.builder.built)
		})
	}
}

func TestPDFPreparer_SearchPass(t *testing.T) {
	loader := source.NewPDFLoader(t.TempDir())
	writeGuide(t, loader, williamsburg)
	builder := &stubBuilder{exists: true, idx: &stubIndex{chunks: []string{"A diner restaurant."}}}
	web := retrieval.NewSearchRetriever(websearch.SearcherFunc(func(_ context.Context, query string) ([]websearch.Hit, error) {
		return []websearch.Hit{{URL: "http://web", Content: "Result for " + query}}, nil
	}), selectTable(t))

	p := NewPDFPreparer(loader, &stubSplitter{}, builder, selectTable(t),
		WithReuseIndex(true), WithSearchPass(web))

	r, err := p.Prepare(context.Background(), williamsburg)
	require.NoError(t, err)
	passes, ok := r.(Passes)
	require.True(t, ok)
	require.Len(t, passes, 2)

	snippets, err := passes.Retrieve(context.Background(), williamsburg, "Restaurants")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "A diner restaurant.", snippets[0].Content)
	assert.Equal(t, "http://web", snippets[1].URL)

	assert.True(t, passes.Supports("History"))
	require.NoError(t, passes.Close())
}

func TestSearchPreparer(t *testing.T) {
	table := selectTable(t)
	web := retrieval.NewSearchRetriever(websearch.SearcherFunc(func(context.Context, string) ([]websearch.Hit, error) {
		return []websearch.Hit{{URL: "http://web", Content: "Astoria has Greek tavernas."}}, nil
	}), table)
	p := NewSearchPreparer(table, web)

	for _, key := range []core.NeighborhoodKey{williamsburg, ghostville} {
		r, err := p.Prepare(context.Background(), key)
		require.NoError(t, err)
		snippets, err := r.Retrieve(context.Background(), key, "History")
		require.NoError(t, err)
		assert.Len(t, snippets, 1)
	}
}

func TestJSONPreparer_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	doc := `{"Williamsburg": {
		"History": "Williamsburg was farmland before the bridge.",
		"Restaurants": [{"content": "Lucy's Diner is on Bedford Ave.", "url": "http://a"}]
	}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "williamsburg.json"), []byte(doc), 0644))

	table := selectTable(t, "History", "Restaurants", "Museums")
	generator := mock.NewMockGenerator().WithReplies(
		`{"content": "Once farmland.", "urls": []}`,
		`{"name":"Lucy's Diner","description":"Lucy's Diner is on Bedford Ave.","address":"Bedford Ave"}`,
	)
	records := store.NewMemory()
	d := NewDriver(table,
		NewJSONPreparer(source.NewJSONLoader(dir)),
		refine.New(generator, table),
		records,
		WithRunID("run-1"))

	report, err := d.Run(context.Background(), []core.NeighborhoodKey{williamsburg, ghostville})
	require.NoError(t, err)
	assert.Equal(t, []core.NeighborhoodKey{ghostville}, report.Skipped())

	// Museums has no material and never reaches the generator
	assert.Equal(t, 2, generator.CallCount())

	stored, ok := records.Document(williamsburg)
	require.True(t, ok)
	assert.Equal(t, "run-1", stored["run_id"])
	response := stored["response"].(map[string]any)
	assert.Equal(t, map[string]any{"content": "Once farmland.", "urls": []string{}}, response["History"])
	assert.Equal(t, map[string]any{"items": []core.Item{{
		Name:        "Lucy's Diner",
		Description: "Lucy's Diner is on Bedford Ave.",
		Address:     "Bedford Ave",
		URL:         "http://a",
	}}}, response["Restaurants"])
	assert.Equal(t, map[string]any{"items": []core.Item{}}, response["Museums"])
}
