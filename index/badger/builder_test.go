package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/boroughs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var williamsburg = core.NeighborhoodKey{Neighborhood: "Williamsburg", Borough: "Brooklyn"}

var chunks = []string{
	"McCarren Park is the neighborhood's green heart. The park hosts a pool.",
	"Bedford Ave is lined with food stalls and food halls.",
	"Bar crawls end at a rooftop bar by the water.",
	"Domino Park sits on the waterfront next to a food market.",
}

func TestBuilder_BuildAndQuery(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(t.TempDir(), newTopicEmbedder())

	idx, err := b.Build(ctx, williamsburg, chunks)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, "faiss_index_BROOKLYN_williamsburg", idx.Name())
	assert.Equal(t, 4, idx.Len())

	got, err := idx.Query(ctx, "park", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0], got[0].Content)
	assert.Equal(t, chunks[3], got[1].Content)
	assert.Equal(t, "park", got[0].Query)
}

func TestBuilder_TiesKeepPositionOrder(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(t.TempDir(), newTopicEmbedder())

	idx, err := b.Build(ctx, williamsburg, []string{"one bar", "two bar", "three bar"})
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.Query(ctx, "bar", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "one bar", got[0].Content)
	assert.Equal(t, "two bar", got[1].Content)
	assert.Equal(t, "three bar", got[2].Content)
}

func TestBuilder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := newTopicEmbedder()
	b := NewBuilder(dir, embedder)

	idx, err := b.Build(ctx, williamsburg, chunks)
	require.NoError(t, err)
	before, err := idx.Query(ctx, "food near the park", 3)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.True(t, b.Exists(williamsburg))
	embedder.Reset()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return topicVector(text), nil
	}

	reloaded, err := NewBuilder(dir, embedder).Reload(ctx, williamsburg)
	require.NoError(t, err)
	defer reloaded.Close()

	assert.Equal(t, 4, reloaded.Len())
	after, err := reloaded.Query(ctx, "food near the park", 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, embedder.CallCount(), "reload must not re-embed chunks")
}

func TestBuilder_ReloadMissing(t *testing.T) {
	b := NewBuilder(t.TempDir(), newTopicEmbedder())

	_, err := b.Reload(context.Background(), core.NeighborhoodKey{Neighborhood: "Ghostville", Borough: "Queens"})
	assert.ErrorIs(t, err, core.ErrIndexNotFound)
}

func TestBuilder_BuildReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(t.TempDir(), newTopicEmbedder(), WithPrefix("idx"))

	first, err := b.Build(ctx, williamsburg, chunks)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := b.Build(ctx, williamsburg, []string{"only a bar"})
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, "idx_BROOKLYN_williamsburg", second.Name())
	assert.Equal(t, 1, second.Len())
	got, err := second.Query(ctx, "park", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBuilder_EmptyIndexAndDegenerateQuery(t *testing.T) {
	ctx := context.Background()
	embedder := newTopicEmbedder()
	b := NewBuilder(t.TempDir(), embedder)

	t.Run("empty index", func(t *testing.T) {
		idx, err := b.Build(ctx, williamsburg, []string{"", "  "})
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, 0, idx.Len())
		got, err := idx.Query(ctx, "park", 5)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("zero query vector", func(t *testing.T) {
		idx, err := b.Build(ctx, williamsburg, chunks)
		require.NoError(t, err)
		defer idx.Close()

		got, err := idx.Query(ctx, "nothing relevant", 5)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestBuilder_DropsRepeatedChunks(t *testing.T) {
	ctx := context.Background()
	embedder := newTopicEmbedder()
	b := NewBuilder(t.TempDir(), embedder)

	idx, err := b.Build(ctx, williamsburg, []string{"one bar", "two bar", "one bar", "three bar"})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 3, idx.Len())
	got, err := idx.Query(ctx, "bar", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "one bar", got[0].Content)
	assert.Equal(t, "two bar", got[1].Content)
	assert.Equal(t, "three bar", got[2].Content)
}

func TestBuilder_InvalidKey(t *testing.T) {
	b := NewBuilder(t.TempDir(), newTopicEmbedder())
	_, err := b.Build(context.Background(), core.NeighborhoodKey{Borough: "Bronx"}, chunks)
	assert.ErrorIs(t, err, core.ErrInvalidKey)
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, nil)
	assert.Error(t, err)
}
