package store

import (
	"context"
	"testing"

	"github.com/poiesic/boroughs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	key := core.NeighborhoodKey{Neighborhood: "DUMBO", Borough: "Brooklyn"}
	m := NewMemory()

	first := core.NewAccumulator(key, "run-1")
	first.Merge("History", core.NewNarrative("old", nil))
	first.Merge("Location", core.NewNarrative("here", nil))
	require.NoError(t, m.SaveRecord(ctx, first.Record()))

	second := core.NewAccumulator(key, "run-2")
	second.Merge("History", core.NewNarrative("new", nil))
	require.NoError(t, m.SaveRecord(ctx, second.Record()))

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, m.Writes())

	doc, ok := m.Document(key)
	require.True(t, ok)
	assert.Equal(t, "run-2", doc["run_id"])
	response := doc["response"].(map[string]any)
	assert.Len(t, response, 1)
	assert.Equal(t, map[string]any{"content": "new", "urls": []string{}}, response["History"])
}

func TestMemory_RejectsInvalidKey(t *testing.T) {
	m := NewMemory()
	err := m.SaveRecord(context.Background(), core.NewAccumulator(core.NeighborhoodKey{Neighborhood: "X"}, "r").Record())
	assert.ErrorIs(t, err, core.ErrInvalidKey)
	assert.NoError(t, m.Close(context.Background()))
}
