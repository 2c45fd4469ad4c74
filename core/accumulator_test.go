package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = NeighborhoodKey{Neighborhood: "Williamsburg", Borough: "Brooklyn"}

func TestAccumulator_ItemizedUnion(t *testing.T) {
	acc := NewAccumulator(testKey, "run")

	acc.Merge("Restaurants", NewItemized([]Item{{Name: "Lucy's Diner", Description: "a"}}))
	acc.Merge("Restaurants", NewItemized([]Item{{Name: "Peter Luger", Description: "b"}}))

	result, ok := acc.Result("Restaurants")
	require.True(t, ok)
	assert.Equal(t, ResultItemized, result.Kind)
	assert.Equal(t, []Item{
		{Name: "Lucy's Diner", Description: "a"},
		{Name: "Peter Luger", Description: "b"},
	}, result.Items)
}

func TestAccumulator_ItemizedCollisionLaterWins(t *testing.T) {
	acc := NewAccumulator(testKey, "run")

	acc.Merge("Restaurants", NewItemized([]Item{
		{Name: "Lucy's Diner", Description: "old"},
		{Name: "Peter Luger", Description: "steak"},
	}))
	acc.Merge("Restaurants", NewItemized([]Item{
		{Name: "Lucy's Diner", Description: "new"},
	}))

	result, _ := acc.Result("Restaurants")
	assert.Equal(t, []Item{
		{Name: "Lucy's Diner", Description: "new"},
		{Name: "Peter Luger", Description: "steak"},
	}, result.Items)
}

func TestAccumulator_ItemizedKeepsRepeatsWithinPass(t *testing.T) {
	acc := NewAccumulator(testKey, "run")

	acc.Merge("Night Life", NewItemized([]Item{
		{Name: "Union Pool", URL: "http://a"},
		{Name: "Union Pool", URL: "http://b"},
	}))

	result, _ := acc.Result("Night Life")
	assert.Len(t, result.Items, 2)
}

func TestAccumulator_UnnamedItemsNeverCollide(t *testing.T) {
	acc := NewAccumulator(testKey, "run")

	acc.Merge("Museums", NewItemized([]Item{{Description: "first"}}))
	acc.Merge("Museums", NewItemized([]Item{{Description: "second"}}))

	result, _ := acc.Result("Museums")
	assert.Len(t, result.Items, 2)
}

func TestAccumulator_ScalarLastWriteWins(t *testing.T) {
	tests := []struct {
		name   string
		first  CategoryResult
		second CategoryResult
	}{
		{
			name:   "narrative over narrative",
			first:  NewNarrative("one", []string{"http://a"}),
			second: NewNarrative("two", []string{"http://b"}),
		},
		{
			name:   "raw over itemized",
			first:  NewItemized([]Item{{Name: "x"}}),
			second: NewRaw("unparseable"),
		},
		{
			name:   "itemized over raw",
			first:  NewRaw("unparseable"),
			second: NewItemized([]Item{{Name: "x"}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(testKey, "run")
			acc.Merge("History", tt.first)
			acc.Merge("History", tt.second)

			result, ok := acc.Result("History")
			require.True(t, ok)
			assert.Equal(t, tt.second, result)
		})
	}
}

func TestAccumulator_Record(t *testing.T) {
	acc := NewAccumulator(testKey, "run-42")
	acc.Merge("Location", NewNarrative("North Brooklyn.", nil))
	acc.Merge("Restaurants", NewItemized(nil))
	acc.Merge("Location", NewNarrative("Waterfront.", nil))

	record := acc.Record()
	assert.Equal(t, testKey, record.Key)
	assert.Equal(t, "run-42", record.RunID)
	assert.Equal(t, []Category{"Location", "Restaurants"}, record.Order)
	assert.Equal(t, "Waterfront.", record.Categories["Location"].Content)
	assert.False(t, record.UpdatedAt.IsZero())

	// Later merges do not leak into a record already built.
	acc.Merge("History", NewRaw("late"))
	assert.NotContains(t, record.Categories, Category("History"))
	assert.Equal(t, 3, acc.Len())
}
