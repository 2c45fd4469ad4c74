package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  []float32
	}{
		{"empty", []float32{}, []float32{}},
		{"zero vector", []float32{0, 0, 0}, []float32{0, 0, 0}},
		{"already unit", []float32{1, 0, 0}, []float32{1, 0, 0}},
		{"3-4-5", []float32{3, 4}, []float32{0.6, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVector(tt.input)
			assert.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	_ = NormalizeVector(in)
	assert.Equal(t, []float32{3, 4}, in)
}

func TestIsDegenerate(t *testing.T) {
	assert.True(t, IsDegenerate(nil))
	assert.True(t, IsDegenerate([]float32{0, 0}))
	assert.False(t, IsDegenerate([]float32{0, 0.1}))
}

func TestDotProduct(t *testing.T) {
	a := NormalizeVector([]float32{1, 1})
	assert.InDelta(t, 1.0, DotProduct(a, a), 1e-6)
	assert.InDelta(t, 0.0, DotProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 1.0/math.Sqrt2, DotProduct(a, []float32{1, 0, 5}), 1e-6)
}
