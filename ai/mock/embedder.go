package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// DefaultDimension is the length of vectors produced by the default
// MockEmbedder behavior.
const DefaultDimension = 384

// MockEmbedder is a test double for ai.Embedder. Without overrides it hashes
// each text into a repeatable unit vector, so equal sentences embed equally
// and the chunker and snapshot search behave predictably in tests.
type MockEmbedder struct {
	// EmbedTextFunc overrides EmbedText when set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc overrides EmbedTexts when set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu    sync.Mutex
	calls int
}

// NewMockEmbedder returns an embedder with the hashing behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// WithEmbedTextsFunc installs a batch override and returns the mock.
func (m *MockEmbedder) WithEmbedTextsFunc(fn func(ctx context.Context, texts []string) ([][]float32, error)) *MockEmbedder {
	m.EmbedTextsFunc = fn
	return m
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.count()
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return hashVector(text, DefaultDimension), nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.count()
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, hashVector(text, DefaultDimension))
	}
	return out, nil
}

// CallCount reports how many EmbedText and EmbedTexts calls were made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Reset zeroes the call count and drops both overrides.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	m.calls = 0
	m.mu.Unlock()
	m.EmbedTextFunc, m.EmbedTextsFunc = nil, nil
}

func (m *MockEmbedder) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// hashVector seeds a linear congruential sequence from the FNV-1a hash of
// text and normalizes the result to unit length.
func hashVector(text string, dim int) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	state := h.Sum32()

	vector := make([]float32, dim)
	var norm float64
	for i := range vector {
		state = state*1664525 + 1013904223
		v := float32(state%1000)/1000 + 0.001
		vector[i] = v
		norm += float64(v) * float64(v)
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
