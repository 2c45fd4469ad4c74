package badger

import (
	"context"
	"strings"

	"github.com/poiesic/boroughs/ai/mock"
)

var topicWords = []string{"park", "food", "bar"}

// topicVector counts topic words so similarity follows shared topics.
func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(topicWords))
	for i, w := range topicWords {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func newTopicEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return topicVector(text), nil
	}
	m.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			out[i] = topicVector(t)
		}
		return out, nil
	}
	return m
}
