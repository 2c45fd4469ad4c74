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


package chunking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/boroughs/ai"
)

const (
	// DefaultMaxChunkSize is the chunk bound, in characters, used when the
	// caller passes a non-positive size.
	DefaultMaxChunkSize = 2000

	// DefaultDistanceThreshold is the Ward linkage distance at which
	// clusters stop merging.
	DefaultDistanceThreshold = 1.5
)

// Chunker splits text into chunks of semantically related sentences.
type Chunker struct {
	embedder  ai.Embedder
	threshold float64
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithDistanceThreshold sets the linkage distance that stops merging.
func WithDistanceThreshold(threshold float64) Option {
	return func(c *Chunker) {
		c.threshold = threshold
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// New creates a Chunker that embeds sentences with embedder.
func New(embedder ai.Embedder, opts ...Option) *Chunker {
	c := &Chunker{
		embedder:  embedder,
		threshold: DefaultDistanceThreshold,
		logger:    slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split returns the non-empty chunks of text, each at most maxChunkSize
// characters unless it holds a single oversized cluster.
// Empty input returns an empty slice without calling the embedder.
func (c *Chunker) Split(ctx context.Context, text string, maxChunkSize int) ([]string, error) {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return []string{}, nil
	}

	vectors, err := c.embedder.EmbedTexts(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}
	if len(vectors) != len(sentences) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d sentences", len(vectors), len(sentences))
	}

	labels := Cluster(vectors, c.threshold)
	clusters := GroupByLabel(sentences, labels)
	chunks := Pack(clusters, maxChunkSize)

	c.logger.Debug("split text",
		"sentences", len(sentences),
		"clusters", len(clusters),
		"chunks", len(chunks))
	return chunks, nil
}

// SplitSentences cuts text on '.' and returns the trimmed, non-empty pieces
// in document order.
func SplitSentences(text string) []string {
	parts := strings.Split(text, ".")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// GroupByLabel joins each cluster's sentences with a space, in document
// order, and returns the cluster texts in ascending label order.
func GroupByLabel(sentences []string, labels []int) []string {
	count := 0
	for _, l := range labels {
		count = max(count, l+1)
	}
	groups := make([][]string, count)
	for i, s := range sentences {
		groups[labels[i]] = append(groups[labels[i]], s)
	}
	texts := make([]string, 0, count)
	for _, g := range groups {
		if len(g) > 0 {
			texts = append(texts, strings.Join(g, " "))
		}
	}
	return texts
}

// Pack greedily concatenates parts, space-joined and in order, into chunks of
// at most maxChunkSize characters. A part longer than maxChunkSize becomes a
// chunk by itself.
func Pack(parts []string, maxChunkSize int) []string {
	chunks := []string{}
	var current string
	currentLen := 0

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		partLen := utf8.RuneCountInString(part)
		if current == "" {
			current, currentLen = part, partLen
			continue
		}
		if currentLen+1+partLen <= maxChunkSize {
			current += " " + part
			currentLen += 1 + partLen
			continue
		}
		chunks = append(chunks, current)
		current, currentLen = part, partLen
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
