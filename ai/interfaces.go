package ai

import "context"

// Embedder turns text into vectors. The chunker embeds guide sentences in
// one batch to find topic boundaries; index snapshots embed chunks when they
// are built and each category query when it is asked.
//
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText returns the vector for a single query or sentence.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts returns one vector per input, in input order. A failure
	// on any input fails the whole batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator submits a prompt to a hosted language model and returns the
// reply body. Replies are requested as a JSON object, but callers must still
// strip fenced-code markers and tolerate malformed JSON.
type Generator interface {
	// Generate sends prompt as a single system message and returns the
	// text of the first choice. ErrNoChoices is returned when the model
	// produced no choices.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// AIProvider hands out the embedder and generator built from one Config.
// A pipeline run opens a single provider and closes it on shutdown; neither
// service may be used after Close.
type AIProvider interface {
	Embedder() Embedder
	Generator() Generator
	Close() error
}
