package mock

import "context"

// MockGenerator is a test double for ai.Generator.
// Replies are served from GenerateFunc if set, otherwise from the queued
// replies in order; once the queue is drained the last reply repeats.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	replies   []string
	prompts   []string
	callCount int
}

// NewMockGenerator creates a mock generator that replies with "{}".
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithReplies queues canned replies and returns the mock.
func (m *MockGenerator) WithReplies(replies ...string) *MockGenerator {
	m.replies = append(m.replies, replies...)
	return m
}

// WithGenerateFunc sets custom generation behavior and returns the mock.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, prompt string) (string, error)) *MockGenerator {
	m.GenerateFunc = fn
	return m
}

// Generate records the prompt and returns the next reply.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	switch len(m.replies) {
	case 0:
		return "{}", nil
	case 1:
		return m.replies[0], nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt received, in call order.
func (m *MockGenerator) Prompts() []string {
	return m.prompts
}

// Reset clears the call history, queued replies, and custom function.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.replies = nil
	m.GenerateFunc = nil
}
