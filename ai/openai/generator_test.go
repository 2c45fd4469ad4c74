package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/boroughs/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// stubModel answers every call with a fixed response.
type stubModel struct {
	response *llms.ContentResponse
	messages []llms.MessageContent
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	return m.response, nil
}

func (m *stubModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func newStubGenerator(model llms.Model) *Generator {
	return &Generator{client: model, model: "stub", logger: slog.Default()}
}

func TestGenerate_FirstChoice(t *testing.T) {
	model := &stubModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: `{"content":"Brownstones"}`},
		{Content: "ignored"},
	}}}

	reply, err := newStubGenerator(model).Generate(context.Background(), "Describe Park Slope")
	require.NoError(t, err)
	assert.Equal(t, `{"content":"Brownstones"}`, reply)

	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
}

func TestGenerate_NoChoices(t *testing.T) {
	model := &stubModel{response: &llms.ContentResponse{}}

	reply, err := newStubGenerator(model).Generate(context.Background(), "Describe Park Slope")
	assert.ErrorIs(t, err, ai.ErrNoChoices)
	assert.Empty(t, reply)
}
