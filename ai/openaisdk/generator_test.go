package openaisdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/boroughs/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SendsJSONObjectFormat(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-turbo-preview",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"content\":\"x\"}"}
			}]
		}`)
	}))
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithGenerationHost(server.URL),
		ai.WithAPIKey("sk-test"),
		ai.WithBackend(ai.BackendOpenAI),
	)
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "Describe DUMBO")
	require.NoError(t, err)
	assert.Equal(t, `{"content":"x"}`, reply)

	assert.Equal(t, "gpt-4-turbo-preview", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "Describe DUMBO", first["content"])
}

func TestGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer server.Close()

	gen, err := NewGenerator(ai.NewConfig(ai.WithGenerationHost(server.URL)))
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ai.ErrNoChoices)
	assert.Empty(t, reply)
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	_, err := NewGenerator(&ai.Config{})
	assert.Error(t, err)
}
