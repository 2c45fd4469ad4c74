package tavily

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/boroughs/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "Restaurants in DUMBO, Brooklyn", gjson.GetBytes(body, "query").String())
		assert.Equal(t, int64(3), gjson.GetBytes(body, "max_results").Int())
		assert.Equal(t, "advanced", gjson.GetBytes(body, "search_depth").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "Restaurants in DUMBO, Brooklyn",
			"results": [
				{"title": "Juliana's", "url": "http://a", "content": "Coal-fired pizza.", "score": 0.9},
				{"title": "Time Out", "url": "http://b", "content": "Food hall.", "score": 0.5}
			]
		}`))
	}))
	defer server.Close()

	c, err := New("tvly-test", WithBaseURL(server.URL+"/"), WithMaxResults(3), WithSearchDepth("advanced"))
	require.NoError(t, err)

	hits, err := c.Search(context.Background(), "Restaurants in DUMBO, Brooklyn")
	require.NoError(t, err)
	assert.Equal(t, []websearch.Hit{
		{Title: "Juliana's", URL: "http://a", Content: "Coal-fired pizza.", Score: 0.9},
		{Title: "Time Out", URL: "http://b", Content: "Food hall.", Score: 0.5},
	}, hits)
}

func TestClient_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	c, err := New("k", WithBaseURL(server.URL))
	require.NoError(t, err)

	hits, err := c.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail": {"error": "Unauthorized: missing or invalid API key."}}`, "invalid API key"},
		{"server error", http.StatusInternalServerError, "boom", "boom"},
		{"malformed body", http.StatusOK, "{not json", "malformed response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := New("k", WithBaseURL(server.URL))
			require.NoError(t, err)

			_, err = c.Search(context.Background(), "q")
			require.Error(t, err)
			assert.ErrorIs(t, err, websearch.ErrSearchFailed)
			assert.ErrorContains(t, err, tt.message)
		})
	}
}
