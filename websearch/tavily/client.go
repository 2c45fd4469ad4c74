// Package tavily implements websearch.Searcher against the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/boroughs/websearch"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultBaseURL is the Tavily API endpoint.
	DefaultBaseURL = "https://api.tavily.com"

	// DefaultMaxResults matches the provider's default page size.
	DefaultMaxResults = 5

	defaultTimeout = 30 * time.Second
)

// ErrMissingAPIKey indicates the client was created without an API key.
var ErrMissingAPIKey = errors.New("tavily: API key is required")

// Client is a Tavily search client.
type Client struct {
	apiKey      string
	baseURL     string
	maxResults  int
	searchDepth string
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ websearch.Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. An empty URL keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithMaxResults sets the number of hits requested per query.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithSearchDepth sets the search depth, "basic" or "advanced".
func WithSearchDepth(depth string) Option {
	return func(c *Client) {
		if depth != "" {
			c.searchDepth = depth
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		maxResults:  DefaultMaxResults,
		searchDepth: "basic",
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default().With("component", "tavily"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) requestBody(query string) ([]byte, error) {
	body := []byte(`{"include_answer":false}`)
	var err error
	for _, field := range []struct {
		path  string
		value any
	}{
		{"query", query},
		{"search_depth", c.searchDepth},
		{"max_results", c.maxResults},
	} {
		if body, err = sjson.SetBytes(body, field.path, field.value); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Search posts query to the /search endpoint and returns the results.
func (c *Client) Search(ctx context.Context, query string) ([]websearch.Hit, error) {
	body, err := c.requestBody(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", websearch.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", websearch.ErrSearchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := gjson.GetBytes(data, "detail.error").String()
		if detail == "" {
			detail = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", websearch.ErrSearchFailed, resp.StatusCode, detail)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed response", websearch.ErrSearchFailed)
	}

	results := gjson.GetBytes(data, "results").Array()
	hits := make([]websearch.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, websearch.Hit{
			Title:   r.Get("title").String(),
			URL:     r.Get("url").String(),
			Content: r.Get("content").String(),
			Score:   r.Get("score").Float(),
		})
	}

	c.logger.Debug("search complete", "query", query, "hits", len(hits))
	return hits, nil
}
