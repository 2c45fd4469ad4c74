// Package page fetches web pages named by search hits and extracts their
// readable text. Fetches honor the site's robots.txt.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/poiesic/boroughs/core"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultUserAgent identifies the fetcher to sites and their robots.txt.
	DefaultUserAgent = "boroughs-bot/1.0"

	// DefaultMinContent is the hit length below which a snippet is enriched.
	DefaultMinContent = 200

	// DefaultMaxContent caps the enriched text length, in characters.
	DefaultMaxContent = 4000

	// DefaultMaxBody caps how many bytes of a page are read.
	DefaultMaxBody = 4 << 20

	defaultTimeout = 20 * time.Second
)

var (
	// ErrDisallowed indicates robots.txt forbids fetching the page.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrNoContent indicates no readable text could be extracted.
	ErrNoContent = errors.New("no readable content")

	whitespace = regexp.MustCompile(`\s+`)
	blockOpen  = regexp.MustCompile(`<(div|p|br|li|td|tr|h[1-6])[^>]*>`)
	blockClose = regexp.MustCompile(`</(div|p|br|li|td|tr|h[1-6])>`)
)

// Article is the readable part of a fetched page.
type Article struct {
	Title   string
	Text    string
	Excerpt string
}

// Fetcher downloads pages and extracts article text.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	minContent int
	maxContent int
	maxBody    int64
	logger     *slog.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.Group // host -> group, nil means allow all
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header and robots.txt agent.
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

// WithContentBounds sets the enrichment thresholds.
func WithContentBounds(minContent, maxContent int) Option {
	return func(f *Fetcher) {
		f.minContent = minContent
		f.maxContent = maxContent
	}
}

// WithMaxBody sets how many bytes of a page are read before the rest is
// discarded.
func WithMaxBody(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: defaultTimeout},
		userAgent:  DefaultUserAgent,
		minContent: DefaultMinContent,
		maxContent: DefaultMaxContent,
		maxBody:    DefaultMaxBody,
		logger:     slog.Default().With("component", "page"),
		robots:     make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enrich replaces a short snippet's content with the readable text of its
// page. The snippet is returned unchanged when it has no URL, is already
// long enough, or the page cannot be used.
func (f *Fetcher) Enrich(ctx context.Context, snippet core.Snippet) (core.Snippet, error) {
	if snippet.URL == "" || len([]rune(snippet.Content)) >= f.minContent {
		return snippet, nil
	}

	article, err := f.Fetch(ctx, snippet.URL)
	if err != nil {
		if ctx.Err() != nil {
			return snippet, ctx.Err()
		}
		f.logger.Warn("keeping search content", "url", snippet.URL, "error", err)
		return snippet, nil
	}

	text := article.Text
	if runes := []rune(text); f.maxContent > 0 && len(runes) > f.maxContent {
		text = string(runes[:f.maxContent])
	}
	snippet.Content = text
	return snippet, nil
}

// Fetch downloads pageURL and extracts its article.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Article, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q", pageURL)
	}

	if !f.Allowed(ctx, parsed) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}

	body, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extract(body, parsed)
}

// Allowed reports whether robots.txt on the page's host permits fetching it.
// A missing or unreadable robots.txt allows everything.
func (f *Fetcher) Allowed(ctx context.Context, u *url.URL) bool {
	group := f.robotsGroup(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (f *Fetcher) robotsGroup(ctx context.Context, u *url.URL) *robotstxt.Group {
	host := u.Scheme + "://" + u.Host

	f.mu.Lock()
	group, ok := f.robots[host]
	f.mu.Unlock()
	if ok {
		return group
	}

	group = f.loadRobots(ctx, host)
	f.mu.Lock()
	f.robots[host] = group
	f.mu.Unlock()
	return group
}

func (f *Fetcher) loadRobots(ctx context.Context, host string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("robots.txt unavailable", "host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.logger.Debug("robots.txt unreadable", "host", host, "error", err)
		return nil
	}
	return data.FindGroup(f.userAgent)
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, f.maxBody)
	utf8Reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = limited
	}
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func extract(rawHTML string, pageURL *url.URL) (*Article, error) {
	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, err
	}

	// Pad block elements so their text does not run together.
	spaced := blockOpen.ReplaceAllString(article.Content, " $0")
	spaced = blockClose.ReplaceAllString(spaced, "$0 ")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced))
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " "))
	if text == "" {
		return nil, ErrNoContent
	}
	return &Article{
		Title:   article.Title,
		Text:    text,
		Excerpt: article.Excerpt,
	}, nil
}
