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


package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/boroughs/ai"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"golang.org/x/time/rate"
)

// Refiner produces category results from snippets.
type Refiner struct {
	generator ai.Generator
	table     *config.Table
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithPacing enforces a minimum delay between consecutive generation calls.
// Zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(r *Refiner) {
		if d <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refiner) {
		r.logger = logger
	}
}

// New creates a Refiner using table for prompts and policies.
func New(generator ai.Generator, table *config.Table, opts ...Option) *Refiner {
	r := &Refiner{
		generator: generator,
		table:     table,
		logger:    slog.Default().With("component", "refiner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// The reply's "urls" field is not read; sources come from the snippets.
type narrativeReply struct {
	Content *string `json:"content"`
}

type itemReply struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     string  `json:"address"`
}

// Refine returns the result for category. With no snippets the policy's
// empty result is returned without calling the model.
func (r *Refiner) Refine(ctx context.Context, key core.NeighborhoodKey, category core.Category, snippets []core.Snippet) (core.CategoryResult, error) {
	cfg, err := r.table.Lookup(category)
	if err != nil {
		return core.CategoryResult{}, err
	}
	policy := cfg.ExtractionPolicy()
	if len(snippets) == 0 {
		return core.Empty(policy), nil
	}

	switch policy {
	case core.PolicyNarrative:
		return r.narrative(ctx, key, cfg, snippets)
	case core.PolicyItemized:
		return r.itemized(ctx, key, cfg, snippets)
	default:
		return core.CategoryResult{}, fmt.Errorf("%w: %q", core.ErrUnknownPolicy, cfg.Policy)
	}
}

// narrative blends all snippets in one request.
func (r *Refiner) narrative(ctx context.Context, key core.NeighborhoodKey, cfg *config.CategoryConfig, snippets []core.Snippet) (core.CategoryResult, error) {
	texts := make([]string, 0, len(snippets))
	urls := make([]string, 0, len(snippets))
	for _, s := range snippets {
		texts = append(texts, s.Content)
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}

	prompt := config.Render(cfg.Prompt, key, cfg.Category(), strings.Join(texts, " "), urls)
	reply, err := r.generate(ctx, prompt)
	if err != nil {
		return core.CategoryResult{}, err
	}

	var out narrativeReply
	if err := decodeReply(reply, &out); err != nil || out.Content == nil {
		r.logger.Warn("keeping raw reply",
			"neighborhood", key.Neighborhood,
			"category", cfg.Name,
			"error", err)
		return core.NewRaw(rawText(reply)), nil
	}
	return core.NewNarrative(unescapeContent(*out.Content), urls), nil
}

// itemized extracts one entity per snippet, in snippet order.
func (r *Refiner) itemized(ctx context.Context, key core.NeighborhoodKey, cfg *config.CategoryConfig, snippets []core.Snippet) (core.CategoryResult, error) {
	items := make([]core.Item, 0, len(snippets))
	for _, s := range snippets {
		var urls []string
		if s.URL != "" {
			urls = []string{s.URL}
		}
		prompt := config.Render(cfg.Prompt, key, cfg.Category(), s.Content, urls)
		reply, err := r.generate(ctx, prompt)
		if err != nil {
			return core.CategoryResult{}, err
		}

		var out itemReply
		if err := decodeReply(reply, &out); err != nil || out.Name == nil || out.Description == nil {
			r.logger.Warn("keeping raw item",
				"neighborhood", key.Neighborhood,
				"category", cfg.Name,
				"url", s.URL,
				"error", err)
			items = append(items, core.Item{Description: rawText(reply), URL: s.URL})
			continue
		}
		items = append(items, core.Item{
			Name:        strings.TrimSpace(*out.Name),
			Description: unescapeContent(*out.Description),
			Address:     strings.TrimSpace(out.Address),
			URL:         s.URL,
		})
	}
	return core.NewItemized(items), nil
}

func (r *Refiner) generate(ctx context.Context, prompt string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	reply, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return reply, nil
}
