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


package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/boroughs/core"
	"gopkg.in/yaml.v2"
)

//go:embed categories.yaml
var defaultCategories []byte

// Strategy names how a category's snippets are retrieved.
type Strategy string

const (
	// StrategyKeyword filters vector index hits by the category's keywords.
	StrategyKeyword Strategy = "keyword"
	// StrategySearch issues one web search built from the category's template.
	StrategySearch Strategy = "search"
)

// DefaultIndexQuery is the vector index query used when a category has none.
const DefaultIndexQuery = "{neighborhood}"

// CategoryConfig describes how one category is retrieved and refined.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Policy   string   `yaml:"policy"`
	Strategy Strategy `yaml:"strategy"`
	Prompt   string   `yaml:"prompt"`
	Keywords []string `yaml:"keywords"`
	Query    string   `yaml:"query"`
	Search   string   `yaml:"search"`
}

// Category returns the category label.
func (c *CategoryConfig) Category() core.Category {
	return core.Category(c.Name)
}

// ExtractionPolicy returns the parsed policy. The table must be valid.
func (c *CategoryConfig) ExtractionPolicy() core.Policy {
	p, _ := core.ParsePolicy(c.Policy)
	return p
}

// HasKeywords reports whether the category can be served by keyword retrieval.
func (c *CategoryConfig) HasKeywords() bool {
	return len(c.Keywords) > 0
}

// HasSearch reports whether the category can be served by web search.
func (c *CategoryConfig) HasSearch() bool {
	return strings.TrimSpace(c.Search) != ""
}

// IndexQuery renders the vector index query for key.
func (c *CategoryConfig) IndexQuery(key core.NeighborhoodKey) string {
	query := c.Query
	if strings.TrimSpace(query) == "" {
		query = DefaultIndexQuery
	}
	return Render(query, key, c.Category(), "", nil)
}

// SearchQuery renders the web search query for key.
func (c *CategoryConfig) SearchQuery(key core.NeighborhoodKey) string {
	return Render(c.Search, key, c.Category(), "", nil)
}

// Table is the ordered category table.
type Table struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// DefaultTable returns the built-in category table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultCategories)
}

// LoadTable reads a category table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML category table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every category has a unique name, exactly one known
// policy, a known strategy, a prompt with a {content} placeholder, and the
// keywords or search template its strategy needs.
func (t *Table) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidTable)
	}
	seen := make(map[string]bool, len(t.Categories))
	for i := range t.Categories {
		c := &t.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Strategy = Strategy(strings.ToLower(strings.TrimSpace(string(c.Strategy))))
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidTable, i)
		}
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidTable, c.Name)
		}
		seen[lower] = true

		if _, err := core.ParsePolicy(c.Policy); err != nil {
			return fmt.Errorf("%w: category %q: %w %q", ErrInvalidTable, c.Name, err, c.Policy)
		}
		if !strings.Contains(c.Prompt, "{content}") {
			return fmt.Errorf("%w: category %q: prompt needs a {content} placeholder", ErrInvalidTable, c.Name)
		}
		switch c.Strategy {
		case StrategyKeyword:
			if !c.HasKeywords() {
				return fmt.Errorf("%w: category %q: keyword strategy needs keywords", ErrInvalidTable, c.Name)
			}
		case StrategySearch:
			if !c.HasSearch() {
				return fmt.Errorf("%w: category %q: search strategy needs a search template", ErrInvalidTable, c.Name)
			}
		default:
			return fmt.Errorf("%w: category %q: unknown strategy %q", ErrInvalidTable, c.Name, c.Strategy)
		}
		for j, kw := range c.Keywords {
			c.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return nil
}

// Lookup returns the configuration for category, ignoring case.
func (t *Table) Lookup(category core.Category) (*CategoryConfig, error) {
	want := strings.ToLower(strings.TrimSpace(string(category)))
	for i := range t.Categories {
		if strings.ToLower(t.Categories[i].Name) == want {
			return &t.Categories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
}

// Names returns the category labels in table order.
func (t *Table) Names() []core.Category {
	names := make([]core.Category, len(t.Categories))
	for i := range t.Categories {
		names[i] = t.Categories[i].Category()
	}
	return names
}

// Select returns a table restricted to the named categories, in table order.
// An empty selection returns the table itself.
func (t *Table) Select(names []string) (*Table, error) {
	if len(names) == 0 {
		return t, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := t.Lookup(core.Category(n)); err != nil {
			return nil, err
		}
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	selected := &Table{}
	for _, c := range t.Categories {
		if want[strings.ToLower(c.Name)] {
			selected.Categories = append(selected.Categories, c)
		}
	}
	return selected, nil
}

// Render substitutes placeholders in template. urls is rendered as a JSON
// array.
func Render(template string, key core.NeighborhoodKey, category core.Category, content string, urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	encoded, _ := json.Marshal(urls)
	return strings.NewReplacer(
		"{neighborhood}", key.Neighborhood,
		"{borough}", key.Borough,
		"{category}", string(category),
		"{content}", content,
		"{urls}", string(encoded),
	).Replace(template)
}
