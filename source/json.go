package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/boroughs/core"
	"github.com/tidwall/gjson"
)

// Material is per-category snippet content loaded for one neighborhood.
type Material struct {
	Key      core.NeighborhoodKey
	sections map[string][]core.Snippet // lowercased category -> snippets
}

// Snippets returns the content recorded for category. Lookup ignores case.
// A category with no content yields an empty slice.
func (m *Material) Snippets(category core.Category) []core.Snippet {
	snippets := m.sections[strings.ToLower(strings.TrimSpace(string(category)))]
	if snippets == nil {
		return []core.Snippet{}
	}
	return snippets
}

// Len returns the number of categories with content.
func (m *Material) Len() int {
	return len(m.sections)
}

// JSONLoader reads <baseDir>/<neighborhood-lowercased>.json files holding a
// nested mapping neighborhood -> category -> content.
//
// Content may be a string, an array of strings, or an array of objects with
// "content" and optional "url" fields.
type JSONLoader struct {
	baseDir string
}

// NewJSONLoader creates a loader reading files from baseDir.
func NewJSONLoader(baseDir string) *JSONLoader {
	return &JSONLoader{baseDir: baseDir}
}

// Path returns the JSON path for key.
func (l *JSONLoader) Path(key core.NeighborhoodKey) string {
	return filepath.Join(l.baseDir, strings.ToLower(strings.TrimSpace(key.Neighborhood))+".json")
}

// Load reads the material for key. The neighborhood entry is matched
// ignoring case; a file without one yields empty material.
// Returns core.ErrSourceNotFound if the file does not exist.
func (l *JSONLoader) Load(ctx context.Context, key core.NeighborhoodKey) (*Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := l.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
		}
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in %s", path)
	}

	material := &Material{Key: key, sections: make(map[string][]core.Snippet)}
	want := strings.ToLower(strings.TrimSpace(key.Neighborhood))
	gjson.ParseBytes(data).ForEach(func(name, categories gjson.Result) bool {
		if strings.ToLower(strings.TrimSpace(name.String())) != want {
			return true
		}
		categories.ForEach(func(category, content gjson.Result) bool {
			label := strings.ToLower(strings.TrimSpace(category.String()))
			material.sections[label] = append(material.sections[label], snippetsFrom(content)...)
			return true
		})
		return false
	})
	return material, nil
}

func snippetsFrom(content gjson.Result) []core.Snippet {
	switch {
	case content.IsArray():
		var out []core.Snippet
		for _, entry := range content.Array() {
			out = append(out, snippetsFrom(entry)...)
		}
		return out
	case content.IsObject():
		text := strings.TrimSpace(content.Get("content").String())
		if text == "" {
			return nil
		}
		return []core.Snippet{{
			Content: text,
			URL:     content.Get("url").String(),
			Query:   content.Get("query").String(),
		}}
	default:
		text := strings.TrimSpace(content.String())
		if text == "" {
			return nil
		}
		return []core.Snippet{{Content: text}}
	}
}
