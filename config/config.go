package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/source"
	"gopkg.in/yaml.v2"
)

// Config is the run configuration read from a YAML file. Secrets are not
// part of it; see Secrets.
type Config struct {
	Neighborhoods []NeighborhoodConfig `yaml:"neighborhoods"`
	Source        SourceConfig         `yaml:"source"`
	Index         IndexConfig          `yaml:"index"`
	Chunking      ChunkingConfig       `yaml:"chunking"`
	Refine        RefineConfig         `yaml:"refine"`
	Store         StoreConfig          `yaml:"store"`
	Search        SearchConfig         `yaml:"search"`
	AI            AIConfig             `yaml:"ai"`

	// CategoriesFile optionally replaces the built-in category table.
	CategoriesFile string `yaml:"categories_file"`
	// Categories optionally restricts the run to the named categories.
	Categories []string `yaml:"categories"`
}

type NeighborhoodConfig struct {
	Neighborhood string `yaml:"neighborhood"`
	Borough      string `yaml:"borough"`
}

type SourceConfig struct {
	PDFDir     string `yaml:"pdf_dir"`
	PDFPattern string `yaml:"pdf_pattern"`
	JSONDir    string `yaml:"json_dir"`
}

type IndexConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	K      int    `yaml:"k"`
	Reuse  bool   `yaml:"reuse"`
}

type ChunkingConfig struct {
	MaxChunkSize      int     `yaml:"max_chunk_size"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

type RefineConfig struct {
	// Pacing is the minimum delay between generation calls.
	Pacing time.Duration `yaml:"pacing"`
	// NeighborhoodDelay is the pause between neighborhoods.
	NeighborhoodDelay time.Duration `yaml:"neighborhood_delay"`
}

type StoreConfig struct {
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
	Depth      string `yaml:"depth"`
	Enrich     bool   `yaml:"enrich"`
}

type AIConfig struct {
	Backend         string  `yaml:"backend"`
	EmbeddingHost   string  `yaml:"embedding_host"`
	GenerationHost  string  `yaml:"generation_host"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	GenerationModel string  `yaml:"generation_model"`
	Temperature     float64 `yaml:"temperature"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			PDFDir:     ".",
			PDFPattern: source.DefaultPDFPattern,
			JSONDir:    ".",
		},
		Index: IndexConfig{
			Dir:    "indexes",
			Prefix: "faiss_index",
			K:      30,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize:      2000,
			DistanceThreshold: 1.5,
		},
		Refine: RefineConfig{
			Pacing:            time.Second,
			NeighborhoodDelay: 6 * time.Second,
		},
		Store: StoreConfig{
			Database:   "insiderhood",
			Collection: "neighborhood_summaries",
			Timeout:    10 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 5,
			Depth:      "basic",
		},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no run can use.
func (c *Config) Validate() error {
	for i, n := range c.Neighborhoods {
		if err := core.ValidateKey(n.Key()); err != nil {
			return fmt.Errorf("%w: neighborhood %d: %w", ErrInvalidConfig, i, err)
		}
	}
	if c.Index.K <= 0 {
		return fmt.Errorf("%w: index.k must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Index.Prefix) == "" {
		return fmt.Errorf("%w: index.prefix is required", ErrInvalidConfig)
	}
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: chunking.max_chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.DistanceThreshold <= 0 {
		return fmt.Errorf("%w: chunking.distance_threshold must be positive", ErrInvalidConfig)
	}
	if c.Refine.Pacing < 0 || c.Refine.NeighborhoodDelay < 0 {
		return fmt.Errorf("%w: delays cannot be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Store.Database) == "" || strings.TrimSpace(c.Store.Collection) == "" {
		return fmt.Errorf("%w: store.database and store.collection are required", ErrInvalidConfig)
	}
	return nil
}

// Keys returns the configured neighborhoods.
func (c *Config) Keys() []core.NeighborhoodKey {
	keys := make([]core.NeighborhoodKey, len(c.Neighborhoods))
	for i, n := range c.Neighborhoods {
		keys[i] = n.Key()
	}
	return keys
}

// Table returns the category table for the run: the built-in table or
// CategoriesFile, restricted to Categories when set.
func (c *Config) Table() (*Table, error) {
	var (
		t   *Table
		err error
	)
	if c.CategoriesFile != "" {
		t, err = LoadTable(c.CategoriesFile)
	} else {
		t, err = DefaultTable()
	}
	if err != nil {
		return nil, err
	}
	return t.Select(c.Categories)
}

// Key converts the entry to a neighborhood key.
func (n NeighborhoodConfig) Key() core.NeighborhoodKey {
	return core.NeighborhoodKey{
		Neighborhood: strings.TrimSpace(n.Neighborhood),
		Borough:      strings.TrimSpace(n.Borough),
	}
}
