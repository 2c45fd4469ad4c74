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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/boroughs"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/pipeline"
	"github.com/poiesic/boroughs/retrieval"
	"github.com/poiesic/boroughs/websearch/tavily"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "boroughs",
		Usage: "Aggregate neighborhood guides into structured summaries",
		// "Name, Borough" values carry a comma of their own.
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML run configuration",
			},
			&cli.StringSliceFlag{
				Name:    "neighborhood",
				Aliases: []string{"n"},
				Usage:   "Neighborhood as \"Name, Borough\" (repeatable, overrides the configuration)",
			},
			&cli.StringFlag{
				Name:    "mongodb-uri",
				Usage:   "MongoDB connection string",
				EnvVars: []string{config.EnvMongoURI},
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the embedding and generation hosts",
				EnvVars: []string{config.EnvOpenAIKey},
			},
			&cli.StringFlag{
				Name:    "tavily-api-key",
				Usage:   "API key for Tavily web search",
				EnvVars: []string{config.EnvTavilyKey},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Retrieve, refine and store every category for each neighborhood",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Neighborhood material: pdf, json or search",
						Value:   string(boroughs.SourcePDF),
					},
					&cli.BoolFlag{
						Name:  "supplement",
						Usage: "Run web search as a second pass after the PDF guide",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Restrict the run to a category (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "reuse-index",
						Usage: "Reload existing index snapshots instead of rebuilding them",
					},
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "Identifier stamped on stored records (default: random UUID)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Keep records in memory and print them instead of storing them",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Build vector index snapshots from the PDF guides",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reuse-index",
						Usage: "Skip neighborhoods whose snapshot already exists",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Query a neighborhood's index snapshot",
				ArgsUsage: "[text]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Retrieve with a category's query and keyword filter instead of free text",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of index hits",
						Value: retrieval.DefaultK,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a web search and print the hits",
				ArgsUsage: "<query>",
				Action:    searchCommand,
			},
		},
	}
}

// loadConfig reads the run configuration and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	if values := c.StringSlice("neighborhood"); len(values) > 0 {
		cfg.Neighborhoods = cfg.Neighborhoods[:0]
		for _, v := range values {
			key, err := parseNeighborhood(v)
			if err != nil {
				return nil, err
			}
			cfg.Neighborhoods = append(cfg.Neighborhoods, config.NeighborhoodConfig{
				Neighborhood: key.Neighborhood,
				Borough:      key.Borough,
			})
		}
	}
	if c.Bool("reuse-index") {
		cfg.Index.Reuse = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Neighborhoods) == 0 {
		return nil, fmt.Errorf("%w: no neighborhoods given", config.ErrInvalidConfig)
	}
	return cfg, nil
}

// parseNeighborhood splits "Name, Borough" on the last comma.
func parseNeighborhood(value string) (core.NeighborhoodKey, error) {
	i := strings.LastIndex(value, ",")
	if i < 0 {
		return core.NeighborhoodKey{}, fmt.Errorf("neighborhood %q must be \"Name, Borough\"", value)
	}
	key := core.NeighborhoodKey{
		Neighborhood: strings.TrimSpace(value[:i]),
		Borough:      strings.TrimSpace(value[i+1:]),
	}
	if err := core.ValidateKey(key); err != nil {
		return core.NeighborhoodKey{}, fmt.Errorf("neighborhood %q: %w", value, err)
	}
	return key, nil
}

func secrets(c *cli.Context) config.Secrets {
	return config.Secrets{
		MongoURI:  c.String("mongodb-uri"),
		OpenAIKey: c.String("openai-api-key"),
		TavilyKey: c.String("tavily-api-key"),
	}
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	src, err := boroughs.ParseSource(c.String("source"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if categories := c.StringSlice("category"); len(categories) > 0 {
		cfg.Categories = categories
	}

	dryRun := c.Bool("dry-run")
	needSearch := src == boroughs.SourceSearch || c.Bool("supplement")
	s := secrets(c)
	if err := s.Require(!dryRun, needSearch); err != nil {
		return err
	}

	var opts []boroughs.Option
	if dryRun {
		opts = append(opts, boroughs.WithMemoryStore())
	}
	svc, err := boroughs.Open(ctx, cfg, s, opts...)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	preparer, err := svc.Preparer(src, c.Bool("supplement"))
	if err != nil {
		return err
	}
	driver := svc.NewDriver(preparer, pipeline.WithRunID(c.String("run-id")))

	fmt.Fprintf(os.Stderr, "Run: %s\n", driver.RunID())
	fmt.Fprintf(os.Stderr, "Source: %s\n", src)
	fmt.Fprintf(os.Stderr, "Neighborhoods: %d\n", len(cfg.Neighborhoods))
	fmt.Fprintf(os.Stderr, "Categories: %d\n\n", len(svc.Table().Categories))

	report, err := driver.Run(ctx, cfg.Keys())
	if report != nil {
		printReport(c.App.Writer, report, dryRun)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func printReport(w io.Writer, report *pipeline.Report, records bool) {
	for _, o := range report.Outcomes {
		switch o.State {
		case pipeline.StatePersisted:
			fmt.Fprintf(w, "%-12s %s (%d categories)\n", o.State, o.Key, len(o.Record.Categories))
			if records {
				printRecord(w, o.Record)
			}
		default:
			fmt.Fprintf(w, "%-12s %s: %s\n", o.State, o.Key, o.Reason)
		}
	}
	fmt.Fprintf(w, "\n%d persisted, %d skipped\n",
		report.Count(pipeline.StatePersisted), report.Count(pipeline.StateSkipped))
}

func printRecord(w io.Writer, record *core.NeighborhoodRecord) {
	for _, category := range record.Order {
		result := record.Categories[category]
		fmt.Fprintf(w, "  %s [%s]\n", category, result.Kind)
		switch result.Kind {
		case core.ResultNarrative:
			fmt.Fprintf(w, "    %s\n", truncate(result.Content, 200))
			for _, u := range result.URLs {
				fmt.Fprintf(w, "    - %s\n", u)
			}
		case core.ResultItemized:
			for _, item := range result.Items {
				fmt.Fprintf(w, "    - %s: %s\n", item.Name, truncate(item.Description, 120))
			}
		default:
			fmt.Fprintf(w, "    %s\n", truncate(result.Text, 200))
		}
	}
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s := secrets(c)
	if err := s.Require(false, false); err != nil {
		return err
	}

	svc, err := boroughs.Open(ctx, cfg, s, boroughs.WithMemoryStore())
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	preparer := pipeline.NewPDFPreparer(svc.PDFLoader(), svc.Chunker(), svc.Builder(), svc.Table(),
		pipeline.WithReuseIndex(cfg.Index.Reuse),
		pipeline.WithMaxChunkSize(cfg.Chunking.MaxChunkSize))

	for _, key := range cfg.Keys() {
		idx, err := preparer.Index(ctx, key)
		if errors.Is(err, core.ErrSourceNotFound) {
			slog.Warn("skipping neighborhood, source material not found", "neighborhood", key.Neighborhood, "error", err)
			fmt.Fprintf(c.App.Writer, "%-12s %s\n", pipeline.StateSkipped, key)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", key, err)
		}
		fmt.Fprintf(c.App.Writer, "%-12s %s (%d chunks)\n", idx.Name(), key, idx.Len())
		if err := idx.Close(); err != nil {
			return err
		}
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if len(cfg.Neighborhoods) != 1 {
		return errors.New("query takes exactly one neighborhood")
	}
	key := cfg.Keys()[0]

	text := strings.Join(c.Args().Slice(), " ")
	category := c.String("category")
	if text == "" && category == "" {
		return errors.New("either a query text or --category is required")
	}

	s := secrets(c)
	if err := s.Require(false, false); err != nil {
		return err
	}
	svc, err := boroughs.Open(ctx, cfg, s, boroughs.WithMemoryStore())
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	idx, err := svc.Builder().Reload(ctx, key)
	if err != nil {
		return err
	}
	defer idx.Close()

	var snippets []core.Snippet
	if category != "" {
		r := retrieval.NewKeywordRetriever(idx, svc.Table(), retrieval.WithK(c.Int("k")))
		snippets, err = r.Retrieve(ctx, key, core.Category(category))
	} else {
		snippets, err = idx.Query(ctx, text, c.Int("k"))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(snippets))
	for i, snippet := range snippets {
		fmt.Fprintf(c.App.Writer, "%d: %s\n", i, truncate(snippet.Content, 160))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a search query is required")
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	client, err := tavily.New(c.String("tavily-api-key"),
		tavily.WithBaseURL(cfg.Search.BaseURL),
		tavily.WithMaxResults(cfg.Search.MaxResults),
		tavily.WithSearchDepth(cfg.Search.Depth))
	if err != nil {
		return fmt.Errorf("%w: %s", config.ErrMissingSecret, config.EnvTavilyKey)
	}

	hits, err := client.Search(context.Background(), query)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(c.App.Writer, "%d: %s [%0.3f]\n   %s\n   %s\n", i, hit.Title, hit.Score, hit.URL, truncate(hit.Content, 160))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
