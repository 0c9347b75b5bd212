// Copyright 2025 The Mimir Authors
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	mimir "github.com/mimir-kb/mimir"
	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/ai/openai"
	"github.com/mimir-kb/mimir/config"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/ingestion"
	"github.com/mimir-kb/mimir/mcp"
	"github.com/mimir-kb/mimir/reembed"
	"github.com/mimir-kb/mimir/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "mimir",
		Usage: "Knowledge base with semantic and lexical search over MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the knowledge base over the Model Context Protocol",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.StringFlag{
						Name:  "http",
						Usage: "Serve over HTTP on this address instead of stdio",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search the knowledge base from the command line",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode: semantic, smart, or fuzzy",
						Value: "smart",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum result score (default 0.7 semantic, 0.3 smart/fuzzy)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Bulk-load documents from a YAML file",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding workers",
						Value: 2,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all documents with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding workers",
						Value: 1,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration file named by --config, or falls back
// to defaults. The --db flag overrides the configured database path.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
	}
	return &cfg, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	kb, err := mimir.Open(cfg.Database.Path, mimir.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	server, err := mcp.NewServer(kb, cfg.Server.Name, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := c.String("http")
	if addr == "" {
		addr = cfg.Server.HTTPAddr
	}
	if addr != "" {
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}

func searchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	kb, err := mimir.Open(cfg.Database.Path, mimir.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	ctx := context.Background()
	limit := c.Int("limit")

	minScore := func(fallback float64) float64 {
		if c.IsSet("min-score") {
			return c.Float64("min-score")
		}
		return fallback
	}

	var results []core.ScoredDocument
	switch mode := c.String("mode"); mode {
	case "semantic":
		vector, err := kb.NewVectorSearcher()
		if err != nil {
			return err
		}
		results = vector.Search(ctx, query, minScore(0.7), limit)
	case "smart":
		smart, err := kb.NewSmartSearcher()
		if err != nil {
			return err
		}
		results, err = smart.Search(ctx, query, minScore(0.3), limit)
		if err != nil {
			return err
		}
	case "fuzzy":
		smart, err := kb.NewSmartSearcher()
		if err != nil {
			return err
		}
		results, err = smart.FuzzySearch(ctx, query, 2, minScore(0.3), limit)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown search mode %q: must be semantic, smart, or fuzzy", mode)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %s (%s) [%0.3f]\n", i, hit.Document.Title, hit.Document.Key, hit.Score)
	}
	return nil
}

// documentSpec is the YAML shape of one document in an ingest file.
type documentSpec struct {
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Summary    string   `yaml:"summary"`
	Tags       []string `yaml:"tags"`
	Confidence float64  `yaml:"confidence"`
	Source     string   `yaml:"source"`
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one input file is required")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	var specs []documentSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("parsing input file: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("input file contains no documents")
	}

	documents := make([]*core.Document, len(specs))
	for i, spec := range specs {
		confidence := spec.Confidence
		if confidence == 0 {
			confidence = 0.8
		}
		documents[i] = &core.Document{
			Title:      spec.Title,
			Content:    spec.Content,
			Summary:    spec.Summary,
			Tags:       spec.Tags,
			Confidence: confidence,
			Status:     "current",
			Meta:       core.DocumentMeta{Source: spec.Source},
		}
	}

	kb, err := mimir.Open(cfg.Database.Path, mimir.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestPipeline(ingestion.WithPoolSize(c.Int("workers")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	keys, err := pipeline.Ingest(context.Background(), documents...)
	pipeline.Wait()
	if err != nil {
		return fmt.Errorf("ingestion failed after %d documents: %w", len(keys), err)
	}

	fmt.Printf("Ingested %d documents\n", len(keys))
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Workers:        c.Int("workers"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
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
