// Copyright 2025 Relaydesk
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

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	ticketrag "github.com/relaydesk/ticketrag"
	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/ai/openai"
	"github.com/relaydesk/ticketrag/ingest/csvdir"
	"github.com/relaydesk/ticketrag/reindex"
	"github.com/relaydesk/ticketrag/storage/badger"
)

func main() {
	// Local overrides for hosts, models and API keys; missing file is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "ticketrag",
		Usage:  "Retrieval-augmented question answering over support tickets",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Watch a directory of ticket CSV files and continuously index them",
				Action: runCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Directory containing ticket CSV files",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Poll interval for the ticket directory",
						Value: 5 * time.Second,
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed tickets",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     engineFlags(),
			},
			{
				Name:      "search",
				Usage:     "Show the tickets most similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"k"},
						Usage:   "Number of results to show",
						Value:   5,
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored tickets with the configured embedding model",
				Action: reindexCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
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
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that opens the engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "./ticketrag.db",
			EnvVars: []string{"TICKETRAG_DB"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL (embeddings and chat)",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"TICKETRAG_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"TICKETRAG_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Chat model name for answer synthesis",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"TICKETRAG_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the AI services",
			Value:   "none",
			EnvVars: []string{"TICKETRAG_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "dimension",
			Usage:   "Embedding dimension of the configured model",
			Value:   ticketrag.DefaultDimension,
			EnvVars: []string{"TICKETRAG_DIMENSION"},
		},
	}
}

func newEngine(c *cli.Context) (*ticketrag.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return ticketrag.NewEngine(c.String("db"),
		ticketrag.WithAIConfig(aiConfig),
		ticketrag.WithDimension(c.Int("dimension")),
	)
}

func runCommand(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	source, err := csvdir.NewSource(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to open ticket directory: %w", err)
	}
	defer source.Close()

	pipeline, err := engine.NewPipeline(source)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("watching for tickets", "input", c.String("input"), "db", c.String("db"))
	if err := pipeline.Run(ctx, c.Duration("interval")); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("usage: ticketrag ask <question>")
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	answerer, err := engine.NewAnswerer()
	if err != nil {
		return err
	}

	result, err := answerer.Answer(c.Context, question)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range result.Sources {
			fmt.Printf("  %s (score %.3f)\n", src.Record.SourceID, src.Score)
		}
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: ticketrag search <query>")
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	retriever, err := engine.NewRetriever()
	if err != nil {
		return err
	}

	results, err := retriever.Retrieve(c.Context, query, c.Int("top"))
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matching tickets.")
		return nil
	}

	for i, res := range results {
		subject := res.Record.Metadata["subject"]
		if subject == "" {
			subject = res.Record.Text
		}
		fmt.Printf("%d. %s (score %.3f) %s\n", i+1, res.Record.SourceID, res.Score, subject)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewRecordRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)

	// The rebuilt index is loaded fresh on the next engine start, so no
	// live store is wired here.
	rebuilder := reindex.NewRebuilder(repo, nil, embedder, reindexConfig, os.Stderr)
	return rebuilder.Run(ctx)
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
