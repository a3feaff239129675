// Package setup builds the tutoring pipeline and its backing services
// from environment configuration. Both the API server and the worker use
// the same construction path.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumen-edu/lumen/internal/util"
	"github.com/lumen-edu/lumen/pkg/agent"
	"github.com/lumen-edu/lumen/pkg/ai"
	"github.com/lumen-edu/lumen/pkg/ai/fallback"
	oai "github.com/lumen-edu/lumen/pkg/ai/ollama"
	gai "github.com/lumen-edu/lumen/pkg/ai/openai"
	"github.com/lumen-edu/lumen/pkg/loader"
	ioloader "github.com/lumen-edu/lumen/pkg/loader/io"
	"github.com/lumen-edu/lumen/pkg/loader/pdf"
	s3loader "github.com/lumen-edu/lumen/pkg/loader/s3"
	"github.com/lumen-edu/lumen/pkg/loader/web"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/orchestrator"
	"github.com/lumen-edu/lumen/pkg/store"
	"github.com/lumen-edu/lumen/pkg/store/graph"
	"github.com/lumen-edu/lumen/pkg/store/vector"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Pipeline bundles the orchestrator with the handles the API and worker
// need alongside it.
type Pipeline struct {
	Orchestrator *orchestrator.Orchestrator
	Graph        *store.Lazy[store.GraphStore]
	AI           ai.TutorAIClient
}

// NewPipeline wires loaders, AI clients, stores, and agents into an
// orchestrator. Store connections are deferred until first use, so the
// process starts even when the database is still unreachable.
func NewPipeline(ctx context.Context) *Pipeline {
	aiClient := NewAIClient()
	fileLoader := NewFileLoader(ctx)

	parser := &loader.ParserMux{
		Web: web.NewBlockParser(nil),
		PDF: pdf.NewBlockParser(fileLoader),
	}
	extractor := pdf.NewImageParser(fileLoader)

	vectors := NewVectorIndex()
	graphStore := NewGraphStore()
	executor := NewVisionExecutor(aiClient)

	delay := time.Duration(util.GetEnvNumeric("AI_IMAGE_DELAY_MS", 5000)) * time.Millisecond

	orch := orchestrator.New(orchestrator.Params{
		Parsing:   agent.NewParsingAgent(parser),
		Concepts:  agent.NewConceptExtractionAgent(aiClient, vectors, graphStore),
		Vision:    agent.NewVisionAgent(extractor, executor, delay),
		Relations: agent.NewRelationMappingAgent(aiClient, graphStore),
		Teaching:  agent.NewTeachingAgent(aiClient, vectors),
		Critic:    agent.NewCriticAgent(aiClient),
	})

	return &Pipeline{
		Orchestrator: orch,
		Graph:        graphStore,
		AI:           aiClient,
	}
}

// NewAIClient creates the AI client selected by AI_ADAPTER. The default is
// any OpenAI-compatible endpoint; "ollama" talks to a local Ollama server.
func NewAIClient() ai.TutorAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewTutorOllamaClient(oai.NewTutorOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			ImageModel:     util.GetEnv("AI_IMAGE_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 2)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewTutorOpenAIClient(gai.NewTutorOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			ImageModel:     util.GetEnv("AI_IMAGE_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			ImageURL:     util.GetEnv("AI_IMAGE_URL"),
			ImageKey:     util.GetEnv("AI_IMAGE_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	}
}

// Default endpoints for known vision providers. A VISION_<NAME>_URL env
// overrides them.
var visionProviderURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"mistral":    "https://api.mistral.ai/v1",
}

// NewVisionExecutor builds the ordered vision provider chain from
// VISION_PROVIDERS, a comma-separated list of "provider:model" entries,
// e.g. "openrouter:google/gemma-3-27b-it:free,mistral:pixtral-12b-2409".
// Credentials come from VISION_<PROVIDER>_KEY, endpoints from
// VISION_<PROVIDER>_URL or the known default. With no providers
// configured, the primary AI client serves as the only provider.
func NewVisionExecutor(primary ai.TutorAIClient) *fallback.Executor {
	entries := strings.Split(util.GetEnv("VISION_PROVIDERS"), ",")
	providers := make([]fallback.Provider, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, model, _ := strings.Cut(entry, ":")
		name = strings.ToLower(name)

		prefix := "VISION_" + strings.ToUpper(name) + "_"
		baseURL := util.GetEnv(prefix + "URL")
		if baseURL == "" {
			baseURL = visionProviderURLs[name]
		}
		apiKey := util.GetEnv(prefix + "KEY")

		if name == "ollama" {
			client, err := oai.NewTutorOllamaClient(oai.NewTutorOllamaClientParams{
				ImageModel: model,
				BaseURL:    baseURL,
				ApiKey:     apiKey,
			})
			if err != nil {
				logger.Fatal("Failed to create vision provider", "provider", entry, "err", err)
			}
			providers = append(providers, fallback.Provider{Name: entry, Client: client})
			continue
		}

		extra := map[string]string{}
		if name == "openrouter" {
			// OpenRouter wants attribution headers on every request.
			if referer := util.GetEnv("OPENROUTER_REFERER"); referer != "" {
				extra["HTTP-Referer"] = referer
			}
			if title := util.GetEnv("OPENROUTER_TITLE"); title != "" {
				extra["X-Title"] = title
			}
		}

		client := gai.NewTutorOpenAIClient(gai.NewTutorOpenAIClientParams{
			ImageModel:   model,
			ImageURL:     baseURL,
			ImageKey:     apiKey,
			ExtraHeaders: extra,
		})
		providers = append(providers, fallback.Provider{Name: entry, Client: client})
	}

	if len(providers) == 0 {
		providers = append(providers, fallback.Provider{Name: "primary", Client: primary})
	}

	executor, err := fallback.NewExecutor(providers...)
	if err != nil {
		logger.Fatal("Failed to create vision executor", "err", err)
	}
	return executor
}

// NewFileLoader creates the document source selected by STORAGE_ADAPTER.
func NewFileLoader(ctx context.Context) loader.FileLoader {
	if util.GetEnv("STORAGE_ADAPTER") == "s3" {
		l, err := s3loader.NewS3FileLoader(ctx, s3loader.NewS3FileLoaderParams{
			Bucket:    util.GetEnv("S3_BUCKET"),
			Endpoint:  util.GetEnv("S3_ENDPOINT"),
			Region:    util.GetEnv("S3_REGION"),
			AccessKey: util.GetEnv("S3_ACCESS_KEY"),
			SecretKey: util.GetEnv("S3_SECRET_KEY"),
		})
		if err != nil {
			logger.Fatal("Failed to create S3 file loader", "err", err)
		}
		return l
	}
	return ioloader.NewIOFileLoader()
}

// NewVectorIndex returns a lazily connected pgvector index. The first use
// runs pending migrations and opens the pool; a failed connection is
// retried on the next request.
func NewVectorIndex() *store.Lazy[store.VectorIndex] {
	return store.NewLazy(func(ctx context.Context) (store.VectorIndex, error) {
		databaseURL := util.GetEnv("DATABASE_URL")
		if databaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not configured")
		}

		if err := runMigrations(databaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		cfg, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			return nil, err
		}
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}

		return vector.NewPgVectorIndex(pool), nil
	})
}

// NewGraphStore returns a lazily opened file-backed concept graph at
// GRAPH_PATH.
func NewGraphStore() *store.Lazy[store.GraphStore] {
	return store.NewLazy(func(ctx context.Context) (store.GraphStore, error) {
		path := util.GetEnvString("GRAPH_PATH", "data/graph.json")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		return graph.NewFileGraphStore(path), nil
	})
}

func runMigrations(databaseURL string) error {
	sourceURL := "file://" + util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
