// Package app assembles the application from its components.
//
// Setup builds everything in dependency order: database pool, genkit with
// the Gemini plugin, stores, the ingestion pipeline and the chat service.
// The resulting App owns the pool and must be closed.
package app

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arlo-ai/arlo/api"
	"github.com/arlo-ai/arlo/db"
	"github.com/arlo-ai/arlo/internal/chat"
	"github.com/arlo-ai/arlo/internal/config"
	"github.com/arlo-ai/arlo/internal/database"
	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/fetch"
	"github.com/arlo-ai/arlo/internal/ingest"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/llm"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/persona"
	"github.com/arlo-ai/arlo/internal/retrieval"
	"github.com/arlo-ai/arlo/internal/rewrite"
	"github.com/arlo-ai/arlo/internal/session"
)

// App is the assembled application.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool

	Documents   knowledge.DocumentStore
	Transcripts session.TranscriptStore
	Personas    persona.Store
	Pipeline    *ingest.Pipeline
	Chat        *chat.Service
}

// Setup initializes the application. It runs migrations, connects the
// database pool and wires every component. On error, everything already
// opened is released.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		if retErr != nil {
			pool.Close()
		}
	}()

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	registerTools(g)

	embedder := embed.New(googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel), logger)

	store := knowledge.NewPostgresStore(pool, logger)
	transcripts := session.NewPostgresStore(pool, logger)

	pipeline := ingest.New(
		store,
		knowledge.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		ingest.NewPageClient(logger),
		logger,
	)

	completer := llm.NewClient(g, llm.ClientConfig{
		ModelName:   cfg.ModelName,
		Temperature: float64(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}, logger)

	svc, err := chat.New(chat.Config{
		Completer:      completer,
		Retriever:      retrieval.New(embedder, store, cfg.TopK, cfg.SimilarityThreshold, logger),
		Rewriter:       rewrite.New(completer, logger),
		Personas:       transcripts,
		Transcripts:    transcripts,
		Documents:      store,
		Projects:       fetch.NewRepoLister(ctx, cfg.GitHubToken, logger),
		Pages:          fetch.NewPageExtractor(logger),
		HistoryWindow:  cfg.HistoryWindow,
		LooseThreshold: cfg.LooseSimilarityThreshold,
		ToolRefs:       chat.ToolNames(),
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wiring chat service: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Genkit:      g,
		Pool:        pool,
		Documents:   store,
		Transcripts: transcripts,
		Personas:    transcripts,
		Pipeline:    pipeline,
		Chat:        svc,
	}, nil
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := api.NewServer(api.Deps{
		Chat:        a.Chat,
		Pipeline:    a.Pipeline,
		Documents:   a.Documents,
		Transcripts: a.Transcripts,
		Personas:    a.Personas,
		Pool:        a.Pool,
		Logger:      a.Logger,
	})
	return srv.Run(ctx, a.Config.ListenAddr)
}

// Close releases the application's resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Info("database pool closed")
	}
}
