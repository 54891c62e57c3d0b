package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/config"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	db "github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/database"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/embedding"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/indexstore"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/ingest"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/llm"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/objectclient"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/rag"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/retrieval"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/session"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/transcript"
)

type App struct {
	DBClient *db.Client
	Ingestor *ingest.Service
	Sessions *session.Manager
	Server   *Server
}

// NewApp wires the full pipeline: database, embedder with its cache, the
// transcript fetch chain, ingestion, retrieval and session management.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	sqlDB, err := db.Connect(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	dbClient := db.NewClient(sqlDB)
	store := indexstore.NewPostgres(sqlDB)

	geminiEmbedder, err := llm.NewGeminiEmbedder(initCtx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	embedder, err := embedding.NewCached(geminiEmbedder, cfg.EmbedCacheCap, cfg.EmbedBatchSize)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(initCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	var strategies []transcript.Strategy
	if cfg.TranscriptAPIURL != "" {
		strategies = append(strategies, transcript.NewCaptionAPI(cfg.TranscriptAPIURL))
	}
	if cfg.WatchPageURL != "" {
		strategies = append(strategies, transcript.NewWatchPage(cfg.WatchPageURL))
	}
	fetcher := transcript.NewFetcher(strategies...)

	// The transcript archive is optional; without credentials raw transcripts
	// simply live only in Postgres.
	var archive core.ObjectClient
	if cfg.ArchiveBucket != "" {
		s3Client, err := objectclient.NewS3Client(initCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init object client: %w", err)
		}
		archive = s3Client
		log.Println("Object client initialized and ready.")
	}

	ingestor := ingest.NewService(dbClient, store, embedder, fetcher, archive, ingest.Config{
		MaxChunkChars: cfg.MaxChunkChars,
		OverlapChars:  cfg.OverlapChars,
		ArchiveBucket: cfg.ArchiveBucket,
	})
	ingestor.StartWorkers(ctx, cfg.ReindexWorkers)

	// Answerer owns the query deadline, so the merger runs without one of its
	// own; retrieval and generation share a single budget.
	merger := retrieval.NewMerger(embedder, store, cfg.RetrieveWorkers, 0)
	answerer := rag.NewAnswerer(merger, llmProvider, dbClient, cfg.ContextTokens, cfg.QueryTimeout)
	sessions := session.NewManager(dbClient, answerer, cfg.DefaultTopK)

	server := NewServer(cfg, dbClient, ingestor, sessions)

	return &App{DBClient: dbClient, Ingestor: ingestor, Sessions: sessions, Server: server}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
