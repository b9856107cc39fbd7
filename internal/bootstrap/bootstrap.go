package bootstrap

import (
	"context"
	"fmt"

	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
	"github.com/dkrasniqi/campus-assistant/internal/core/usecase"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/chunking"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/corpus"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/llm/ollama"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/queue/nats"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/repository/postgres"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/resilience"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Store     *postgres.ChunkRepository
	Retriever *usecase.Retriever
	AskUC     ports.QuestionAnswerer
	RebuildUC ports.CorpusRebuilder
	ReloadUC  ports.CorpusReloader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewChunkRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultPolicy()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(
		cfg.OllamaURL,
		cfg.OllamaGenModel,
		cfg.OllamaEmbedModel,
		resilience.NewExecutor(resilience.EmbeddingPolicy()),
	)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(
		cfg.QdrantURL,
		cfg.QdrantCollection,
		resilience.NewExecutor(resilience.SearchPolicy()),
	)

	var intentRules []usecase.IntentRule
	if cfg.IntentRulesPath != "" {
		intentRules, err = usecase.LoadIntentRules(cfg.IntentRulesPath)
		if err != nil {
			return nil, fmt.Errorf("load intent rules: %w", err)
		}
	}
	enhancer := usecase.NewQueryEnhancer(intentRules)

	retriever := usecase.NewRetriever(embedder, vectorDB, enhancer, usecase.RetrievalParams{
		TopK:               cfg.RetrievalTopK,
		SemanticWeight:     cfg.SemanticWeight,
		MaxContextChars:    cfg.MaxContextChars,
		MinDenseSimilarity: cfg.MinDenseSimilarity,
		LexicalScoreScale:  cfg.LexicalScoreScale,
		ExcerptMaxChars:    cfg.ExcerptMaxChars,
		OverfetchFactor:    cfg.DenseOverfetch,
	})

	loader := corpus.NewLoader(cfg.CorpusDir, cfg.FAQDir)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	askUC := usecase.NewAskUseCase(retriever, generator, cfg.RetrievalTopK, cfg.SemanticWeight, cfg.MaxContextChars)
	rebuildUC := usecase.NewRebuildCorpusUseCase(loader, chunker, store, embedder, vectorDB, queue)
	reloadUC := usecase.NewReloadCorpusUseCase(store, retriever)

	return &App{
		Config: cfg,

		Queue:     queue,
		Store:     store,
		Retriever: retriever,
		AskUC:     askUC,
		RebuildUC: rebuildUC,
		ReloadUC:  reloadUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
