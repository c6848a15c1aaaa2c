package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/handlers"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/services/chunker"
	"github.com/ternarybob/ragchain/internal/services/documents"
	"github.com/ternarybob/ragchain/internal/services/embeddings"
	"github.com/ternarybob/ragchain/internal/services/events"
	"github.com/ternarybob/ragchain/internal/services/inference"
	"github.com/ternarybob/ragchain/internal/services/ingestion"
	"github.com/ternarybob/ragchain/internal/services/llm"
	"github.com/ternarybob/ragchain/internal/services/pdf"
	"github.com/ternarybob/ragchain/internal/services/watcher"
	"github.com/ternarybob/ragchain/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc
	wg        sync.WaitGroup

	// Vector index (Qdrant or embedded Badger)
	VectorIndex interfaces.VectorIndex

	// Model clients
	ReasoningModel    interfaces.ReasoningModel
	CompletionModel   interfaces.CompletionModel
	EmbeddingProvider interfaces.EmbeddingProvider
	Embedder          interfaces.Embedder

	// Document services
	DocumentLoader *documents.Service
	Catalog        *documents.Catalog
	Chunker        *chunker.Service

	// Core services
	EventService     interfaces.EventService
	InferenceEngine  interfaces.InferenceEngine
	IngestionService interfaces.IngestionService
	Watcher          *watcher.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	QueryHandler    *handlers.QueryHandler
	DocumentHandler *handlers.DocumentHandler
}

// New wires every component from cfg. Nothing runs in the background until
// Start is called.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initIndex(); err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("collection", app.VectorIndex.Collection()).
		Str("documents", app.Catalog.Dir()).
		Str("embedding_model", app.Embedder.ModelName()).
		Str("response_model", app.CompletionModel.Model()).
		Msg("Application initialization complete")

	return app, nil
}

// initIndex creates the vector index selected by [vector_db]
func (a *App) initIndex() error {
	index, err := storage.NewVectorIndex(a.Logger, &a.Config.VectorDB)
	if err != nil {
		return err
	}
	a.VectorIndex = index
	return nil
}

// initServices initializes the business services in dependency order
func (a *App) initServices() error {
	var err error

	// 1. Model clients
	a.ReasoningModel, err = llm.NewReasoningModel(&a.Config.Reasoning, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create reasoning model: %w", err)
	}

	a.CompletionModel, err = llm.NewCompletionModel(a.ctx, &a.Config.Response, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create response model: %w", err)
	}

	a.EmbeddingProvider, err = llm.NewEmbeddingProvider(a.ctx, &a.Config.Embedding, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	a.Embedder = embeddings.NewService(a.EmbeddingProvider, a.Config.Embedding.BatchSize, a.Logger)

	// 2. Inference engine
	a.InferenceEngine = inference.NewEngine(
		a.Embedder,
		a.VectorIndex,
		a.ReasoningModel,
		a.CompletionModel,
		inference.Config{
			DefaultReasoningModel: a.Config.Reasoning.DefaultModel,
			ModelFilter:           a.Config.Reasoning.ModelFilter,
		},
		a.Logger,
	)

	// 3. Documents
	a.DocumentLoader = documents.NewService(pdf.NewExtractor(a.Logger), a.Logger)
	a.Catalog = documents.NewCatalog(a.Config.Documents.Dir, a.DocumentLoader)

	a.Chunker, err = chunker.NewService(a.Config.Chunking.Size, a.Config.Chunking.Overlap, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	// 4. Events with a logger subscriber so watch-triggered outcomes are recorded
	a.EventService = events.NewService(a.Logger)
	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return err
	}

	// 5. Ingestion
	a.IngestionService = ingestion.NewPipeline(
		a.Catalog,
		a.DocumentLoader,
		a.Chunker,
		a.Embedder,
		a.VectorIndex,
		a.EventService,
		a.Logger,
	)

	// 6. Watcher
	if a.Config.Watcher.Enabled {
		a.Watcher = watcher.NewService(
			a.Catalog,
			a.IngestionService,
			a.EventService,
			a.Config.Watcher.QueueSize,
			a.Config.Watcher.ResyncSchedule,
			a.Logger,
		)
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.QueryHandler = handlers.NewQueryHandler(a.InferenceEngine, a.Config.Reasoning.DefaultModel, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.Catalog, a.IngestionService, a.Logger)
}

// Start launches the background work: the directory watcher and, when
// ingestion.on_startup is set, one ingestion run.
func (a *App) Start() error {
	if a.Watcher != nil {
		if err := a.Watcher.Start(a.ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	if a.Config.Ingestion.OnStartup {
		a.wg.Add(1)
		common.SafeGo(a.Logger, "startup-ingestion", a.wg.Done, func() {
			ctx := ingestion.WithTrigger(a.ctx, ingestion.TriggerStartup)
			// Outcome is logged by the pipeline and the event subscriber
			a.IngestionService.Run(ctx)
		})
	}

	return nil
}

// Close stops background work and releases the vector index
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
	}

	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop watcher")
		}
	}

	// Startup ingestion observes the cancelled context
	a.wg.Wait()

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.VectorIndex != nil {
		if err := a.VectorIndex.Close(); err != nil {
			return fmt.Errorf("failed to close vector index: %w", err)
		}
		a.Logger.Info().Msg("Vector index closed")
	}

	return nil
}
