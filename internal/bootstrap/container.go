package bootstrap

import (
	"context"
	"log"

	"ai-conversations-be/internal/boundary"
	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/controller"
	"ai-conversations-be/internal/notify"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/internal/service"
	"ai-conversations-be/internal/worker"
	"ai-conversations-be/pkg/blobstore"
	"ai-conversations-be/pkg/engines"
	"ai-conversations-be/pkg/queue"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container wires the REST process: intake, query surfaces and the in-process
// boundary manager. Chain jobs are dispatched to NATS and executed by the
// worker process, see NewWorkerContainer.
type Container struct {
	Log logger.ILogger

	IngestController       controller.IIngestController
	ConversationController controller.IConversationController
	QueueController        controller.IQueueController

	BoundaryManager *boundary.Manager
	Publisher       *queue.Publisher
	Redis           *redis.Client
}

func newRedisClient(cfg *config.Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	blobs, err := blobstore.NewLocalStore(cfg.App.UploadDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to prepare upload dir: %v", err)
	}

	publisher, err := queue.NewPublisher(cfg.App.NatsURL, cfg.Queue.StreamName)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS: %v", err)
	}

	rdb := newRedisClient(cfg)
	registry := worker.NewRedisRegistry(rdb, cfg.Queue.RegistrationTTL)

	transcriber := engines.NewTranscriptionClient(cfg.Engines.TranscriptionURL, cfg.Engines.RequestTimeout)
	embedder := engines.NewOllamaEmbedding(cfg.Engines.EmbeddingURL, cfg.Engines.EmbeddingModel, cfg.Engines.RequestTimeout)

	versionService := service.NewVersionService(uowFactory)
	orchestratorService := service.NewOrchestratorService(uowFactory, publisher, sysLogger)
	conversationService := service.NewConversationService(uowFactory, versionService, embedder, cfg.Queue.ListMaxLimit)
	queueService := service.NewQueueService(uowFactory, registry, cfg.Queue)

	// the per-frame stream log is chatty, keep it out of the main log
	streamLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	boundaryManager := boundary.NewManager(cfg.Boundary, boundary.Deps{
		Transcriber: transcriber,
		UowFactory:  uowFactory,
		Blobs:       blobs,
		Chain:       orchestratorService,
	}, streamLogger)

	ingestService := service.NewIngestService(uowFactory, orchestratorService, blobs, boundaryManager, sysLogger)

	return &Container{
		Log:                    sysLogger,
		IngestController:       controller.NewIngestController(ingestService, sysLogger),
		ConversationController: controller.NewConversationController(conversationService, versionService, orchestratorService),
		QueueController:        controller.NewQueueController(queueService),
		BoundaryManager:        boundaryManager,
		Publisher:              publisher,
		Redis:                  rdb,
	}
}

// Shutdown flushes any open conversations and releases connections.
func (c *Container) Shutdown() {
	c.BoundaryManager.Shutdown()
	c.Publisher.Close()
	_ = c.Redis.Close()
}

// WorkerContainer wires the worker process: durable consumers pulling chain
// jobs and executing them against the same storage.
type WorkerContainer struct {
	Log        logger.ILogger
	Pool       *worker.Pool
	Subscriber *queue.Subscriber
	Bus        *notify.Bus
	Redis      *redis.Client
}

func NewWorkerContainer(db *gorm.DB, cfg *config.Config) *WorkerContainer {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	blobs, err := blobstore.NewLocalStore(cfg.App.UploadDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to prepare upload dir: %v", err)
	}

	subscriber, err := queue.NewSubscriber(cfg.App.NatsURL, cfg.Queue.StreamName, cfg.Queue.MaxDeliver, cfg.Queue.AckWait)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS: %v", err)
	}

	rdb := newRedisClient(cfg)
	registry := worker.NewRedisRegistry(rdb, cfg.Queue.RegistrationTTL)
	bus := notify.NewBus()

	executor := worker.NewExecutor(worker.ExecutorDeps{
		UowFactory:  uowFactory,
		Versions:    service.NewVersionService(uowFactory),
		Blobs:       blobs,
		Transcriber: engines.NewTranscriptionClient(cfg.Engines.TranscriptionURL, cfg.Engines.RequestTimeout),
		Diarizer:    engines.NewDiarizationClient(cfg.Engines.DiarizationURL, cfg.Engines.RequestTimeout),
		LLM:         engines.NewOllamaLLM(cfg.Engines.LLMBaseURL, cfg.Engines.LLMModel, cfg.Engines.RequestTimeout),
		Embedder:    engines.NewOllamaEmbedding(cfg.Engines.EmbeddingURL, cfg.Engines.EmbeddingModel, cfg.Engines.RequestTimeout),
		Bus:         bus,
	}, cfg.Crop, cfg.Queue, sysLogger)

	return &WorkerContainer{
		Log:        sysLogger,
		Pool:       worker.NewPool(cfg.Queue, subscriber, registry, executor, sysLogger),
		Subscriber: subscriber,
		Bus:        bus,
		Redis:      rdb,
	}
}

func (c *WorkerContainer) Shutdown(ctx context.Context) {
	c.Pool.Stop(ctx)
	_ = c.Bus.Close()
	_ = c.Redis.Close()
}
