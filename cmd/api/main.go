// @title           Document RAG API
// @version         1.0
// @description     This API handles asynchronous document ingestion and retrieval-augmented question answering.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   rahulsamantcoc2@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/data/store"
	jobmodel "github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/handlers"
	"github.com/rahulsamant37/rag-foundation/internal/job"
	"github.com/rahulsamant37/rag-foundation/internal/rag"
	"github.com/rahulsamant37/rag-foundation/internal/rag/backoff"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	geminiembed "github.com/rahulsamant37/rag-foundation/internal/rag/embedding/gemini"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding/openaiembed"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm/gemini"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm/openaigen"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex/qdrantindex"
	"github.com/rahulsamant37/rag-foundation/internal/server"
	"github.com/rahulsamant37/rag-foundation/internal/worker"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	_ = godotenv.Load()

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	documentStore, sessionStore := initStores(serviceContext, logger)

	//init job service
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		DocumentStore:     documentStore,
		SessionStore:      sessionStore,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	index := initIndex(serviceContext, logger)
	embedder := initEmbedder(serviceContext, logger)
	llmProvider := initLLMProvider(serviceContext, logger)

	if index == nil || embedder == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "Index", index != nil, "Embedder", embedder != nil, "LLMProvider", llmProvider != nil)
		return
	}

	synth := llm.NewSynthesizer(llmProvider, config.SystemPrompt, retryPolicy())
	ragService := rag.NewService(index, embedder, synth, documentStore, sessionStore)

	handlers.InitHandlers(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
		PersistIndex:     ragService.PersistIndex,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func initStores(ctx context.Context, logger *logger_i.Logger) (jobmodel.DocumentStore, jobmodel.SessionStore) {
	redisDocuments := store.GetRedisDocumentStore(ctx)
	redisSessions := store.GetRedisSessionStore(ctx)

	if redisDocuments == nil || redisSessions == nil {
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		return store.InitInMemoryDocumentStore(), store.InitInMemorySessionStore()
	}
	return redisDocuments, redisSessions
}

// initIndex picks the vector backend. The default flat index restores its
// last snapshot; a corrupt snapshot degrades to an empty index with a
// warning rather than refusing to start.
func initIndex(ctx context.Context, logger *logger_i.Logger) vectorindex.Index {
	if config.Env("INDEX_BACKEND", "flat") == "qdrant" {
		return qdrantindex.GetQdrantIndex(ctx)
	}

	flat := vectorindex.NewFlat(int(config.EmbeddingDimension), config.Env("INDEX_DIR", config.IndexDir))
	restored, err := flat.Load(ctx)
	if err != nil {
		logger.Warn("Could not restore vector index, starting empty", "error", err)
	} else if restored > 0 {
		logger.Info("Restored vector index", "entries", restored)
	}
	return flat
}

func initEmbedder(ctx context.Context, logger *logger_i.Logger) embedding.Embedder {
	var remote embedding.Remote
	if config.Env("EMBEDDING_PROVIDER", "gemini") == "openai" {
		remote = openaiembed.GetOpenAIRemote(config.OpenAIEmbeddingModel, config.Env("OPENAI_API_KEY", ""))
	} else {
		remote = geminiembed.GetGeminiRemote(ctx, config.GeminiEmbeddingModel, config.Env("GEMINI_API_KEY", ""))
	}
	if remote == nil {
		logger.Error("Embedding provider failed to initialize")
		return nil
	}
	return embedding.NewGateway(remote, int(config.EmbeddingDimension), config.EmbeddingBatchSize, retryPolicy())
}

func initLLMProvider(ctx context.Context, logger *logger_i.Logger) llm.Provider {
	if config.Env("LLM_PROVIDER", "gemini") == "openai" {
		return openaigen.GetOpenAIClient(config.OpenAIModelName, config.Env("OPENAI_API_KEY", ""))
	}
	return gemini.GetGeminiClient(ctx, config.GeminiModelName, config.Env("GEMINI_API_KEY", ""))
}

func retryPolicy() backoff.Policy {
	return backoff.Policy{
		MaxAttempts: config.RetryMaxAttempts,
		BaseDelay:   config.RetryBaseDelay,
		MaxDelay:    config.RetryMaxDelay,
		MaxElapsed:  config.RetryMaxElapsed,
		Jitter:      config.RetryJitter,
	}
}
