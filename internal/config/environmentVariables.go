package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	NoAuthBypass = true //dev only; set false and provide AUTH_TOKEN for prod
	AuthToken    = ""

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//document processing
	MaxUploadBytes int64 = 32 << 20
	ChunkSize            = 1000
	ChunkOverlap         = 200

	//embeddings
	EmbeddingDimension int32 = 768
	EmbeddingBatchSize       = 50
	//providers: "gemini" (default) or "openai", see EMBEDDING_PROVIDER / LLM_PROVIDER
	GeminiEmbeddingModel = "gemini-embedding-001"
	GeminiModelName      = "gemini-2.5-flash"
	OpenAIEmbeddingModel = "text-embedding-3-small"
	OpenAIModelName      = "gpt-4o-mini"

	ModelTemperature float32 = 0.7
	SystemPrompt             = "You are a helpful assistant that answers questions based on the provided context. " +
		"If the context doesn't contain enough information to answer the question, say so clearly. " +
		"Always base your answer on the provided sources and cite them by their [S#] markers."

	//retrieval
	DefaultTopK         = 5
	SimilarityThreshold float32 = 0.30 //cosine, minimum score kept
	DefaultContextBudget        = 4000 //characters of assembled context
	QueryHistoryTurns           = 3    //0 disables history-augmented retrieval

	//vector index persistence
	IndexDir           = "./data/vector_store"
	IndexFormatVersion = 1

	//sessions
	MaxSessionMessages = 20
	SessionIdleTTL     = 24 * time.Hour

	//retry/backoff for remote capabilities
	RetryMaxAttempts = 4
	RetryBaseDelay   = 500 * time.Millisecond
	RetryMaxDelay    = 8 * time.Second
	RetryMaxElapsed  = 30 * time.Second
	RetryJitter      = 0.2

	//remote call timeouts
	EmbeddingCallTimeout  = 30 * time.Second
	GenerationCallTimeout = 60 * time.Second
	QueryTimeout          = 90 * time.Second
	IngestTimeout         = 10 * time.Minute

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 120 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB (qdrant backend, INDEX_BACKEND=qdrant)
	QdrantCollection       = "rag-foundation"
	QdrantHost             = ""
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantKeepAliveTimeout = 30 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisDocumentStore = 0
	RedisSessionStore  = 1

	//redis timeouts
	RedisDocumentStoreTTL = 7 * 24 * time.Hour
)

// Env returns the environment value for key or fallback when unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
