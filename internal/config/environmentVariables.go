package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 5
	BURST_RATE_LIMIT_PER_SECOND = 10

	//serverTimeouts
	ReadTimeout = 15 * time.Second
	//ask requests can wait on the generation backend, keep this above GenerationTimeout
	WriteTimeout           = 5 * time.Minute
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":5000"

	MaxUploadSize = 32 << 20 //32mb

	//ollama
	OllamaBaseURL       = "http://127.0.0.1:11434"
	GenerationTimeout   = 120 * time.Second
	EmbeddingTimeout    = 8 * time.Second
	ModelListingTimeout = 8 * time.Second

	//answering
	DefaultTemperature  float32 = 0.2
	DirectRetrievalK            = 5
	AgentToolK                  = 4
	MaxAgentIterations          = 6
	AgentTimeout                = 4 * time.Minute
	EmptyResponseMarker         = "(empty response)"
	DefaultChatModel            = "llama3"

	//chunking
	ChunkSize          = 1000 // characters
	ChunkOverlap       = 200
	EmbeddingBatchSize = 100
	EmbeddingWorkers   = 2

	//storage
	IndexDir  = "vector_index"
	UploadDir = "uploads"

	//embeddings
	OllamaEmbeddingModel = "nomic-embed-text"
	GeminiModelName      = "gemini-2.5-flash-lite"
	GoogleEmbeddingModel = "gemini-embedding-001"

	EmbeddingOutputDimensionality int32 = 768

	//vectorDB
	QdrantHost        = "localhost"
	QdrantGrpcPort    = 6334
	QdrantUseTLS      = false
	QdrantPoolSize    = 1
	QdrantCollection  = "pdfqa"
	QdrantUpsertBatch = 100

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisAnswerCacheDB = 0
	AnswerCacheTTL     = 10 * time.Minute
	AnswerCacheSize    = 256
)
