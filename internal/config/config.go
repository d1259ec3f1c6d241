package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration. Defaults come from the package constants,
// an optional yaml file overrides them and environment variables win over both.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Index     IndexConfig     `yaml:"index"`
	Answering AnsweringConfig `yaml:"answering"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr      string  `yaml:"listen_addr" env:"LISTEN_ADDR"`
	UploadDir       string  `yaml:"upload_dir" env:"UPLOAD_DIR"`
	MaxUploadBytes  int64   `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	EnableMCP       bool    `yaml:"enable_mcp" env:"ENABLE_MCP"`
}

type OllamaConfig struct {
	BaseURL           string        `yaml:"base_url" env:"OLLAMA_BASE_URL"`
	GenerationTimeout time.Duration `yaml:"generation_timeout" env:"GENERATION_TIMEOUT"`
	ListingTimeout    time.Duration `yaml:"listing_timeout"`
}

// LLMConfig selects the generation backend: "ollama" or "gemini".
type LLMConfig struct {
	Provider     string `yaml:"provider" env:"LLM_PROVIDER"`
	GeminiModel  string `yaml:"gemini_model" env:"GEMINI_MODEL"`
	GoogleAPIKey string `yaml:"-" env:"GOOGLE_API_KEY"`
}

// EmbeddingConfig selects the embedding backend: "ollama" or "gemini".
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider" env:"EMBEDDING_PROVIDER"`
	Model     string        `yaml:"model" env:"EMBEDDING_MODEL"`
	Dimension int32         `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batch_size" env:"EMBEDDING_BATCH_SIZE"`
	Workers   int           `yaml:"workers" env:"EMBEDDING_WORKERS"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IndexConfig selects where vectors live: "bolt" (local file) or "qdrant".
type IndexConfig struct {
	Dir              string `yaml:"dir" env:"INDEX_DIR"`
	Backend          string `yaml:"backend" env:"INDEX_BACKEND"`
	QdrantHost       string `yaml:"qdrant_host" env:"QDRANT_HOST"`
	QdrantPort       int    `yaml:"qdrant_port" env:"QDRANT_PORT"`
	QdrantUseTLS     bool   `yaml:"qdrant_use_tls" env:"QDRANT_USE_TLS"`
	QdrantAPIKey     string `yaml:"-" env:"QDRANT_API_KEY"`
	QdrantCollection string `yaml:"qdrant_collection"`
}

type AnsweringConfig struct {
	DefaultTemperature float32 `yaml:"default_temperature"`
	RetrievalK         int     `yaml:"retrieval_k"`
	AgentToolK         int     `yaml:"agent_tool_k"`
	MaxAgentIterations int     `yaml:"max_agent_iterations" env:"MAX_AGENT_ITERATIONS"`
	// AgentTimeout bounds a whole agent answer, every generation included.
	AgentTimeout time.Duration `yaml:"agent_timeout" env:"AGENT_TIMEOUT"`
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" env:"CACHE_ENABLED"`
	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB   int           `yaml:"redis_db" env:"REDIS_DB"`
	TTL       time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	MaxSize   int           `yaml:"max_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ServerListenAddr,
			UploadDir:       UploadDir,
			MaxUploadBytes:  MaxUploadSize,
			RateLimitPerSec: RATE_LIMIT_PER_SECOND,
			RateLimitBurst:  BURST_RATE_LIMIT_PER_SECOND,
			EnableMCP:       true,
		},
		Ollama: OllamaConfig{
			BaseURL:           OllamaBaseURL,
			GenerationTimeout: GenerationTimeout,
			ListingTimeout:    ModelListingTimeout,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			GeminiModel: GeminiModelName,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     OllamaEmbeddingModel,
			Dimension: EmbeddingOutputDimensionality,
			Timeout:   EmbeddingTimeout,
			BatchSize: EmbeddingBatchSize,
			Workers:   EmbeddingWorkers,
		},
		Chunking: ChunkingConfig{
			Size:    ChunkSize,
			Overlap: ChunkOverlap,
		},
		Index: IndexConfig{
			Dir:              IndexDir,
			Backend:          "bolt",
			QdrantHost:       QdrantHost,
			QdrantPort:       QdrantGrpcPort,
			QdrantUseTLS:     QdrantUseTLS,
			QdrantCollection: QdrantCollection,
		},
		Answering: AnsweringConfig{
			DefaultTemperature: DefaultTemperature,
			RetrievalK:         DirectRetrievalK,
			AgentToolK:         AgentToolK,
			MaxAgentIterations: MaxAgentIterations,
			AgentTimeout:       AgentTimeout,
		},
		Cache: CacheConfig{
			Enabled:   true,
			RedisAddr: "",
			RedisDB:   RedisAnswerCacheDB,
			TTL:       AnswerCacheTTL,
			MaxSize:   AnswerCacheSize,
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "text",
		},
	}
}

// Load reads the yaml file at path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Chunking.Size <= 0 {
		errs = append(errs, errors.New("chunking.size must be positive"))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunking.overlap must be in [0, %d)", c.Chunking.Size))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, errors.New("embedding.batch_size must be positive"))
	}
	if c.Embedding.Workers < 1 {
		errs = append(errs, errors.New("embedding.workers must be >= 1"))
	}
	if c.Answering.RetrievalK < 1 || c.Answering.AgentToolK < 1 {
		errs = append(errs, errors.New("answering k values must be >= 1"))
	}
	if c.Answering.MaxAgentIterations < 1 {
		errs = append(errs, errors.New("answering.max_agent_iterations must be >= 1"))
	}
	if c.Answering.AgentTimeout <= 0 || c.Answering.AgentTimeout >= WriteTimeout {
		errs = append(errs, fmt.Errorf("answering.agent_timeout must be in (0, %v)", WriteTimeout))
	}
	if c.Answering.DefaultTemperature < 0 || c.Answering.DefaultTemperature > 1 {
		errs = append(errs, errors.New("answering.default_temperature must be in [0, 1]"))
	}
	switch c.LLM.Provider {
	case "ollama":
	case "gemini":
		if c.LLM.GoogleAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for the gemini llm provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	switch c.Embedding.Provider {
	case "ollama":
	case "gemini":
		if c.LLM.GoogleAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for the gemini embedding provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	switch c.Index.Backend {
	case "bolt", "qdrant":
	default:
		errs = append(errs, fmt.Errorf("unknown index backend %q", c.Index.Backend))
	}
	return errors.Join(errs...)
}
