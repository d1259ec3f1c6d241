package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/data/store"
	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/internal/rag"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/pdfqa/internal/rag/embedding/ollamaEmbedding"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/internal/rag/llm/gemini"
	"github.com/akolanti/pdfqa/internal/rag/llm/ollama"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB/boltDB"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

var logger = logger_i.NewLogger("main")

// app holds the wired service and whatever must be closed on exit.
type app struct {
	cfg     *config.Config
	store   *vectorDB.Store
	service rag.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	persister, err := a.newPersister(cfg)
	if err != nil {
		return nil, err
	}

	a.store = vectorDB.NewStore(cfg.Index.Dir, persister)
	a.store.Init(ctx)
	metrics.SetIndexedChunks(a.store.Count())

	a.service = rag.NewService(a.store, provider, embedder, newCache(ctx, cfg.Cache), rag.Options{
		Answering:          cfg.Answering,
		Chunking:           cfg.Chunking,
		EmbeddingBatchSize: cfg.Embedding.BatchSize,
		EmbeddingWorkers:   cfg.Embedding.Workers,
	})
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return gemini.NewGeminiClient(ctx, cfg.LLM.GoogleAPIKey, cfg.LLM.GeminiModel, cfg.Ollama.GenerationTimeout, cfg.Ollama.ListingTimeout)
	default:
		return ollama.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.GenerationTimeout, cfg.Ollama.ListingTimeout)
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "gemini":
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg.LLM.GoogleAPIKey, embeddingModel(cfg), cfg.Embedding.Dimension, cfg.Embedding.Timeout)
	default:
		return ollamaEmbedding.NewOllamaEmbedder(cfg.Ollama.BaseURL, embeddingModel(cfg), cfg.Embedding.Timeout), nil
	}
}

// embeddingModel swaps the ollama default for the gemini one when only the provider was changed.
func embeddingModel(cfg *config.Config) string {
	if cfg.Embedding.Provider == "gemini" && cfg.Embedding.Model == config.OllamaEmbeddingModel {
		return config.GoogleEmbeddingModel
	}
	return cfg.Embedding.Model
}

func (a *app) newPersister(cfg *config.Config) (vectorDB.Persister, error) {
	model := cfg.Embedding.Provider + "/" + embeddingModel(cfg)
	switch cfg.Index.Backend {
	case "qdrant":
		client, err := qdrantDB.NewClient(cfg.Index)
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return qdrantDB.NewPersister(client, cfg.Index.QdrantCollection, model), nil
	default:
		return boltDB.NewPersister(model), nil
	}
}

// newCache prefers redis and falls back to memory when redis is not configured or offline.
func newCache(ctx context.Context, cfg config.CacheConfig) rag.AnswerCache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RedisAddr != "" {
		c, err := store.GetRedisAnswerCache(ctx, cfg)
		if err == nil {
			return c
		}
		logger.Warn("Redis answer cache is offline, using in-memory cache", "error", err)
	}
	return store.InitAnswerCache(cfg.TTL, cfg.MaxSize)
}
