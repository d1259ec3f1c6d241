package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/internal/rag/ingest"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

const (
	ModeDirect = "direct"
	ModeAgent  = "agent"
)

type AskRequest struct {
	Question string
	Model    string
	// Temperature nil means the configured default.
	Temperature *float32
	Mode        string
}

type IngestResult struct {
	Chunks   int
	Document string
	IndexId  string
}

type Status struct {
	BackendReachable bool
	IndexLoaded      bool
	Chunks           int
	Document         string
}

// AnswerCache stores final answers by request key. Implementations live in data/store.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, answer string) error
}

// Service is what the HTTP, MCP and CLI surfaces call. Index state lives in the injected
// vectorDB.Store, the service itself holds none.
type Service interface {
	Ask(ctx context.Context, req AskRequest) (string, error)
	Ingest(ctx context.Context, docPath string, docName string, progress ingest.ProgressFunc) (IngestResult, error)
	Search(ctx context.Context, query string, k int) ([]commonModels.RetrievalResult, error)
	Status(ctx context.Context) Status
	Models(ctx context.Context) ([]string, error)
}

type Options struct {
	Answering          config.AnsweringConfig
	Chunking           config.ChunkingConfig
	EmbeddingBatchSize int
	EmbeddingWorkers   int
}

type service struct {
	store       *vectorDB.Store
	llmProvider llm.Provider
	embedder    embedding.Embedder
	retriever   *Retriever
	agent       *Agent
	cache       AnswerCache
	opts        Options
	logger      *logger_i.Logger
}

// NewService wires the pipeline. cache may be nil.
func NewService(store *vectorDB.Store, provider llm.Provider, em embedding.Embedder, cache AnswerCache, opts Options) Service {
	return &service{
		store:       store,
		llmProvider: provider,
		embedder:    em,
		retriever:   NewRetriever(em),
		agent:       NewAgent(provider, opts.Answering.MaxAgentIterations, opts.Answering.AgentTimeout),
		cache:       cache,
		opts:        opts,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ask(ctx context.Context, req AskRequest) (answer string, err error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	question := strings.TrimSpace(req.Question)
	model := strings.TrimSpace(req.Model)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", commonModels.ErrInvalidArgument)
	}
	if model == "" {
		return "", fmt.Errorf("%w: model is required", commonModels.ErrInvalidArgument)
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return "", err
	}
	temperature := ClampTemperature(req.Temperature, s.opts.Answering.DefaultTemperature)

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.CaptureRequestMetrics(mode, status, time.Since(start))
	}()

	// one snapshot per request, an upload during answering does not affect it
	idx, release := s.store.Acquire()
	defer release()
	if mode == ModeDirect && idx == nil {
		return "", commonModels.ErrNoIndexLoaded
	}

	key := cacheKey(idx, mode, model, temperature, question)
	if cached, ok := s.executeCacheLookupStep(ctx, log, key); ok {
		return cached, nil
	}

	var raw string
	switch mode {
	case ModeAgent:
		raw, err = s.agent.Answer(ctx, SelectMode(idx, s.retriever, s.opts.Answering.AgentToolK), question, model, temperature)
	default:
		raw, err = s.answerDirect(ctx, idx, question, model, temperature)
	}
	if err != nil {
		log.Error("answering failed", "mode", mode, "error", err)
		return "", err
	}

	answer = strings.TrimSpace(raw)
	if answer == "" {
		return config.EmptyResponseMarker, nil
	}
	s.executeCacheSaveStep(ctx, log, key, answer)
	return answer, nil
}

func (s *service) answerDirect(ctx context.Context, idx vectorDB.Index, question string, model string, temperature float32) (string, error) {
	results, err := s.retriever.Search(ctx, idx, question, s.opts.Answering.RetrievalK)
	if err != nil {
		return "", err
	}
	return s.executeLLMStep(ctx, llm.GenerateRequest{
		Model:       model,
		Prompt:      BuildGroundingPrompt(question, results),
		Temperature: temperature,
	})
}

func (s *service) Ingest(ctx context.Context, docPath string, docName string, progress ingest.ProgressFunc) (IngestResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()

	built, err := ingest.ProcessDocumentIngestion(ctx, docPath, docName, s.embedder, ingest.Options{
		ChunkSize:    s.opts.Chunking.Size,
		ChunkOverlap: s.opts.Chunking.Overlap,
		BatchSize:    s.opts.EmbeddingBatchSize,
		Workers:      s.opts.EmbeddingWorkers,
		Progress:     progress,
	})
	if err != nil {
		metrics.CaptureIngestion("failed")
		return IngestResult{}, err
	}

	live, err := s.store.Replace(ctx, built)
	if err != nil {
		metrics.CaptureIngestion("failed")
		return IngestResult{}, err
	}
	metrics.CaptureIngestion("ok")
	metrics.SetIndexedChunks(live.Count())

	return IngestResult{Chunks: live.Count(), Document: docName, IndexId: live.Info().Id}, nil
}

func (s *service) Search(ctx context.Context, query string, k int) ([]commonModels.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", commonModels.ErrInvalidArgument)
	}
	idx, release := s.store.Acquire()
	defer release()
	return s.retriever.Search(ctx, idx, query, k)
}

func (s *service) Status(ctx context.Context) Status {
	_, err := s.llmProvider.ListModels(ctx)
	st := Status{
		BackendReachable: err == nil,
		IndexLoaded:      s.store.IsLoaded(),
		Chunks:           s.store.Count(),
	}
	if info, ok := s.store.Info(); ok {
		st.Document = info.DocName
	}
	return st
}

// Models lists generation models, leaving out embedding models.
func (s *service) Models(ctx context.Context) ([]string, error) {
	names, err := s.llmProvider.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "embed") {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// ClampTemperature applies the default for a missing value and bounds it to [0, 1].
func ClampTemperature(t *float32, def float32) float32 {
	if t == nil || math.IsNaN(float64(*t)) {
		return def
	}
	return min(max(*t, 0), 1)
}

func parseMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeAgent:
		return ModeAgent, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", commonModels.ErrInvalidArgument, mode)
	}
}

// cacheKey changes with the index id, so a new upload never serves stale answers.
func cacheKey(idx vectorDB.Index, mode string, model string, temperature float32, question string) string {
	indexId := "none"
	if idx != nil {
		indexId = idx.Info().Id
	}
	h := sha256.New()
	for _, part := range []string{indexId, mode, model, fmt.Sprintf("%.3f", temperature), question} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsClientError reports whether err was caused by the request rather than a backend.
func IsClientError(err error) bool {
	return errors.Is(err, commonModels.ErrNoIndexLoaded) ||
		errors.Is(err, commonModels.ErrInvalidArgument) ||
		errors.Is(err, commonModels.ErrInvalidUpload)
}
