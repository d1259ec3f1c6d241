package rag

import (
	"context"
	"time"

	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

func (s *service) executeCacheLookupStep(ctx context.Context, log *logger_i.Logger, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	answer, found, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("answer cache lookup failed", "error", err)
		return "", false
	}
	metrics.CaptureCacheLookup(found)
	if found {
		log.Debug("answer cache hit")
	}
	return answer, found
}

func (s *service) executeCacheSaveStep(ctx context.Context, log *logger_i.Logger, key string, answer string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, answer); err != nil {
		log.Warn("Failed to save to cache", "error", err)
	}
}

func (s *service) executeLLMStep(ctx context.Context, req llm.GenerateRequest) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, req)
}
