package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/pdfqa/internal/rag/llm"
)

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbed      func(ctx context.Context, texts []string) ([][]float32, error)
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.count()
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.count()
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{1, 0}, nil
}

func (m *MockEmbedder) count() {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
}

// MockLLM implements llm.Provider and records every generate request.
type MockLLM struct {
	OnGenerate   func(ctx context.Context, req llm.GenerateRequest) (string, error)
	OnListModels func(ctx context.Context) ([]string, error)

	mu       sync.Mutex
	Requests []llm.GenerateRequest
}

func (m *MockLLM) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, req)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) ListModels(ctx context.Context) ([]string, error) {
	if m.OnListModels != nil {
		return m.OnListModels(ctx)
	}
	return []string{"llama3:latest"}, nil
}

// MockCache implements rag.AnswerCache
type MockCache struct {
	Entries map[string]string
	OnGet   func(ctx context.Context, key string) (string, bool, error)
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	if m.OnGet != nil {
		return m.OnGet(ctx, key)
	}
	v, ok := m.Entries[key]
	return v, ok, nil
}

func (m *MockCache) Set(ctx context.Context, key string, answer string) error {
	if m.Entries == nil {
		m.Entries = map[string]string{}
	}
	m.Entries[key] = answer
	return nil
}
