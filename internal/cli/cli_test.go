package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/ingest/pdftest"
)

type generateCall struct {
	Prompt  string `json:"prompt"`
	Options struct {
		Temperature float32 `json:"temperature"`
	} `json:"options"`
}

// fakeOllama serves the embeddings, generate and tags endpoints.
type fakeOllama struct {
	mu    sync.Mutex
	calls []generateCall
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input json.RawMessage `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var texts []string
		if err := json.Unmarshal(req.Input, &texts); err != nil {
			var single string
			_ = json.Unmarshal(req.Input, &single)
			texts = []string{single}
		}

		data := make([]map[string]any, 0, len(texts))
		for i, text := range texts {
			vec := []float64{1, 0}
			if strings.Contains(strings.ToLower(text), "refund") {
				vec = []float64{0, 1}
			}
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "nomic-embed-text",
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var call generateCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"response": " 30 days [p. 1]\n", "done": true})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"}]}`))
	})
	return mux
}

func setupEnv(t *testing.T) *fakeOllama {
	t.Helper()
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	t.Setenv("OLLAMA_BASE_URL", srv.URL)
	t.Setenv("INDEX_DIR", filepath.Join(t.TempDir(), "vector_index"))
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	return fake
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "missing")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--config", missing+".yaml", "--env-file", missing+".env"))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestThenAsk(t *testing.T) {
	fake := setupEnv(t)
	pdf := pdftest.WriteFile(t, t.TempDir(), "policy.pdf", "Refunds must be requested within 30 days.")

	out, err := run(t, "ingest", pdf)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !strings.Contains(out, "Indexed 1 chunks from policy.pdf") {
		t.Errorf("ingest output got %q", out)
	}

	out, err = run(t, "ask", "-t", "1.7", "What", "is", "the", "refund", "window?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if strings.TrimSpace(out) != "30 days [p. 1]" {
		t.Errorf("answer got %q", out)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected one generate call, got %d", len(fake.calls))
	}
	call := fake.calls[0]
	if call.Options.Temperature != 1.0 {
		t.Errorf("temperature got %v, want 1.0", call.Options.Temperature)
	}
	if !strings.Contains(call.Prompt, "[p. 1] Refunds must be requested") || !strings.HasSuffix(call.Prompt, "Question: What is the refund window?\nAnswer:") {
		t.Errorf("unexpected prompt:\n%s", call.Prompt)
	}
}

func TestAsk_WithoutIndex(t *testing.T) {
	fake := setupEnv(t)

	_, err := run(t, "ask", "What is the refund window?")
	if !errors.Is(err, commonModels.ErrNoIndexLoaded) {
		t.Fatalf("expected ErrNoIndexLoaded, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("generation should not be called, got %d calls", len(fake.calls))
	}
}

func TestIngest_RejectsNonPDF(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "ingest", filepath.Join(t.TempDir(), "notes.txt"))
	if !errors.Is(err, commonModels.ErrInvalidUpload) {
		t.Errorf("expected ErrInvalidUpload, got %v", err)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("INDEX_BACKEND", "faiss")
	if _, err := run(t, "ask", "q"); err == nil {
		t.Error("expected a config validation error")
	}
}

func TestEmbeddingModel(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{"ollama", config.OllamaEmbeddingModel, config.OllamaEmbeddingModel},
		{"gemini", config.OllamaEmbeddingModel, config.GoogleEmbeddingModel},
		{"gemini", "text-embedding-004", "text-embedding-004"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Embedding.Provider = tt.provider
		cfg.Embedding.Model = tt.model
		if got := embeddingModel(cfg); got != tt.want {
			t.Errorf("%s/%s: got %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}
