package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Chunking.Size != ChunkSize || cfg.Chunking.Overlap != ChunkOverlap {
		t.Errorf("chunking defaults got %+v", cfg.Chunking)
	}
	if cfg.Ollama.GenerationTimeout != GenerationTimeout {
		t.Errorf("generation timeout got %v, want %v", cfg.Ollama.GenerationTimeout, GenerationTimeout)
	}
	if cfg.Index.Backend != "bolt" {
		t.Errorf("index backend got %q, want bolt", cfg.Index.Backend)
	}
}

func TestLoad_YamlOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfqa.yaml")
	content := `
server:
  listen_addr: ":9090"
chunking:
  size: 500
  overlap: 50
ollama:
  generation_timeout: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen addr got %q", cfg.Server.ListenAddr)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("chunking got %+v", cfg.Chunking)
	}
	if cfg.Ollama.GenerationTimeout != 30*time.Second {
		t.Errorf("generation timeout got %v", cfg.Ollama.GenerationTimeout)
	}
	// untouched sections keep their defaults
	if cfg.Answering.RetrievalK != DirectRetrievalK {
		t.Errorf("retrieval k got %d", cfg.Answering.RetrievalK)
	}
}

func TestLoad_EnvWins(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("INDEX_DIR", "/data/index")
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ollama.BaseURL != "http://ollama:11434" {
		t.Errorf("base url got %q", cfg.Ollama.BaseURL)
	}
	if cfg.Index.Dir != "/data/index" {
		t.Errorf("index dir got %q", cfg.Index.Dir)
	}
	if cfg.Index.QdrantPort != 7000 {
		t.Errorf("qdrant port got %d", cfg.Index.QdrantPort)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by env")
	}
}

func TestLoad_EnvTypedValues(t *testing.T) {
	t.Setenv("AGENT_TIMEOUT", "90s")
	t.Setenv("EMBEDDING_WORKERS", "4")
	t.Setenv("QDRANT_USE_TLS", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Answering.AgentTimeout != 90*time.Second {
		t.Errorf("agent timeout got %v", cfg.Answering.AgentTimeout)
	}
	if cfg.Embedding.Workers != 4 {
		t.Errorf("embedding workers got %d", cfg.Embedding.Workers)
	}
	if !cfg.Index.QdrantUseTLS {
		t.Error("qdrant tls should be enabled by env")
	}
}

func TestLoad_MalformedEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CACHE_ENABLED", "sometimes"},
		{"QDRANT_PORT", "port"},
		{"AGENT_TIMEOUT", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); err == nil {
				t.Errorf("expected an error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, true},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, true},
		{"zero k", func(c *Config) { c.Answering.RetrievalK = 0 }, true},
		{"no embedding workers", func(c *Config) { c.Embedding.Workers = 0 }, true},
		{"agent timeout past write timeout", func(c *Config) { c.Answering.AgentTimeout = WriteTimeout }, true},
		{"no agent timeout", func(c *Config) { c.Answering.AgentTimeout = 0 }, true},
		{"temperature out of range", func(c *Config) { c.Answering.DefaultTemperature = 1.5 }, true},
		{"gemini without key", func(c *Config) { c.LLM.Provider = "gemini" }, true},
		{"gemini with key", func(c *Config) { c.LLM.Provider = "gemini"; c.LLM.GoogleAPIKey = "k" }, false},
		{"unknown backend", func(c *Config) { c.Index.Backend = "faiss" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
