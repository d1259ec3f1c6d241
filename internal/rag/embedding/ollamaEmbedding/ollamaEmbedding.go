package ollamaEmbedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/customHttpClient"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("ollama_embedding")

// client talks to Ollama's OpenAI-compatible /v1/embeddings endpoint.
type client struct {
	api   openai.Client
	model string
}

func NewOllamaEmbedder(baseURL string, model string, timeout time.Duration) embedding.Embedder {
	api := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1/"),
		option.WithAPIKey("ollama"),
		option.WithHTTPClient(customHttpClient.NewClient(0)),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
	logger.Info("Ollama embedding client created", "model", model, "baseURL", baseURL)
	return &client{api: api, model: model}
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(c.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		log.Error("Error getting embeddings from Ollama", "error", err)
		return nil, fmt.Errorf("%w: %v", commonModels.ErrEmbeddingService, err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", commonModels.ErrEmbeddingService, d.Index)
		}
		vectors[d.Index] = toFloat32(d.Embedding)
	}

	if err := embedding.CheckVectors(vectors, len(texts)); err != nil {
		log.Error("Malformed embedding response", "error", err)
		return nil, err
	}
	return vectors, nil
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func toFloat32(v64 []float64) []float32 {
	v := make([]float32, len(v64))
	for i := range v64 {
		v[i] = float32(v64[i])
	}
	return v
}
