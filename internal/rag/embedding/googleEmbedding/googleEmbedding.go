package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
	retryDelay   = 5 * time.Second
)

var logger = logger_i.NewLogger("google_embedding")

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	timeout   time.Duration
}

func NewGoogleEmbedder(ctx context.Context, apiKey string, modelName string, dimension int32, timeout time.Duration) (embedding.Embedder, error) {
	return newEmbedder(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, modelName, dimension, timeout)
}

func newEmbedder(ctx context.Context, cc *genai.ClientConfig, modelName string, dimension int32, timeout time.Duration) (*client, error) {
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, err
	}
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName, dimension: dimension, timeout: timeout}, nil
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, taskDocument)
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	res, err := c.doCall(ctx, texts, task)
	if err != nil && isRateLimited(err) {
		log.Debug("Rate limited, retrying", "in", retryDelay)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", commonModels.ErrEmbeddingService, ctx.Err())
		}
		res, err = c.doCall(ctx, texts, task)
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, fmt.Errorf("%w: %v", commonModels.ErrEmbeddingService, err)
	}

	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		if r == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, r.Values)
	}
	if err := embedding.CheckVectors(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, texts []string, task string) (*genai.EmbedContentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.genAi.Models.EmbedContent(callCtx, c.model, getContent(texts), &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             task,
	})
}

func getContent(texts []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}
	return contents
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == 429
	}
	return false
}
