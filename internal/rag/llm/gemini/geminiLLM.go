package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client            *genai.Client
	defaultModel      string
	generationTimeout time.Duration
	listingTimeout    time.Duration
}

var logger = logger_i.NewLogger("llm_gemini")

func NewGeminiClient(ctx context.Context, apiKey string, defaultModel string, generationTimeout time.Duration, listingTimeout time.Duration) (llm.Provider, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, defaultModel, generationTimeout, listingTimeout)
}

func newGeminiClient(ctx context.Context, cc *genai.ClientConfig, defaultModel string, generationTimeout time.Duration, listingTimeout time.Duration) (*llmClient, error) {
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, err
	}
	logger.Info("Gemini client created", "default model", defaultModel)
	return &llmClient{
		client:            c,
		defaultModel:      defaultModel,
		generationTimeout: generationTimeout,
		listingTimeout:    listingTimeout,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	contentConfig := &genai.GenerateContentConfig{
		Temperature:   genai.Ptr(req.Temperature),
		StopSequences: req.Stop,
	}

	ctx, cancel := context.WithTimeout(ctx, c.generationTimeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), contentConfig)
	if err != nil {
		log.Error("Gemini generate failed", "model", model, "error", err)
		return "", fmt.Errorf("%w: %v", commonModels.ErrGenerationService, err)
	}
	return result.Text(), nil
}

func (c *llmClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listingTimeout)
	defer cancel()

	var names []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", commonModels.ErrGenerationService, err)
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}
