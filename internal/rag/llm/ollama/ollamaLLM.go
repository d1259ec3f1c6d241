package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/customHttpClient"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/llm"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/ollama/ollama/api"
)

var logger = logger_i.NewLogger("llm_ollama")

type llmClient struct {
	client            *api.Client
	generationTimeout time.Duration
	listingTimeout    time.Duration
}

func NewOllamaClient(baseURL string, generationTimeout time.Duration, listingTimeout time.Duration) (llm.Provider, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama url %q needs a scheme and host", baseURL)
	}
	return &llmClient{
		client:            api.NewClient(base, customHttpClient.NewClient(0)),
		generationTimeout: generationTimeout,
		listingTimeout:    listingTimeout,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	ctx, cancel := context.WithTimeout(ctx, c.generationTimeout)
	defer cancel()

	options := map[string]any{"temperature": req.Temperature}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}
	stream := false

	var answer strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: options,
	}, func(resp api.GenerateResponse) error {
		answer.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		log.Error("Ollama generate failed", "model", req.Model, "error", err)
		return "", wrapError(err)
	}
	return answer.String(), nil
}

func (c *llmClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listingTimeout)
	defer cancel()

	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, wrapError(err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

func wrapError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: ollama returned %d: %s", commonModels.ErrGenerationService, statusErr.StatusCode, statusErr.ErrorMessage)
	}
	return fmt.Errorf("%w: %v", commonModels.ErrGenerationService, err)
}
