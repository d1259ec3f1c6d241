package llm

import "context"

type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	// Stop ends generation at the first occurrence of any sequence.
	Stop []string
}

// Provider is the generation backend. Failures are wrapped in commonModels.ErrGenerationService.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
