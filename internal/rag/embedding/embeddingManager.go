package embedding

import "context"

// Embedder returns one vector per input text, in input order. Implementations wrap
// failures in commonModels.ErrEmbeddingService.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
