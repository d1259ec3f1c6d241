package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/metrics"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
)

// Retriever embeds a query and looks it up in an index snapshot.
type Retriever struct {
	embedder embedding.Embedder
}

func NewRetriever(embedder embedding.Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

func (r *Retriever) Search(ctx context.Context, idx vectorDB.Index, query string, k int) ([]commonModels.RetrievalResult, error) {
	if idx == nil {
		return nil, commonModels.ErrNoIndexLoaded
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", commonModels.ErrInvalidArgument, k)
	}

	start := time.Now()
	vector, err := r.embedder.EmbedQuery(ctx, query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(vector) != idx.Dimension() {
		return nil, fmt.Errorf("%w: query embedding has dimension %d, index has %d", commonModels.ErrIndexIncompatible, len(vector), idx.Dimension())
	}

	start = time.Now()
	hits, err := idx.Search(ctx, vector, k)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if err != nil {
		return nil, err
	}

	results := make([]commonModels.RetrievalResult, 0, len(hits))
	for i, h := range hits {
		results = append(results, commonModels.RetrievalResult{
			Text:      h.Chunk.Chunk,
			PageLabel: h.Chunk.PageLabel(),
			Rank:      i + 1,
			Score:     h.Score,
		})
	}
	return results, nil
}

// FormatResults renders results as citation strings, best first.
func FormatResults(results []commonModels.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Citation())
	}
	return out
}
