package qdrantDB

import (
	"context"
	"fmt"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

// remoteIndex answers searches from the collection named in its manifest.
type remoteIndex struct {
	client   *qdrant.Client
	manifest manifest
}

func (r *remoteIndex) Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", commonModels.ErrInvalidArgument, k)
	}
	if len(vector) != r.manifest.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", commonModels.ErrIndexIncompatible, len(vector), r.manifest.Dimension)
	}

	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	result, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.manifest.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, classify(err, "query")
	}

	log.Debug("Found matches", "count", len(result))
	return toScored(result), nil
}

func toScored(points []*qdrant.ScoredPoint) []commonModels.ScoredChunk {
	out := make([]commonModels.ScoredChunk, 0, len(points))
	for _, hit := range points {
		out = append(out, commonModels.ScoredChunk{
			Chunk: commonModels.DocChunk{
				Chunk:      hit.Payload["content"].GetStringValue(),
				PageNum:    int(hit.Payload["page_num"].GetIntegerValue()),
				Position:   int(hit.Payload["position"].GetIntegerValue()),
				PageOffset: int(hit.Payload["page_offset"].GetIntegerValue()),
			},
			Score: float64(hit.Score),
		})
	}
	return out
}

func (r *remoteIndex) Count() int {
	return r.manifest.Count
}

func (r *remoteIndex) Dimension() int {
	return r.manifest.Dimension
}

func (r *remoteIndex) Info() vectorDB.Info {
	return vectorDB.Info{
		Id:         r.manifest.Id,
		DocName:    r.manifest.Document.Name,
		IngestedAt: r.manifest.Document.LastIngestTimestamp,
		Chunks:     r.manifest.Count,
		Dimension:  r.manifest.Dimension,
		Metric:     vectorDB.MetricCosine,
		Backend:    backendName,
	}
}
