package vectorDB

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/google/uuid"
)

// MemoryIndex keeps every vector in memory and answers queries by brute force.
// It is immutable once built.
type MemoryIndex struct {
	id        string
	doc       commonModels.Document
	chunks    []commonModels.DocChunk
	vectors   [][]float32
	norms     []float64
	dimension int
	backend   string
}

// Build creates a fresh index with a new id from parallel chunk and vector slices.
func Build(doc commonModels.Document, chunks []commonModels.DocChunk, vectors [][]float32) (*MemoryIndex, error) {
	idx, err := Restore(uuid.NewString(), doc, chunks, vectors)
	if err != nil {
		return nil, err
	}
	idx.doc.Id = idx.id
	return idx, nil
}

// Restore rebuilds an index that was persisted earlier, keeping its id.
func Restore(id string, doc commonModels.Document, chunks []commonModels.DocChunk, vectors [][]float32) (*MemoryIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: index needs at least one chunk", commonModels.ErrInvalidArgument)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: got %d chunks but %d vectors", commonModels.ErrInvalidArgument, len(chunks), len(vectors))
	}
	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, fmt.Errorf("%w: empty embedding vector", commonModels.ErrInvalidArgument)
	}

	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", commonModels.ErrInvalidArgument, i, len(v), dimension)
		}
		norms[i] = norm(v)
	}

	return &MemoryIndex{
		id:        id,
		doc:       doc,
		chunks:    chunks,
		vectors:   vectors,
		norms:     norms,
		dimension: dimension,
		backend:   "memory",
	}, nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", commonModels.ErrInvalidArgument, k)
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", commonModels.ErrIndexIncompatible, len(vector), m.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryNorm := norm(vector)
	scored := make([]commonModels.ScoredChunk, len(m.chunks))
	for i := range m.chunks {
		scored[i] = commonModels.ScoredChunk{
			Chunk: m.chunks[i],
			Score: cosine(vector, m.vectors[i], queryNorm, m.norms[i]),
		}
	}

	// stable so equal scores keep document order
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemoryIndex) Count() int {
	return len(m.chunks)
}

func (m *MemoryIndex) Dimension() int {
	return m.dimension
}

func (m *MemoryIndex) Info() Info {
	return Info{
		Id:         m.id,
		DocName:    m.doc.Name,
		IngestedAt: m.doc.LastIngestTimestamp,
		Chunks:     len(m.chunks),
		Dimension:  m.dimension,
		Metric:     MetricCosine,
		Backend:    m.backend,
	}
}

func (m *MemoryIndex) Id() string {
	return m.id
}

func (m *MemoryIndex) Document() commonModels.Document {
	return m.doc
}

// Chunks and Vectors expose the raw data to persisters. Callers must not modify them.
func (m *MemoryIndex) Chunks() []commonModels.DocChunk {
	return m.chunks
}

func (m *MemoryIndex) Vectors() [][]float32 {
	return m.vectors
}

// WithBackend labels the index with the storage it was loaded from.
func (m *MemoryIndex) WithBackend(backend string) *MemoryIndex {
	clone := *m
	clone.backend = backend
	return &clone
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
