package vectorDB

import (
	"context"
	"time"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
)

// Index is a searchable set of chunk vectors for the single ingested document.
type Index interface {
	// Search returns up to k chunks ordered best first.
	Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error)
	Count() int
	Dimension() int
	Info() Info
}

// Persister writes and reads an index under a directory. Persist fully overwrites
// whatever was stored there before.
type Persister interface {
	Persist(ctx context.Context, dir string, idx *MemoryIndex) (Index, error)
	Load(ctx context.Context, dir string) (Index, error)
}

// Retirer is implemented by persisters that own resources outside dir, which must be
// released once a replacement index is live.
type Retirer interface {
	Retire(ctx context.Context, old Index) error
}

type Info struct {
	Id         string    `json:"index_id"`
	DocName    string    `json:"doc_name"`
	IngestedAt time.Time `json:"ingested_at"`
	Chunks     int       `json:"chunks"`
	Dimension  int       `json:"dimension"`
	Metric     string    `json:"metric"`
	Backend    string    `json:"backend"`
}

const MetricCosine = "cosine"
