package qdrantDB

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	manifestFile = "manifest.json"
	backendName  = "qdrant"
)

var logger = logger_i.NewLogger("Qdrant")

// manifest is the local pointer to the collection that holds the live index.
type manifest struct {
	Collection     string                `json:"collection"`
	Id             string                `json:"id"`
	Document       commonModels.Document `json:"document"`
	Dimension      int                   `json:"dimension"`
	Count          int                   `json:"count"`
	EmbeddingModel string                `json:"embedding_model"`
}

// Persister stores each ingested index in its own collection. The index directory only
// holds a manifest naming that collection, written with the same replace discipline as
// local indexes.
type Persister struct {
	client         *qdrant.Client
	collection     string
	embeddingModel string
}

func NewClient(cfg config.IndexConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.QdrantHost,
		Port:     cfg.QdrantPort,
		APIKey:   cfg.QdrantAPIKey,
		UseTLS:   cfg.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, err
	}
	return client, nil
}

func NewPersister(client *qdrant.Client, collectionPrefix string, embeddingModel string) *Persister {
	return &Persister{client: client, collection: collectionPrefix, embeddingModel: embeddingModel}
}

func (p *Persister) Persist(ctx context.Context, dir string, idx *vectorDB.MemoryIndex) (vectorDB.Index, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	m := manifest{
		Collection:     p.collection + "-" + idx.Id(),
		Id:             idx.Id(),
		Document:       idx.Document(),
		Dimension:      idx.Dimension(),
		Count:          idx.Count(),
		EmbeddingModel: p.embeddingModel,
	}

	if err := p.createCollection(ctx, m.Collection, m.Dimension); err != nil {
		return nil, classify(err, "create collection")
	}
	if err := p.upsert(ctx, m.Collection, idx); err != nil {
		p.dropCollection(ctx, m.Collection)
		return nil, err
	}

	err := vectorDB.ReplaceDir(dir, func(tmp string) error {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(tmp, manifestFile), data, 0o644)
	})
	if err != nil {
		p.dropCollection(ctx, m.Collection)
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	log.Debug("index stored in qdrant", "collection", m.Collection, "points", m.Count)
	return &remoteIndex{client: p.client, manifest: m}, nil
}

func (p *Persister) upsert(ctx context.Context, collection string, idx *vectorDB.MemoryIndex) error {
	chunks := idx.Chunks()
	vectors := idx.Vectors()

	for start := 0; start < len(chunks); start += config.QdrantUpsertBatch {
		end := min(start+config.QdrantUpsertBatch, len(chunks))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			c := chunks[i]
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(i)),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":     c.Chunk,
					"page_num":    c.PageNum,
					"position":    c.Position,
					"page_offset": c.PageOffset,
				}),
			})
		}

		_, err := p.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return classify(err, "upsert")
		}
	}
	return nil
}

func (p *Persister) Load(ctx context.Context, dir string) (vectorDB.Index, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if p.embeddingModel != "" && m.EmbeddingModel != "" && m.EmbeddingModel != p.embeddingModel {
		return nil, fmt.Errorf("%w: index built with %q, configured model is %q", commonModels.ErrIndexIncompatible, m.EmbeddingModel, p.embeddingModel)
	}

	exists, err := p.client.CollectionExists(ctx, m.Collection)
	if err != nil {
		return nil, classify(err, "check collection")
	}
	if !exists {
		return nil, fmt.Errorf("%w: collection %s is gone", commonModels.ErrIndexCorrupt, m.Collection)
	}

	count, err := p.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: m.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, classify(err, "count points")
	}
	if int(count) != m.Count {
		return nil, fmt.Errorf("%w: manifest says %d points, collection has %d", commonModels.ErrIndexCorrupt, m.Count, count)
	}
	return &remoteIndex{client: p.client, manifest: m}, nil
}

// Retire drops the collection of an index that has been replaced.
func (p *Persister) Retire(ctx context.Context, old vectorDB.Index) error {
	r, ok := old.(*remoteIndex)
	if !ok {
		return nil
	}
	if err := p.client.DeleteCollection(ctx, r.manifest.Collection); err != nil {
		return classify(err, "delete collection")
	}
	logger.Debug("dropped previous collection", "collection", r.manifest.Collection)
	return nil
}

func (p *Persister) createCollection(ctx context.Context, name string, dimension int) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	exists, err := p.client.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (p *Persister) dropCollection(ctx context.Context, name string) {
	if err := p.client.DeleteCollection(ctx, name); err != nil {
		logger.Warn("could not drop unused collection", "collection", name, "error", err)
	}
}

func readManifest(dir string) (manifest, error) {
	var m manifest
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, fmt.Errorf("%w: %s", commonModels.ErrIndexNotFound, path)
		}
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: bad manifest: %v", commonModels.ErrIndexCorrupt, err)
	}
	if m.Collection == "" || m.Dimension <= 0 {
		return m, fmt.Errorf("%w: incomplete manifest", commonModels.ErrIndexCorrupt)
	}
	return m, nil
}

// classify maps gRPC failures onto the index error sentinels where one applies.
func classify(err error, op string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: qdrant %s: %v", commonModels.ErrIndexCorrupt, op, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: qdrant %s: %v", commonModels.ErrIndexIncompatible, op, err)
	default:
		return fmt.Errorf("qdrant %s failed: %w", op, err)
	}
}
