package boltDB

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"go.etcd.io/bbolt"
)

const (
	fileName      = "index.db"
	formatVersion = 1
	backendName   = "bolt"
)

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")
	keyMeta      = []byte("index")
)

var logger = logger_i.NewLogger("Bolt Index")

type indexMeta struct {
	Version        int                   `json:"version"`
	Id             string                `json:"id"`
	Document       commonModels.Document `json:"document"`
	Dimension      int                   `json:"dimension"`
	Count          int                   `json:"count"`
	Metric         string                `json:"metric"`
	EmbeddingModel string                `json:"embedding_model"`
}

type storedChunk struct {
	Chunk  commonModels.DocChunk `json:"c"`
	Vector []float32             `json:"v"`
}

// Persister keeps the whole index in a single bolt file and loads it back into memory.
type Persister struct {
	embeddingModel string
}

// NewPersister records embeddingModel with each index and refuses to load an index
// built with a different one.
func NewPersister(embeddingModel string) *Persister {
	return &Persister{embeddingModel: embeddingModel}
}

func (p *Persister) Persist(ctx context.Context, dir string, idx *vectorDB.MemoryIndex) (vectorDB.Index, error) {
	start := time.Now()
	err := vectorDB.ReplaceDir(dir, func(tmp string) error {
		return p.write(ctx, filepath.Join(tmp, fileName), idx)
	})
	if err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	logger.Debug("index persisted", "dir", dir, "chunks", idx.Count(), "took", time.Since(start))
	return idx.WithBackend(backendName), nil
}

func (p *Persister) write(ctx context.Context, path string, idx *vectorDB.MemoryIndex) error {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		chunks, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}

		header := indexMeta{
			Version:        formatVersion,
			Id:             idx.Id(),
			Document:       idx.Document(),
			Dimension:      idx.Dimension(),
			Count:          idx.Count(),
			Metric:         vectorDB.MetricCosine,
			EmbeddingModel: p.embeddingModel,
		}
		data, err := json.Marshal(header)
		if err != nil {
			return err
		}
		if err := meta.Put(keyMeta, data); err != nil {
			return err
		}

		vectors := idx.Vectors()
		for i, c := range idx.Chunks() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(storedChunk{Chunk: c, Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := chunks.Put(positionKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Persister) Load(ctx context.Context, dir string) (vectorDB.Index, error) {
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", commonModels.ErrIndexNotFound, path)
		}
		return nil, err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonModels.ErrIndexCorrupt, err)
	}
	defer db.Close()

	var header indexMeta
	var chunks []commonModels.DocChunk
	var vectors [][]float32
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		stored := tx.Bucket(bucketChunks)
		if meta == nil || stored == nil {
			return errors.New("missing buckets")
		}
		data := meta.Get(keyMeta)
		if data == nil {
			return errors.New("missing index header")
		}
		if err := json.Unmarshal(data, &header); err != nil {
			return fmt.Errorf("bad index header: %w", err)
		}
		if header.Version != formatVersion {
			return fmt.Errorf("unsupported format version %d", header.Version)
		}

		chunks = make([]commonModels.DocChunk, 0, header.Count)
		vectors = make([][]float32, 0, header.Count)
		// keys are big endian positions so the cursor walks in document order
		return stored.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sc storedChunk
			if err := json.Unmarshal(v, &sc); err != nil {
				return fmt.Errorf("bad chunk %x: %w", k, err)
			}
			chunks = append(chunks, sc.Chunk)
			vectors = append(vectors, sc.Vector)
			return nil
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", commonModels.ErrIndexCorrupt, err)
	}

	if len(chunks) != header.Count {
		return nil, fmt.Errorf("%w: header says %d chunks, found %d", commonModels.ErrIndexCorrupt, header.Count, len(chunks))
	}
	if p.embeddingModel != "" && header.EmbeddingModel != "" && header.EmbeddingModel != p.embeddingModel {
		return nil, fmt.Errorf("%w: index built with %q, configured model is %q", commonModels.ErrIndexIncompatible, header.EmbeddingModel, p.embeddingModel)
	}

	idx, err := vectorDB.Restore(header.Id, header.Document, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonModels.ErrIndexCorrupt, err)
	}
	if idx.Dimension() != header.Dimension {
		return nil, fmt.Errorf("%w: header dimension %d, vectors have %d", commonModels.ErrIndexCorrupt, header.Dimension, idx.Dimension())
	}
	return idx.WithBackend(backendName), nil
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
