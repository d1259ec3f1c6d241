package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/internal/rag/vectorDB"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

// ProgressFunc is told how many chunks have been embedded so far.
type ProgressFunc func(done int, total int)

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Workers      int
	Progress     ProgressFunc
}

var logger = logger_i.NewLogger("Document Ingestion")

// ProcessDocumentIngestion extracts, chunks and embeds the PDF at docPath and returns a
// freshly built in-memory index. Nothing is persisted here.
func ProcessDocumentIngestion(ctx context.Context, docPath string, docName string, e embedding.Embedder, opts Options) (*vectorDB.MemoryIndex, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("Processing document", "filename", docName, "path", docPath)

	docType := getDocType(docPath)
	if docType == commonModels.ERR {
		return nil, fmt.Errorf("%w: only PDF files are allowed", commonModels.ErrInvalidUpload)
	}

	doc := commonModels.Document{
		Name:                docName,
		LastIngestTimestamp: time.Now(),
		ContentType:         docType,
	}

	rawPages, err := extractPDF(docPath)
	if err != nil {
		log.Error("Error extracting document", "error", err)
		return nil, err
	}
	log.Debug("Processing document", "Number of raw pages", len(rawPages))

	chunks, err := SplitPages(rawPages, opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document contains no extractable text", commonModels.ErrInvalidUpload)
	}
	log.Debug("Processing document", "Number of chunks", len(chunks))

	vectors, err := EmbedChunks(ctx, chunks, e, opts.BatchSize, opts.Workers, opts.Progress)
	if err != nil {
		log.Error("Error embedding document", "error", err)
		return nil, err
	}

	return vectorDB.Build(doc, chunks, vectors)
}
