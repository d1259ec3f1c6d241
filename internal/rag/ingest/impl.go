package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/embedding"
	"github.com/akolanti/pdfqa/internal/worker"
)

// separators ordered from "best" to "worst" for semantic meaning
var separators = []string{"\n\n", "\n", ". ", " "}

type span struct {
	start int
	end   int
}

// splitTextIntoChunks cuts text into windows of at most limit runes. Consecutive windows
// share exactly overlap runes, so together they cover every rune of text.
func splitTextIntoChunks(text []rune, limit int, overlap int) []span {
	n := len(text)
	if n == 0 {
		return nil
	}
	if n <= limit {
		return []span{{0, n}}
	}

	var spans []span
	start := 0
	for {
		end := start + limit
		if end >= n {
			spans = append(spans, span{start, n})
			return spans
		}
		end = cutPoint(text, start, end, overlap)
		spans = append(spans, span{start, end})
		start = end - overlap
	}
}

// cutPoint looks backwards from end for the best separator. The cut must land past
// start+overlap, otherwise the next window would not advance.
func cutPoint(text []rune, start, end, overlap int) int {
	lowest := start + (end-start)/2
	if lowest <= start+overlap {
		lowest = start + overlap + 1
	}
	if lowest >= end {
		return end
	}

	window := string(text[lowest:end])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// idx is a byte offset into window, convert back to runes
		cut := lowest + len([]rune(window[:idx+len(sep)]))
		if cut > start+overlap && cut <= end {
			return cut
		}
	}
	return end
}

// SplitPages turns extracted pages into chunks, keeping the page each chunk came from.
func SplitPages(pages []Page, size int, overlap int) ([]commonModels.DocChunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", commonModels.ErrInvalidArgument)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d)", commonModels.ErrInvalidArgument, size)
	}

	var allChunks []commonModels.DocChunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		runes := []rune(page.Content)
		for _, s := range splitTextIntoChunks(runes, size, overlap) {
			allChunks = append(allChunks, commonModels.DocChunk{
				Chunk:      string(runes[s.start:s.end]),
				PageNum:    page.Number,
				Position:   len(allChunks),
				PageOffset: s.start,
			})
		}
	}
	return allChunks, nil
}

func getDocType(docPath string) commonModels.DocType {
	if strings.ToLower(filepath.Ext(docPath)) == ".pdf" {
		return commonModels.PDF
	}
	return commonModels.ERR
}

// EmbedChunks embeds chunk texts in batches and returns one vector per chunk, in chunk
// order. Up to workers batches are in flight at once.
func EmbedChunks(ctx context.Context, chunks []commonModels.DocChunk, embedder embedding.Embedder, batchSize int, workers int, progress ProgressFunc) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	if batchSize <= 0 {
		batchSize = len(chunks)
	}
	vectors := make([][]float32, len(chunks))
	batches := (len(chunks) + batchSize - 1) / batchSize

	var mu sync.Mutex
	done := 0

	err := worker.Run(ctx, "Embedding_batch", batches, workers, func(ctx context.Context, b int) error {
		start := b * batchSize
		end := min(start+batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Chunk)
		}

		logger.Debug("Starting embedding call", "batch start", start, "batch length", len(texts))
		batch, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(batch) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d chunks", commonModels.ErrEmbeddingService, len(batch), len(texts))
		}
		copy(vectors[start:end], batch)

		mu.Lock()
		defer mu.Unlock()
		done += len(batch)
		if progress != nil {
			progress(done, len(chunks))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
