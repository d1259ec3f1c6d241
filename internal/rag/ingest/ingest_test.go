package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/internal/rag/ingest/pdftest"
)

type mockEmbedder struct {
	OnEmbed func(ctx context.Context, texts []string) ([][]float32, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(len(texts[i]))}
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestSplitTextIntoChunks_CoversEveryRune(t *testing.T) {
	words := strings.Repeat("lorem ipsum dolor sit amet. ", 200)
	text := []rune(words + "\n\n" + strings.Repeat("ünïcödé ", 150))

	spans := splitTextIntoChunks(text, 1000, 200)
	if len(spans) < 2 {
		t.Fatalf("expected several chunks, got %d", len(spans))
	}
	if spans[0].start != 0 || spans[len(spans)-1].end != len(text) {
		t.Fatalf("spans do not reach both ends: first %+v last %+v", spans[0], spans[len(spans)-1])
	}
	for i, s := range spans {
		if s.end-s.start > 1000 {
			t.Errorf("span %d has %d runes", i, s.end-s.start)
		}
		if i > 0 {
			prev := spans[i-1]
			if s.start != prev.end-200 {
				t.Errorf("span %d starts at %d, expected overlap with previous end %d", i, s.start, prev.end)
			}
			if s.start <= prev.start {
				t.Errorf("span %d does not advance", i)
			}
		}
	}
}

func TestSplitTextIntoChunks_PrefersSeparators(t *testing.T) {
	text := []rune(strings.Repeat("a", 700) + "\n\n" + strings.Repeat("b", 700))
	spans := splitTextIntoChunks(text, 1000, 200)
	if spans[0].end != 702 {
		t.Errorf("first cut got %d, want 702 (after the blank line)", spans[0].end)
	}
}

func TestSplitTextIntoChunks_HardCut(t *testing.T) {
	text := []rune(strings.Repeat("x", 2500))
	spans := splitTextIntoChunks(text, 1000, 200)
	want := []span{{0, 1000}, {800, 1800}, {1600, 2500}}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d: %+v", len(spans), len(want), spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d got %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestSplitPages(t *testing.T) {
	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 56) // 2520 runes
	pages := []Page{
		{Number: 1, Content: long},
		{Number: 2, Content: "   \n  "},
		{Number: 3, Content: long},
		{Number: 4, Content: "Refunds must be requested within 30 days."},
		{Number: 5, Content: long},
	}

	chunks, err := SplitPages(pages, 1000, 200)
	if err != nil {
		t.Fatalf("SplitPages failed: %v", err)
	}

	content := map[int][]rune{}
	for _, p := range pages {
		content[p.Number] = []rune(p.Content)
	}
	perPage := map[int]int{}
	lastOffset := map[int]int{}
	for i, c := range chunks {
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
		if len([]rune(c.Chunk)) > 1000 {
			t.Errorf("chunk %d too long: %d", i, len([]rune(c.Chunk)))
		}
		if perPage[c.PageNum] == 0 {
			if c.PageOffset != 0 {
				t.Errorf("first chunk of page %d starts at offset %d, want 0", c.PageNum, c.PageOffset)
			}
		} else if c.PageOffset <= lastOffset[c.PageNum] {
			t.Errorf("chunk %d offset %d does not advance past %d", i, c.PageOffset, lastOffset[c.PageNum])
		}
		page := content[c.PageNum]
		n := len([]rune(c.Chunk))
		if c.PageOffset+n > len(page) || string(page[c.PageOffset:c.PageOffset+n]) != c.Chunk {
			t.Errorf("chunk %d text does not sit at offset %d of page %d", i, c.PageOffset, c.PageNum)
		}
		lastOffset[c.PageNum] = c.PageOffset
		perPage[c.PageNum]++
	}
	if perPage[2] != 0 {
		t.Errorf("blank page produced %d chunks", perPage[2])
	}
	if perPage[4] != 1 {
		t.Errorf("short page produced %d chunks, want 1", perPage[4])
	}
	for _, p := range []int{1, 3, 5} {
		if perPage[p] < 3 {
			t.Errorf("page %d produced %d chunks, want at least 3", p, perPage[p])
		}
	}
}

func TestSplitPages_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitPages([]Page{{Number: 1, Content: "text"}}, tt.size, tt.overlap)
			if !errors.Is(err, commonModels.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestEmbedChunks_Batches(t *testing.T) {
	chunks := make([]commonModels.DocChunk, 7)
	for i := range chunks {
		chunks[i] = commonModels.DocChunk{Chunk: strings.Repeat("c", i+1), Position: i}
	}
	var batchSizes []int
	var progress []int
	m := &mockEmbedder{}
	m.OnEmbed = func(ctx context.Context, texts []string) ([][]float32, error) {
		batchSizes = append(batchSizes, len(texts))
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text))}
		}
		return out, nil
	}

	vectors, err := EmbedChunks(context.Background(), chunks, m, 3, 1, func(done, total int) {
		if total != 7 {
			t.Errorf("total got %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if len(batchSizes) != 3 || batchSizes[0] != 3 || batchSizes[2] != 1 {
		t.Errorf("batch sizes got %v", batchSizes)
	}
	if len(progress) != 3 || progress[2] != 7 {
		t.Errorf("progress got %v", progress)
	}
	for i, v := range vectors {
		if int(v[0]) != i+1 {
			t.Errorf("vector %d does not belong to its chunk: %v", i, v)
		}
	}
}

type lockedEmbedder struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (l *lockedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	l.mu.Lock()
	l.inFlight++
	l.peak = max(l.peak, l.inFlight)
	l.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (l *lockedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := l.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestEmbedChunks_ParallelKeepsChunkOrder(t *testing.T) {
	chunks := make([]commonModels.DocChunk, 20)
	for i := range chunks {
		chunks[i] = commonModels.DocChunk{Chunk: strings.Repeat("c", i+1), Position: i}
	}
	e := &lockedEmbedder{}
	var progress []int

	vectors, err := EmbedChunks(context.Background(), chunks, e, 2, 4, func(done, total int) {
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if e.peak > 4 {
		t.Errorf("more than 4 batches in flight: %d", e.peak)
	}
	for i, v := range vectors {
		if int(v[0]) != i+1 {
			t.Errorf("vector %d does not belong to its chunk: %v", i, v)
		}
	}
	if len(progress) != 10 || progress[len(progress)-1] != 20 {
		t.Errorf("progress got %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Errorf("progress went backwards: %v", progress)
		}
	}
}

func TestEmbedChunks_Errors(t *testing.T) {
	chunks := []commonModels.DocChunk{{Chunk: "a"}, {Chunk: "b"}}

	t.Run("backend failure", func(t *testing.T) {
		m := &mockEmbedder{OnEmbed: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, commonModels.ErrEmbeddingService
		}}
		_, err := EmbedChunks(context.Background(), chunks, m, 10, 1, nil)
		if !errors.Is(err, commonModels.ErrEmbeddingService) {
			t.Errorf("expected ErrEmbeddingService, got %v", err)
		}
	})

	t.Run("short response", func(t *testing.T) {
		m := &mockEmbedder{OnEmbed: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}}
		_, err := EmbedChunks(context.Background(), chunks, m, 10, 1, nil)
		if !errors.Is(err, commonModels.ErrEmbeddingService) {
			t.Errorf("expected ErrEmbeddingService, got %v", err)
		}
	})
}

func TestProcessDocumentIngestion_RejectsBadUploads(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	fakePDF := filepath.Join(dir, "fake.pdf")
	if err := os.WriteFile(txt, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fakePDF, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{ChunkSize: 1000, ChunkOverlap: 200, BatchSize: 10}
	for _, path := range []string{txt, fakePDF} {
		m := &mockEmbedder{}
		_, err := ProcessDocumentIngestion(context.Background(), path, filepath.Base(path), m, opts)
		if !errors.Is(err, commonModels.ErrInvalidUpload) {
			t.Errorf("%s: expected ErrInvalidUpload, got %v", path, err)
		}
		if m.calls != 0 {
			t.Errorf("%s: embedder called %d times", path, m.calls)
		}
	}
}

func TestExtractPDF_PagesAreOneBased(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "policy.pdf",
		"Welcome to the store.",
		"",
		"Refunds must be requested within 30 days.",
	)

	pages, err := extractPDF(path)
	if err != nil {
		t.Fatalf("extractPDF failed: %v", err)
	}
	var found bool
	for _, p := range pages {
		if strings.Contains(p.Content, "Refunds must be requested") {
			found = true
			if p.Number != 3 {
				t.Errorf("refund text on page %d, want 3", p.Number)
			}
		}
	}
	if !found {
		t.Fatalf("refund text not extracted: %+v", pages)
	}
}

func TestProcessDocumentIngestion(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "policy.pdf",
		"Welcome to the store.",
		"",
		"Refunds must be requested within 30 days.",
	)
	m := &mockEmbedder{}

	idx, err := ProcessDocumentIngestion(context.Background(), path, "policy.pdf", m, Options{ChunkSize: 1000, ChunkOverlap: 200, BatchSize: 10})
	if err != nil {
		t.Fatalf("ProcessDocumentIngestion failed: %v", err)
	}
	if idx.Count() != 2 {
		t.Errorf("expected 2 chunks (blank page skipped), got %d", idx.Count())
	}
	if idx.Document().Name != "policy.pdf" || idx.Document().ContentType != commonModels.PDF {
		t.Errorf("unexpected document %+v", idx.Document())
	}
	if m.calls != 1 {
		t.Errorf("expected one embedding batch, got %d", m.calls)
	}
}

func TestProcessDocumentIngestion_NoText(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "scan.pdf", "", "")
	m := &mockEmbedder{}

	_, err := ProcessDocumentIngestion(context.Background(), path, "scan.pdf", m, Options{ChunkSize: 1000, ChunkOverlap: 200, BatchSize: 10})
	if !errors.Is(err, commonModels.ErrInvalidUpload) {
		t.Errorf("expected ErrInvalidUpload, got %v", err)
	}
	if m.calls != 0 {
		t.Errorf("embedder should not be called, got %d calls", m.calls)
	}
}
