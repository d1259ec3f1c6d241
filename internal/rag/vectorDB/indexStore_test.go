package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
)

type mockPersister struct {
	OnPersist func(ctx context.Context, dir string, idx *MemoryIndex) (Index, error)
	OnLoad    func(ctx context.Context, dir string) (Index, error)

	mu      sync.Mutex
	retired []Index
}

func (m *mockPersister) Persist(ctx context.Context, dir string, idx *MemoryIndex) (Index, error) {
	if m.OnPersist != nil {
		return m.OnPersist(ctx, dir, idx)
	}
	return idx, nil
}

func (m *mockPersister) Load(ctx context.Context, dir string) (Index, error) {
	if m.OnLoad != nil {
		return m.OnLoad(ctx, dir)
	}
	return nil, commonModels.ErrIndexNotFound
}

func (m *mockPersister) Retire(ctx context.Context, old Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retired = append(m.retired, old)
	return nil
}

func (m *mockPersister) retiredIds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.retired))
	for _, idx := range m.retired {
		ids = append(ids, idx.Info().Id)
	}
	return ids
}

func TestStore_InitPolicies(t *testing.T) {
	loaded := sampleIndex(t)
	tests := []struct {
		name       string
		loadErr    error
		wantLoaded bool
	}{
		{"found", nil, true},
		{"not found", commonModels.ErrIndexNotFound, false},
		{"corrupt", fmt.Errorf("%w: bad meta", commonModels.ErrIndexCorrupt), false},
		{"other failure", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPersister{OnLoad: func(ctx context.Context, dir string) (Index, error) {
				if tt.loadErr != nil {
					return nil, tt.loadErr
				}
				return loaded, nil
			}}
			s := NewStore(t.TempDir(), p)
			s.Init(context.Background())
			if s.IsLoaded() != tt.wantLoaded {
				t.Errorf("IsLoaded() = %v; want %v", s.IsLoaded(), tt.wantLoaded)
			}
		})
	}
}

func TestStore_ReplaceSwapsAndRetires(t *testing.T) {
	p := &mockPersister{}
	s := NewStore(t.TempDir(), p)
	s.Init(context.Background())

	if s.IsLoaded() || s.Count() != 0 || s.Current() != nil {
		t.Fatal("store should start empty")
	}
	if _, ok := s.Info(); ok {
		t.Error("Info should report nothing loaded")
	}

	first := sampleIndex(t)
	if _, err := s.Replace(context.Background(), first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	second := sampleIndex(t)
	if _, err := s.Replace(context.Background(), second); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	info, ok := s.Info()
	if !ok || info.Id != second.Id() {
		t.Errorf("current index got %+v, want id %s", info, second.Id())
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d; want 3", s.Count())
	}
	if ids := p.retiredIds(); len(ids) != 1 || ids[0] != first.Id() {
		t.Errorf("expected only the first index to be retired, got %v", ids)
	}
}

func TestStore_FailedReplaceKeepsCurrent(t *testing.T) {
	p := &mockPersister{}
	s := NewStore(t.TempDir(), p)
	first := sampleIndex(t)
	if _, err := s.Replace(context.Background(), first); err != nil {
		t.Fatal(err)
	}

	p.OnPersist = func(ctx context.Context, dir string, idx *MemoryIndex) (Index, error) {
		return nil, errors.New("disk full")
	}
	if _, err := s.Replace(context.Background(), sampleIndex(t)); err == nil {
		t.Fatal("expected error")
	}
	if info, _ := s.Info(); info.Id != first.Id() {
		t.Errorf("current index changed after failed replace")
	}
}

func TestStore_RetireWaitsForReaders(t *testing.T) {
	p := &mockPersister{}
	s := NewStore(t.TempDir(), p)
	first := sampleIndex(t)
	if _, err := s.Replace(context.Background(), first); err != nil {
		t.Fatal(err)
	}

	held, release := s.Acquire()
	_, releaseOther := s.Acquire()
	if held.Info().Id != first.Id() {
		t.Fatalf("acquired %s, want %s", held.Info().Id, first.Id())
	}

	if _, err := s.Replace(context.Background(), sampleIndex(t)); err != nil {
		t.Fatal(err)
	}
	if ids := p.retiredIds(); len(ids) != 0 {
		t.Fatalf("index retired while still held: %v", ids)
	}
	if _, err := held.Search(context.Background(), []float32{0, 1, 0}, 1); err != nil {
		t.Errorf("held index should stay searchable: %v", err)
	}

	release()
	release()
	if ids := p.retiredIds(); len(ids) != 0 {
		t.Fatalf("retired before the last reader released: %v", ids)
	}
	releaseOther()
	if ids := p.retiredIds(); len(ids) != 1 || ids[0] != first.Id() {
		t.Errorf("expected the first index retired once, got %v", ids)
	}
}

func TestStore_AcquireEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), &mockPersister{})
	idx, release := s.Acquire()
	release()
	if idx != nil {
		t.Errorf("expected no index, got %+v", idx.Info())
	}
}

func sizedIndex(t *testing.T, n int) *MemoryIndex {
	t.Helper()
	chunks := make([]commonModels.DocChunk, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		chunks[i] = commonModels.DocChunk{Chunk: fmt.Sprintf("chunk %d", i), PageNum: 1, Position: i}
		vectors[i] = []float32{1, float32(i), 0}
	}
	idx, err := Build(commonModels.Document{Name: fmt.Sprintf("doc-%d.pdf", n)}, chunks, vectors)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

// Run with -race: readers must always see one whole index while replacements land.
func TestStore_ConcurrentReadersAndReplace(t *testing.T) {
	p := &mockPersister{}
	s := NewStore(t.TempDir(), p)
	sizes := []int{1, 2, 3, 4}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				idx, release := s.Acquire()
				if idx != nil {
					info := idx.Info()
					if info.Chunks != idx.Count() || info.DocName != fmt.Sprintf("doc-%d.pdf", idx.Count()) {
						errs <- fmt.Errorf("torn snapshot: %+v with %d chunks", info, idx.Count())
						release()
						return
					}
					if _, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2); err != nil {
						errs <- err
						release()
						return
					}
				}
				release()
				if c := s.Count(); c < 0 || c > len(sizes) {
					errs <- fmt.Errorf("count %d out of range", c)
					return
				}
			}
		}()
	}

	for i := 0; i < 40; i++ {
		if _, err := s.Replace(context.Background(), sizedIndex(t, sizes[i%len(sizes)])); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if ids := p.retiredIds(); len(ids) != 39 {
		t.Errorf("expected every replaced index retired once, got %d", len(ids))
	}
}
