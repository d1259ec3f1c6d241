package vectorDB

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

var logger = logger_i.NewLogger("Vector Index")

const retireTimeout = 30 * time.Second

// lease counts readers still holding an index. stale is set once the index has been
// replaced, the last release then retires it.
type lease struct {
	refs  int
	stale bool
}

// Store owns the single live index. Readers get a snapshot, replacements are serialised
// and swapped in only after they are fully persisted.
type Store struct {
	dir       string
	persister Persister

	replaceMu sync.Mutex
	mu        sync.RWMutex
	current   Index
	leases    map[Index]*lease
}

func NewStore(dir string, persister Persister) *Store {
	return &Store{dir: dir, persister: persister, leases: make(map[Index]*lease)}
}

// Init loads the persisted index, if any. A missing or unreadable index leaves the store
// empty and the service keeps running.
func (s *Store) Init(ctx context.Context) {
	if removed, err := SweepStale(s.dir); err != nil {
		logger.Warn("could not sweep stale index copies", "dir", s.dir, "error", err)
	} else if removed > 0 {
		logger.Info("removed stale index copies", "dir", s.dir, "count", removed)
	}

	idx, err := s.persister.Load(ctx, s.dir)
	switch {
	case err == nil:
		s.mu.Lock()
		s.current = idx
		s.mu.Unlock()
		info := idx.Info()
		logger.Info("loaded index", "document", info.DocName, "chunks", info.Chunks, "backend", info.Backend)
	case errors.Is(err, commonModels.ErrIndexNotFound):
		logger.Info("no index found, starting empty", "dir", s.dir)
	case errors.Is(err, commonModels.ErrIndexCorrupt):
		logger.Warn("index is corrupt, starting empty", "dir", s.dir, "error", err)
	default:
		logger.Error("index load failed, starting empty", "dir", s.dir, "error", err)
	}
}

// Replace persists idx over the previous index and makes it current.
func (s *Store) Replace(ctx context.Context, idx *MemoryIndex) (Index, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	persisted, err := s.persister.Persist(ctx, s.dir, idx)
	if err != nil {
		log.Error("persisting index failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	old := s.current
	s.current = persisted
	retireNow := old != nil
	if l, held := s.leases[old]; held && old != nil {
		l.stale = true
		retireNow = false
	}
	s.mu.Unlock()

	if retireNow {
		s.retire(ctx, old)
	} else if old != nil {
		log.Debug("previous index still in use, retiring after its last reader")
	}

	log.Info("index replaced", "document", idx.Document().Name, "chunks", persisted.Count())
	return persisted, nil
}

// Acquire returns the live index together with a release func. An index replaced while
// held is retired only after every holder has released it. release is safe to call more
// than once.
func (s *Store) Acquire() (Index, func()) {
	s.mu.Lock()
	idx := s.current
	if idx == nil {
		s.mu.Unlock()
		return nil, func() {}
	}
	l, ok := s.leases[idx]
	if !ok {
		l = &lease{}
		s.leases[idx] = l
	}
	l.refs++
	s.mu.Unlock()

	var once sync.Once
	return idx, func() { once.Do(func() { s.release(idx) }) }
}

func (s *Store) release(idx Index) {
	s.mu.Lock()
	l := s.leases[idx]
	l.refs--
	drop := l.refs == 0 && l.stale
	if l.refs == 0 {
		delete(s.leases, idx)
	}
	s.mu.Unlock()

	if drop {
		ctx, cancel := context.WithTimeout(context.Background(), retireTimeout)
		defer cancel()
		s.retire(ctx, idx)
	}
}

func (s *Store) retire(ctx context.Context, old Index) {
	r, ok := s.persister.(Retirer)
	if !ok {
		return
	}
	if err := r.Retire(ctx, old); err != nil {
		logger.WithTrace(ctx, config.TRACE_ID_KEY).Warn("could not release previous index", "error", err)
	}
}

// Current returns the live index, or nil when nothing has been ingested.
func (s *Store) Current() Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsLoaded() bool {
	return s.Current() != nil
}

func (s *Store) Count() int {
	idx := s.Current()
	if idx == nil {
		return 0
	}
	return idx.Count()
}

// Info describes the live index. ok is false when none is loaded.
func (s *Store) Info() (info Info, ok bool) {
	idx := s.Current()
	if idx == nil {
		return Info{}, false
	}
	return idx.Info(), true
}
