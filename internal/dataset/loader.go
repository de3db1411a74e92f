package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Loader reads the six source tables from a directory.
type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

func (l *Loader) Dir() string { return l.dir }

// Load reads every table concurrently. It either returns a complete set or
// the first failure; a partial set is never returned.
func (l *Loader) Load(ctx context.Context) (*TableSet, error) {
	tables := make([]*Table, len(Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range Sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := l.readSource(src)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[TableID]*Table, len(tables))
	for i, src := range Sources {
		byID[src.ID] = tables[i]
	}
	return NewTableSet(byID)
}

func (l *Loader) readSource(src Source) (*Table, error) {
	path := filepath.Join(l.dir, src.File)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{
			Kind:   KindFileNotFound,
			Table:  string(src.ID),
			File:   src.File,
			Reason: fmt.Sprintf("file %q not found in %s", src.File, l.dir),
			Cause:  err,
		}
	}
	if err != nil {
		return nil, &Error{Kind: KindParse, Table: string(src.ID), File: src.File, Reason: "cannot open file", Cause: err}
	}
	defer f.Close()

	t, err := ReadCSV(string(src.ID), f)
	if err != nil {
		if e, ok := AsError(err); ok {
			e.File = src.File
		}
		return nil, err
	}

	if !t.HasColumn(ScenarioColumn) {
		return nil, &Error{
			Kind:   KindParse,
			Table:  string(src.ID),
			File:   src.File,
			Reason: fmt.Sprintf("expected a %q column", ScenarioColumn),
		}
	}

	l.logger.Debug("table loaded",
		"table", src.ID,
		"file", src.File,
		"rows", t.Len(),
		"columns", len(t.columns),
	)
	return t, nil
}

// LoadObserver is notified after every load attempt.
type LoadObserver interface {
	ObserveLoad(duration time.Duration, ts *TableSet, err error)
}

// Store holds the current snapshot. Readers take the pointer once per
// request; Reload swaps in a fresh snapshot without touching the old one.
type Store struct {
	loader   *Loader
	logger   *slog.Logger
	observer LoadObserver

	current atomic.Pointer[TableSet]
	reload  sync.Mutex
	loads   atomic.Int64
}

func NewStore(loader *Loader, logger *slog.Logger, observer LoadObserver) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{loader: loader, logger: logger, observer: observer}
}

// NewStaticStore serves a fixed snapshot; Reload on it is an error.
func NewStaticStore(ts *TableSet) *Store {
	s := &Store{logger: slog.Default()}
	s.current.Store(ts)
	return s
}

// Current returns the active snapshot, nil before the first successful load.
func (s *Store) Current() *TableSet {
	return s.current.Load()
}

// Load performs the initial load. It is Reload under another name so the
// startup path reads naturally.
func (s *Store) Load(ctx context.Context) (*TableSet, error) {
	return s.Reload(ctx)
}

// Reload builds a new snapshot. On failure the previous snapshot stays
// current and the error is returned.
func (s *Store) Reload(ctx context.Context) (*TableSet, error) {
	if s.loader == nil {
		return nil, errors.New("store has no loader")
	}

	s.reload.Lock()
	defer s.reload.Unlock()

	start := time.Now()
	ts, err := s.loader.Load(ctx)
	duration := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveLoad(duration, ts, err)
	}

	if err != nil {
		s.logger.Error("dataset load failed",
			"dir", s.loader.Dir(),
			"kind", KindOf(err),
			"error", err,
			"duration", duration,
		)
		return nil, err
	}

	s.current.Store(ts)
	n := s.loads.Add(1)
	s.logger.Info("dataset loaded",
		"dir", s.loader.Dir(),
		"generation", n,
		"duration", duration,
	)
	return ts, nil
}

// Generation counts successful loads.
func (s *Store) Generation() int64 {
	return s.loads.Load()
}
