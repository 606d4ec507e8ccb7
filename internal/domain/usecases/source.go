package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
)

// Load policies.
const (
	PolicyPerRequest = "per_request"
	PolicySnapshot   = "snapshot"
)

// FreshSource re-reads the dataset directory on every call, so files
// added or edited between requests are always picked up.
type FreshSource struct {
	loader ports.DatasetLoader
	dir    string
}

// NewFreshSource creates a per-request DatasetSource.
func NewFreshSource(loader ports.DatasetLoader, dir string) *FreshSource {
	return &FreshSource{loader: loader, dir: dir}
}

// Current loads the directory now.
func (s *FreshSource) Current(ctx context.Context) entities.Dataset {
	return s.loader.Load(s.dir)
}

// Policy returns PolicyPerRequest.
func (s *FreshSource) Policy() string { return PolicyPerRequest }

// SnapshotSource loads the directory once and serves that Dataset until
// Refresh is called. Refreshes swap the whole Dataset under a lock.
type SnapshotSource struct {
	loader ports.DatasetLoader
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	current  entities.Dataset
	loadedAt time.Time
}

// NewSnapshotSource creates a SnapshotSource and performs the initial load.
func NewSnapshotSource(loader ports.DatasetLoader, dir string, logger *slog.Logger) *SnapshotSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SnapshotSource{loader: loader, dir: dir, logger: logger}
	s.Refresh()
	return s
}

// Current returns the cached Dataset.
func (s *SnapshotSource) Current(ctx context.Context) entities.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Policy returns PolicySnapshot.
func (s *SnapshotSource) Policy() string { return PolicySnapshot }

// LoadedAt returns when the current snapshot was built.
func (s *SnapshotSource) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Refresh reloads the directory and replaces the snapshot.
func (s *SnapshotSource) Refresh() entities.LoadReport {
	ds := s.loader.Load(s.dir)

	s.mu.Lock()
	s.current = ds
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("dataset snapshot loaded",
		slog.String("dir", s.dir),
		slog.Int("examples", ds.Len()),
		slog.Int("files", ds.Report.Files),
		slog.Int("skipped", ds.Report.Skipped()),
	)
	return ds.Report
}

// Follow refreshes the snapshot whenever events arrive, until ctx is done
// or the channel closes. Events already queued are folded into one refresh.
func (s *SnapshotSource) Follow(ctx context.Context, events <-chan ports.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.logger.Debug("dataset file changed",
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()),
			)
			if !drain(events) {
				s.Refresh()
				return
			}
			s.Refresh()
		}
	}
}

// drain discards queued events. It returns false if the channel closed.
func drain(events <-chan ports.FileEvent) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}
