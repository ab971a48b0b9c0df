package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/storage"
)

// Store is the index store: a growing corpus of embedded records
// exposed to readers through an immutable snapshot behind an atomic
// pointer. Appends and reloads are serialized (one logical writer);
// reads never block and never observe a write in progress.
type Store struct {
	mu     sync.Mutex // serializes writers
	snap   atomic.Pointer[Snapshot]
	seen   map[core.ID]struct{} // writer-only dedupe set
	dim    int
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty index store for vectors of the given
// dimension. The dimension is fixed for the lifetime of the store and
// must match every appended and reloaded record.
func NewStore(dim int, opts ...Option) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}

	s := &Store{
		seen:   make(map[core.ID]struct{}),
		dim:    dim,
		logger: slog.Default(),
	}
	s.snap.Store(&Snapshot{dim: dim})

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Dim returns the configured vector dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Snapshot returns the current consistent view of the store. The call
// is a single pointer load regardless of store size; the returned
// snapshot stays valid and unchanged for as long as the caller holds it.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Append makes records visible to queries as a single atomic batch:
// either every record in the batch is searchable or none is. Records
// whose ID is already indexed are skipped (keep first), so re-appending
// a batch is idempotent. Returns the records that became visible.
//
// Every record must carry a vector of the configured dimension;
// otherwise the whole batch is rejected and the snapshot is unchanged.
func (s *Store) Append(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		if record == nil {
			return nil, ErrNilRecord
		}
		if err := core.ValidateVector(record.Vector, s.dim); err != nil {
			return nil, fmt.Errorf("record %s: %w", record.SourceID, err)
		}
	}

	var added []*core.Record
	for _, record := range records {
		if _, dup := s.seen[record.Id]; dup {
			continue
		}
		s.seen[record.Id] = struct{}{}
		added = append(added, record)
	}

	if len(added) == 0 {
		// Nothing new: the current snapshot already covers the batch.
		return nil, nil
	}

	old := s.snap.Load()

	// Clip forces append to reallocate, so the old snapshot's backing
	// arrays are never written through.
	newRecords := append(slices.Clip(old.records), added...)
	newVectors := slices.Clip(old.vectors)
	for _, record := range added {
		newVectors = append(newVectors, Normalize(record.Vector))
	}

	s.snap.Store(&Snapshot{
		records: newRecords,
		vectors: newVectors,
		dim:     s.dim,
	})

	s.logger.Debug("appended records to index", "added", len(added), "total", len(newRecords))
	return added, nil
}

// Reload discards the current snapshot and rebuilds it from the durable
// representation. On any failure the store fails closed: the previous
// snapshot stays in place and the error is reported.
func (s *Store) Reload(ctx context.Context, repo storage.RecordRepository) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := repo.AllRecords(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}

	seen := make(map[core.ID]struct{}, len(records))
	newRecords := make([]*core.Record, 0, len(records))
	newVectors := make([][]float32, 0, len(records))

	for _, record := range records {
		if err := core.ValidateVector(record.Vector, s.dim); err != nil {
			return fmt.Errorf("%w: record %s: %w", ErrReloadFailed, record.SourceID, err)
		}
		if _, dup := seen[record.Id]; dup {
			continue
		}
		seen[record.Id] = struct{}{}
		newRecords = append(newRecords, record)
		newVectors = append(newVectors, Normalize(record.Vector))
	}

	s.snap.Store(&Snapshot{
		records: newRecords,
		vectors: newVectors,
		dim:     s.dim,
	})
	s.seen = seen

	s.logger.Info("index reloaded", "records", len(newRecords))
	return nil
}
