// Copyright 2025 Relaydesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/index"
	"github.com/relaydesk/ticketrag/storage"
)

// DefaultBatchSize is how many texts go to the embedder in one call.
const DefaultBatchSize = 32

// Pipeline orchestrates continuous ticket ingestion: poll the source,
// embed new tickets, persist them, publish them to the index, then
// commit the cursor. Each cycle is all-or-nothing up to the persist
// step, so a failed cycle simply retries on the next poll.
type Pipeline struct {
	watcher    *Watcher
	recordRepo storage.RecordRepository
	store      *index.Store
	embedder   ai.Embedder
	pool       *ants.Pool
	batchSize  int
	source     Source
	logger     *slog.Logger
	released   bool
	mu         sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many texts are embedded per request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	source Source,
	recordRepo storage.RecordRepository,
	cursorRepo storage.CursorRepository,
	store *index.Store,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if recordRepo == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if cursorRepo == nil {
		return nil, ErrCursorRepositoryRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		recordRepo: recordRepo,
		store:      store,
		embedder:   embedder,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		source:     source,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	watcher, err := NewWatcher(source, cursorRepo, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.watcher = watcher

	return p, nil
}

// ProcessOnce runs a single ingestion cycle and reports how many
// records were newly indexed. A cycle that finds nothing new is not an
// error.
func (p *Pipeline) ProcessOnce(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, ErrPipelineClosed
	}

	items, err := p.watcher.Poll(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	records := p.buildRecords(items)
	if len(records) == 0 {
		// Every item was malformed; commit so they aren't re-fetched forever.
		return 0, p.watcher.Commit(ctx, items)
	}

	if err := p.embedRecords(ctx, records); err != nil {
		p.logger.Error("embedding failed, cycle will retry", "records", len(records), "err", err)
		return 0, err
	}

	added, err := p.recordRepo.AddRecords(ctx, records...)
	if err != nil {
		return 0, err
	}

	if _, err := p.store.Append(ctx, added...); err != nil {
		return 0, err
	}

	// Persisted and indexed; safe to move the cursor forward.
	if err := p.watcher.Commit(ctx, items); err != nil {
		return len(added), err
	}

	p.logger.Info("ingestion cycle complete", "fetched", len(items), "indexed", len(added))
	return len(added), nil
}

// Run polls the source until the context is canceled. Polls happen on
// the given interval and immediately on source change notifications.
// Cycle errors are logged and retried on the next trigger.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	changes := p.source.Changes()

	p.logger.Info("ingestion loop started", "interval", interval)
	for {
		if _, err := p.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("ingestion cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("ingestion loop stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-changes:
			// Drain bursts so one batch of file events triggers one cycle.
			for {
				select {
				case <-changes:
					continue
				default:
				}
				break
			}
		}
	}
}

// Release releases the worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	if p.pool != nil {
		p.pool.Release()
	}
}

// buildRecords converts source items to records, dropping malformed ones.
func (p *Pipeline) buildRecords(items []Item) []*core.Record {
	records := make([]*core.Record, 0, len(items))
	for _, item := range items {
		record := &core.Record{
			Id:        core.IDFromContent(item.SourceID),
			SourceID:  item.SourceID,
			Text:      item.Text,
			Timestamp: item.Timestamp,
			Metadata:  item.Metadata,
		}
		if err := core.ValidateRecord(record); err != nil {
			p.logger.Warn("skipping malformed ticket", "source_id", item.SourceID, "err", err)
			continue
		}
		records = append(records, record)
	}
	return records
}

// embedRecords fills in unit-normalized vectors for all records,
// embedding batchSize texts at a time on the worker pool. Any batch
// failure fails the whole call; nothing has been persisted yet, so the
// cycle can retry cleanly.
func (p *Pipeline) embedRecords(ctx context.Context, records []*core.Record) error {
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))
		chunk := records[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(chunk))
			for i, record := range chunk {
				texts[i] = record.Text
			}

			vectors, err := p.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}

			for i := range chunk {
				chunk[i].Vector = index.Normalize(vectors[i])
			}
		})
		if submitErr != nil {
			wg.Done()
			errOnce.Do(func() { firstErr = submitErr })
			break
		}
	}

	wg.Wait()
	return firstErr
}
