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
	"sort"

	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/storage"
)

// Watcher tracks which source items have already been ingested. It
// filters each Fetch result down to new items via a persisted cursor,
// in two phases: Poll returns the candidates, Commit advances the
// cursor after the batch is durably stored. A crash between the two
// redelivers the batch on restart; storage-level ID dedupe makes the
// redelivery harmless.
type Watcher struct {
	source     Source
	cursorRepo storage.CursorRepository
	cursor     *core.Cursor
	restored   bool
	logger     *slog.Logger
}

// NewWatcher creates a watcher over the given source. The persisted
// cursor is restored lazily on the first Poll.
func NewWatcher(source Source, cursorRepo storage.CursorRepository, logger *slog.Logger) (*Watcher, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if cursorRepo == nil {
		return nil, ErrCursorRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:     source,
		cursorRepo: cursorRepo,
		logger:     logger.With("component", "watcher"),
	}, nil
}

// Poll fetches from the source and returns the items not yet admitted
// by the cursor, deduplicated by source ID and sorted by (timestamp,
// source ID). The cursor is not advanced; call Commit once the batch
// is durably stored.
func (w *Watcher) Poll(ctx context.Context) ([]Item, error) {
	if err := w.restoreCursor(ctx); err != nil {
		return nil, err
	}

	items, err := w.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	fresh := make([]Item, 0, len(items))
	for _, item := range items {
		if !w.cursor.Admits(item.Timestamp, item.SourceID) {
			continue
		}
		if _, dup := seen[item.SourceID]; dup {
			continue
		}
		seen[item.SourceID] = struct{}{}
		fresh = append(fresh, item)
	}

	// Deterministic ingestion order; ties on timestamp break by ID.
	sort.Slice(fresh, func(a, b int) bool {
		if !fresh[a].Timestamp.Equal(fresh[b].Timestamp) {
			return fresh[a].Timestamp.Before(fresh[b].Timestamp)
		}
		return fresh[a].SourceID < fresh[b].SourceID
	})

	if len(fresh) > 0 {
		w.logger.Debug("poll found new items", "fetched", len(items), "new", len(fresh))
	}
	return fresh, nil
}

// Commit advances the cursor past the given items and persists it.
// Call only after the items are durably stored and indexed.
func (w *Watcher) Commit(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := w.restoreCursor(ctx); err != nil {
		return err
	}

	for _, item := range items {
		w.cursor.Advance(item.Timestamp, item.SourceID)
	}

	if err := w.cursorRepo.SaveCursor(ctx, w.cursor); err != nil {
		w.logger.Error("error persisting ingestion cursor", "err", err)
		return err
	}

	w.logger.Debug("cursor advanced",
		"last_timestamp", w.cursor.LastTimestamp,
		"boundary_ids", len(w.cursor.SeenIDs))
	return nil
}

func (w *Watcher) restoreCursor(ctx context.Context) error {
	if w.restored {
		return nil
	}

	cursor, err := w.cursorRepo.LoadCursor(ctx)
	if err != nil {
		return err
	}
	if cursor == nil {
		cursor = &core.Cursor{}
		w.logger.Info("no persisted cursor, starting from the beginning")
	} else {
		w.logger.Info("restored ingestion cursor",
			"last_timestamp", cursor.LastTimestamp,
			"boundary_ids", len(cursor.SeenIDs))
	}

	w.cursor = cursor
	w.restored = true
	return nil
}
