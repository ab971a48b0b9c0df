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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/storage"
)

// ingestCursorName is the cursor slot used by the ingestion watcher.
const ingestCursorName = "ingest"

// CursorRepository implements storage.CursorRepository for BadgerDB.
type CursorRepository struct {
	backend *Backend
}

var _ storage.CursorRepository = (*CursorRepository)(nil)

// NewCursorRepository creates a new CursorRepository.
func NewCursorRepository(backend *Backend) *CursorRepository {
	return &CursorRepository{
		backend: backend,
	}
}

// SaveCursor persists the ingestion cursor.
func (r *CursorRepository) SaveCursor(ctx context.Context, cursor *core.Cursor) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		cursor.UpdatedAt = time.Now().UTC()
		key := makeCursorKey(ingestCursorName)
		if err := tx.Set(key, storage.MarshalCursor(cursor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCursor retrieves the ingestion cursor.
// Returns nil, nil if no cursor has been saved yet.
func (r *CursorRepository) LoadCursor(ctx context.Context) (*core.Cursor, error) {
	var cursor *core.Cursor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCursorKey(ingestCursorName))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			cursor, unmarshalErr = storage.UnmarshalCursor(val)
			return unmarshalErr
		})
	}, false)

	return cursor, err
}
