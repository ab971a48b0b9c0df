package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
//
// Each record is stored twice: once under its content-hash ID and once
// in an ingestion-order index keyed by a monotonic sequence number, so
// AllRecords can reproduce first-seen order deterministically.
type RecordRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) (*RecordRepository, error) {
	seq, err := backend.GetSequence(recordSeqKey)
	if err != nil {
		return nil, err
	}

	return &RecordRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the order sequence.
func (r *RecordRepository) Close() error {
	return r.seq.Release()
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecords persists records as a single atomic batch.
// Records whose ID is already stored are skipped, keeping the first
// ingested version. Returns the newly added records in input order.
func (r *RecordRepository) AddRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	var added []*core.Record

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		added = added[:0]
		batch := make(map[core.ID]struct{}, len(records))

		for _, record := range records {
			if _, dup := batch[record.Id]; dup {
				continue
			}

			key := makeRecordKey(record.Id)
			existing, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			seq, err := r.seq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if seq == 0 {
				seq, err = r.seq.Next()
				if err != nil {
					return err
				}
			}

			if record.IngestedAt.IsZero() {
				record.IngestedAt = time.Now().UTC()
			}

			if err := tx.Set(key, storage.MarshalRecord(record)); err != nil {
				return err
			}
			if err := tx.Set(makeOrderKey(seq), storage.MarshalID(record.Id)); err != nil {
				return err
			}

			batch[record.Id] = struct{}{}
			added = append(added, record)
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateRecords overwrites existing records in place. The ingestion
// order index is untouched: a rebuild replaces embeddings, not order.
func (r *RecordRepository) UpdateRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeRecordKey(record.Id)
			existing, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}

			if err := tx.Set(key, storage.MarshalRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecord retrieves a single record by ID.
func (r *RecordRepository) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	var result *core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple records by their IDs.
// Missing records are silently omitted.
func (r *RecordRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error) {
	var result []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// AllRecords returns every stored record in ingestion order.
func (r *RecordRepository) AllRecords(ctx context.Context) ([]*core.Record, error) {
	var results []*core.Record

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(orderPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			record, err := r.readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			if record == nil {
				// Order entry without a record: the store is corrupt.
				return storage.ErrNotFound
			}
			results = append(results, record)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of stored records.
func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(orderPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readRecord reads and unmarshals a record, returning nil if the key is absent.
func (r *RecordRepository) readRecord(tx *badger.Txn, key []byte) (*core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecord(val)
		return err
	})
	return record, err
}
