package storage

import (
	"context"

	"github.com/relaydesk/ticketrag/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RecordRepository is the durable representation of the index: one row
// per record, re-parsable deterministically back into an in-memory
// snapshot.
type RecordRepository interface {
	Repository

	// AddRecords persists records as a single atomic batch, preserving
	// input order. Records whose ID already exists are skipped
	// (dedupe by id, keep first). Sets IngestedAt on newly added
	// records. Returns only the records that were newly added.
	AddRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error)

	// UpdateRecords overwrites existing records. Used by full rebuilds
	// to replace embeddings; regular ingestion never updates.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error)

	// GetRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.Record, error)

	// GetRecords retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error)

	// AllRecords returns every stored record in ingestion order. This is
	// the input to index reloads, so ordering must be stable across
	// calls and restarts.
	AllRecords(ctx context.Context) ([]*core.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// CursorRepository persists the ingestion cursor alongside the records,
// making restart semantics a documented invariant of the store rather
// than incidental watcher state.
type CursorRepository interface {
	// SaveCursor persists the ingestion cursor. Sets UpdatedAt.
	SaveCursor(ctx context.Context, cursor *core.Cursor) error

	// LoadCursor retrieves the ingestion cursor.
	// Returns nil, nil if no cursor has been saved yet.
	LoadCursor(ctx context.Context) (*core.Cursor, error)
}
