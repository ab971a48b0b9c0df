// Package storage defines repository interfaces for the durable index
// representation and MUS serialization helpers for the types that cross
// the storage boundary.
//
// The storage model is intentionally small: records are appended once
// and never mutated (full rebuilds excepted), and a single ingestion
// cursor is persisted next to them so that restart semantics are part
// of the storage contract.
package storage
