// Package index implements the in-memory similarity index: an
// append-only store of embedded records whose queryable state is an
// immutable snapshot swapped atomically under a single writer lock.
//
// The snapshot pointer is the only contended resource in the engine.
// It is swapped, never mutated in place, so an arbitrary number of
// concurrent queries run against consistent views while ingestion
// appends or an out-of-band reload replaces the corpus.
package index
