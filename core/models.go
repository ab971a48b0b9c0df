package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed records.
// It is derived from the source identifier by content hashing, so the
// same ticket always maps to the same ID across restarts and rebuilds.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is one immutable unit of ingested knowledge: the ticket text
// that was embedded, its metadata, and the embedding vector produced at
// ingestion time. Records are never mutated after ingestion; they are
// replaced only by a full index rebuild.
type Record struct {
	Id         ID
	SourceID   string            // External identifier, e.g. "TKT-000042"
	Text       string            // Combined text that was embedded
	Timestamp  time.Time         // Arrival timestamp reported by the source
	IngestedAt time.Time         // When the record entered the store
	Metadata   map[string]string // Ingestion-time attributes, opaque to retrieval
	Vector     []float32         // Unit-normalized embedding (populated by the pipeline)
}

// SearchResult represents a retrieval hit with its cosine similarity score.
type SearchResult struct {
	Record *Record
	Score  float32
}

// Cursor marks the ingestion frontier of a record source.
//
// LastTimestamp is the highest arrival timestamp the watcher has fully
// processed. SeenIDs holds the source IDs observed at exactly that
// timestamp, so items sharing the boundary timestamp are delivered once
// each even across restarts.
type Cursor struct {
	LastTimestamp time.Time
	SeenIDs       []string
	UpdatedAt     time.Time
}

// Admits reports whether an item with the given timestamp and source ID
// lies beyond the cursor and should be ingested.
func (c *Cursor) Admits(ts time.Time, sourceID string) bool {
	if c == nil {
		return true
	}
	if ts.After(c.LastTimestamp) {
		return true
	}
	if !ts.Equal(c.LastTimestamp) {
		return false
	}
	for _, id := range c.SeenIDs {
		if id == sourceID {
			return false
		}
	}
	return true
}

// Advance moves the cursor past an item. Items at a newer timestamp
// reset the boundary set; items at the boundary timestamp extend it.
func (c *Cursor) Advance(ts time.Time, sourceID string) {
	if ts.After(c.LastTimestamp) {
		c.LastTimestamp = ts
		c.SeenIDs = c.SeenIDs[:0]
	}
	if ts.Equal(c.LastTimestamp) {
		c.SeenIDs = append(c.SeenIDs, sourceID)
	}
}
