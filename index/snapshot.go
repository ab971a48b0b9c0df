package index

import "github.com/relaydesk/ticketrag/core"

// Snapshot is an immutable, point-in-time view of the indexed corpus:
// records in ingestion order plus a parallel matrix of unit-normalized
// embeddings, row i belonging to record i.
//
// Snapshots are never mutated after construction. Readers holding a
// snapshot are unaffected by concurrent appends or reloads.
type Snapshot struct {
	records []*core.Record
	vectors [][]float32
	dim     int
}

// Len returns the number of indexed records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Dim returns the vector dimension of the snapshot.
func (s *Snapshot) Dim() int {
	return s.dim
}

// Record returns the record at position i in ingestion order.
func (s *Snapshot) Record(i int) *core.Record {
	return s.records[i]
}

// Vector returns the unit-normalized embedding for the record at
// position i. Callers must not modify the returned slice.
func (s *Snapshot) Vector(i int) []float32 {
	return s.vectors[i]
}

// Records returns all records in ingestion order.
// Callers must not modify the returned slice.
func (s *Snapshot) Records() []*core.Record {
	return s.records
}
