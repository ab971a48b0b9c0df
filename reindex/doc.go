// Package reindex provides functionality for re-embedding stored
// tickets with a new or updated embedding model.
//
// This package supports batch processing of records, progress tracking,
// retry logic with exponential backoff, and an atomic reload of the
// in-memory index once every vector has been rewritten.
package reindex
