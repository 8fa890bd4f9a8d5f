// Package store maps catalog records to bleve documents and owns the
// single-writer session that builds a scorch index on disk.
//
// A Writer holds an exclusive lock file next to the index for its whole
// lifetime, so a second writer on the same path fails fast with
// ErrWriterBusy instead of waiting on the engine's own lock.
package store
