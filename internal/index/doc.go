// Package index builds a book search index from a CSV catalog.
//
// A build moves through Idle, Counting, Streaming, Committing, Merging and
// Done, or stops in Failed on a fatal error. Rows that fail to decode and
// documents the engine rejects are counted in the Report; they never fail
// the build.
//
// Build runs on the caller's goroutine. BuildBackground counts rows and
// opens the writer before returning, then streams and finalizes on its own
// goroutine; the returned *Build exposes the live Progress and the outcome.
package index
