// Package logging provides structured slog logging for booksearch.
//
// By default only warnings and errors go to stderr as text. With --debug,
// JSON logs are also written to ~/.booksearch/logs/booksearch.log with
// size-based rotation.
package logging
