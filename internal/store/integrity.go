package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// validateIndexIntegrity reports whether an existing index directory looks
// openable. A missing directory is valid: it will be created.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError reports whether an open error means the on-disk index
// is damaged rather than inaccessible.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, bleve.ErrorIndexMetaCorrupt) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt")
}

// clearCorruptIndex removes a damaged index so it can be rebuilt.
func clearCorruptIndex(path string, reason error) error {
	slog.Warn("index_corrupted",
		slog.String("path", path),
		slog.String("error", reason.Error()))

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, err, reason)
	}

	slog.Info("index_cleared",
		slog.String("path", path),
		slog.String("reason", "corruption detected, rebuilding"))
	return nil
}
