package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"

	"github.com/Aman-CERP/booksearch/internal/budget"
	apperrors "github.com/Aman-CERP/booksearch/internal/errors"
)

// ErrFinalized is returned when a writer is used after Finalize.
var ErrFinalized = errors.New("index writer already finalized")

// MergePolicy selects how segments are consolidated at finalize.
type MergePolicy int

const (
	// MergeAlways merges the index down to a single segment after commit.
	MergeAlways MergePolicy = iota
	// MergeDefault leaves consolidation to the engine's background merger.
	MergeDefault
)

// String returns the configuration name of the policy.
func (p MergePolicy) String() string {
	switch p {
	case MergeAlways:
		return "always"
	case MergeDefault:
		return "default"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy parses "always" or "default".
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always", "":
		return MergeAlways, nil
	case "default":
		return MergeDefault, nil
	default:
		return MergeAlways, fmt.Errorf("unknown merge policy %q (want always or default)", s)
	}
}

// FinalizeStep identifies a phase of Finalize.
type FinalizeStep int

const (
	StepCommit FinalizeStep = iota
	StepMerge
)

// Writer is the single write session on an index.
// It is not safe for concurrent use; one goroutine owns it.
type Writer struct {
	path      string
	lock      *indexLock
	index     bleve.Index
	batch     *bleve.Batch
	flushAt   uint64
	policy    MergePolicy
	onStep    func(FinalizeStep)
	pending   int
	finalized bool
	closed    bool
}

// OpenWriter locks the index at path and opens it for writing, creating it
// if needed. The budget sizes the scorch persister workers and the pending
// batch. A held lock fails immediately with an ERR_207 error wrapping
// ErrWriterBusy.
func OpenWriter(path string, b budget.Budget) (*Writer, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidPath, "index path is empty", nil)
	}

	lock := newIndexLock(path)
	if err := lock.tryLock(false); err != nil {
		code := apperrors.ErrCodeIndexOpenFailed
		if errors.Is(err, ErrWriterBusy) {
			code = apperrors.ErrCodeWriterBusy
		}
		return nil, apperrors.IndexError(code, path, err).
			WithSuggestion("Wait for the running build to finish or choose another index path")
	}

	idx, err := openOrCreate(path, persisterConfig(b))
	if err != nil {
		_ = lock.unlock()
		return nil, apperrors.IndexError(apperrors.ErrCodeIndexOpenFailed, path, err)
	}

	w := &Writer{
		path:    path,
		lock:    lock,
		index:   idx,
		batch:   idx.NewBatch(),
		flushAt: max(b.PerThread(), budget.MinArenaBytes),
		policy:  MergeAlways,
	}

	slog.Debug("index_writer_opened",
		slog.String("path", path),
		slog.Int("threads", b.Threads),
		slog.Uint64("arena_bytes", b.ArenaBytes),
		slog.Uint64("flush_at_bytes", w.flushAt))

	return w, nil
}

// persisterConfig maps the budget onto scorch's persister options.
func persisterConfig(b budget.Budget) map[string]interface{} {
	perWorker := b.PerThread()
	if perWorker > math.MaxInt32 {
		perWorker = math.MaxInt32
	}
	return map[string]interface{}{
		"scorchPersisterOptions": map[string]interface{}{
			"NumPersisterWorkers":           max(b.Threads, 1),
			"MaxSizeInMemoryMergePerWorker": int(perWorker),
		},
	}
}

// openOrCreate opens the scorch index at path, clearing it first if it is
// corrupt, and creates it if absent.
func openOrCreate(path string, cfg map[string]interface{}) (bleve.Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	if validErr := validateIndexIntegrity(path); validErr != nil {
		if err := clearCorruptIndex(path, validErr); err != nil {
			return nil, err
		}
	}

	idx, err := bleve.OpenUsing(path, cfg)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return bleve.NewUsing(path, NewBookMapping(), scorch.Name, scorch.Name, cfg)
	}
	if err != nil && isCorruptionError(err) {
		if clearErr := clearCorruptIndex(path, err); clearErr != nil {
			return nil, clearErr
		}
		return bleve.NewUsing(path, NewBookMapping(), scorch.Name, scorch.Name, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// Path returns the index directory.
func (w *Writer) Path() string {
	return w.path
}

// SetMergePolicy selects the policy applied by Finalize.
func (w *Writer) SetMergePolicy(p MergePolicy) {
	w.policy = p
}

// MergePolicy returns the selected policy.
func (w *Writer) MergePolicy() MergePolicy {
	return w.policy
}

// OnFinalizeStep registers fn to be called before each Finalize step.
func (w *Writer) OnFinalizeStep(fn func(FinalizeStep)) {
	w.onStep = fn
}

// Add stages doc under id. An error rejecting the document is recoverable:
// the session stays usable. When the staged batch reaches the per-thread
// arena it is applied; a failed flush is returned as an ERR_208 error and
// is fatal.
func (w *Writer) Add(id string, doc Document) error {
	if w.finalized || w.closed {
		return ErrFinalized
	}

	if err := w.batch.Index(id, doc); err != nil {
		return apperrors.New(apperrors.ErrCodeDocRejected,
			fmt.Sprintf("document %s rejected: %v", id, err), err).
			WithDetail("doc_id", id)
	}
	w.pending++

	if w.batch.TotalDocsSize() >= w.flushAt {
		if err := w.flush(); err != nil {
			return apperrors.IndexError(apperrors.ErrCodeCommitFailed, w.path, err)
		}
	}
	return nil
}

// flush applies the staged batch. Scorch batches are durable on return.
func (w *Writer) flush() error {
	if w.pending == 0 {
		return nil
	}
	size := w.batch.TotalDocsSize()
	if err := w.index.Batch(w.batch); err != nil {
		return fmt.Errorf("failed to apply batch of %d documents: %w", w.pending, err)
	}
	slog.Debug("index_batch_applied",
		slog.String("path", w.path),
		slog.Int("documents", w.pending),
		slog.Uint64("bytes", size))
	w.batch.Reset()
	w.pending = 0
	return nil
}

// Finalize commits staged documents and then waits for segment merging
// under the selected policy. It may be called once; later calls return
// ErrFinalized. The index is closed on return and the lock is still held
// until Close.
func (w *Writer) Finalize(ctx context.Context) error {
	if w.finalized || w.closed {
		return ErrFinalized
	}
	w.finalized = true

	w.step(StepCommit)
	if err := w.flush(); err != nil {
		return apperrors.IndexError(apperrors.ErrCodeCommitFailed, w.path, err)
	}

	w.step(StepMerge)
	if err := w.waitMerges(ctx); err != nil {
		return apperrors.IndexError(apperrors.ErrCodeMergeFailed, w.path, err)
	}
	return nil
}

func (w *Writer) step(s FinalizeStep) {
	if w.onStep != nil {
		w.onStep(s)
	}
}

// waitMerges blocks until merging for the policy is done and closes the
// index. Closing scorch drains its merger and persister goroutines.
func (w *Writer) waitMerges(ctx context.Context) error {
	if w.policy == MergeAlways {
		if err := w.forceMerge(ctx); err != nil {
			_ = w.index.Close()
			w.index = nil
			return err
		}
	}

	err := w.index.Close()
	w.index = nil
	if err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}

// forceMerge merges all persisted segments into one.
func (w *Writer) forceMerge(ctx context.Context) error {
	adv, err := w.index.Advanced()
	if err != nil {
		return fmt.Errorf("failed to access index internals: %w", err)
	}
	sc, ok := adv.(*scorch.Scorch)
	if !ok {
		return fmt.Errorf("index at %s is not a scorch index", w.path)
	}

	opts := mergeplan.SingleSegmentMergePlanOptions
	if err := sc.ForceMerge(ctx, &opts); err != nil {
		return fmt.Errorf("force merge failed: %w", err)
	}
	slog.Debug("index_force_merged", slog.String("path", w.path))
	return nil
}

// Close releases the index and the lock. It does not commit staged
// documents. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if w.index != nil {
		errs = append(errs, w.index.Close())
		w.index = nil
	}
	errs = append(errs, w.lock.unlock())
	return errors.Join(errs...)
}
