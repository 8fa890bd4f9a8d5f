package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/booksearch/internal/async"
	"github.com/Aman-CERP/booksearch/internal/budget"
	"github.com/Aman-CERP/booksearch/internal/catalog"
	apperrors "github.com/Aman-CERP/booksearch/internal/errors"
	"github.com/Aman-CERP/booksearch/internal/store"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

// Options configures a Builder.
type Options struct {
	// IndexPath is the index directory to write (required).
	IndexPath string

	// MergePolicy is applied at finalize. The zero value is store.MergeAlways
	// for both build modes.
	MergePolicy store.MergePolicy

	// Limits bound the resource budget; zero fields use the defaults.
	Limits budget.Limits

	// Provider supplies the resource snapshot (default: the live host).
	Provider budget.Provider

	// OnState, if set, is called on every state transition. Progress is nil
	// until the build reaches Streaming. In background mode it runs on the
	// build goroutine.
	OnState func(State, *ui.Progress)
}

// Report summarizes one build. Added + DecodeErrors + AddErrors == Consumed.
type Report struct {
	Source       string
	Index        string
	Rows         uint64 // counted before streaming
	Consumed     uint64 // rows read while streaming
	Added        uint64
	DecodeErrors uint64
	AddErrors    uint64
	State        State
	Duration     time.Duration
	Budget       budget.Budget
}

// Summary converts the report for display.
func (r Report) Summary(err error) ui.Summary {
	return ui.Summary{
		Source:       r.Source,
		Index:        r.Index,
		State:        r.State.String(),
		Rows:         r.Rows,
		Consumed:     r.Consumed,
		Added:        r.Added,
		DecodeErrors: r.DecodeErrors,
		AddErrors:    r.AddErrors,
		Duration:     r.Duration,
		Threads:      r.Budget.Threads,
		ArenaBytes:   r.Budget.ArenaBytes,
		Err:          err,
	}
}

// Builder builds indexes. It holds no per-build state and may be reused.
type Builder struct {
	opts     Options
	provider budget.Provider
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	provider := opts.Provider
	if provider == nil {
		provider = budget.NewSystemProvider()
	}
	return &Builder{opts: opts, provider: provider}
}

// Build indexes source on the calling goroutine and returns once the index
// is committed and merged, or on the first fatal error.
func (b *Builder) Build(ctx context.Context, source string) (Report, error) {
	r := b.newRun(source)
	if err := r.prepare(); err != nil {
		return r.report, err
	}
	err := r.execute(ctx)
	return r.report, err
}

// BuildBackground counts rows and opens the writer, then streams and
// finalizes on a new goroutine. Source and writer errors are returned
// directly; later failures are delivered by Build.Wait.
func (b *Builder) BuildBackground(ctx context.Context, source string) (*Build, error) {
	r := b.newRun(source)
	if err := r.prepare(); err != nil {
		return nil, err
	}

	job := async.NewJob(async.Config{MarkerPath: MarkerPath(b.opts.IndexPath)}, r.execute)
	job.Start(ctx)

	return &Build{run: r, job: job}, nil
}

// MarkerPath is the file present while a background build of the index at
// indexPath is running, and left behind if it fails.
func MarkerPath(indexPath string) string {
	return filepath.Clean(indexPath) + ".building"
}

// Build is a build running in the background.
type Build struct {
	run *run
	job *async.Job
}

// Progress returns the live progress handle. Its total is set.
func (b *Build) Progress() *ui.Progress {
	return b.run.progress
}

// State returns the current state.
func (b *Build) State() State {
	return b.run.state()
}

// Done is closed once the build reaches Done or Failed.
func (b *Build) Done() <-chan struct{} {
	return b.job.Done()
}

// Wait blocks until the build finishes and returns its report and fatal error.
func (b *Build) Wait() (Report, error) {
	err := b.job.Wait()
	return b.run.report, err
}

// run is the state of one build. After prepare returns, a single goroutine
// owns it; only cur and the progress counter are read concurrently.
type run struct {
	opts     Options
	provider budget.Provider
	source   string
	start    time.Time

	cur      atomic.Int32
	progress *ui.Progress
	reader   *catalog.Reader
	writer   *store.Writer
	report   Report
}

func (b *Builder) newRun(source string) *run {
	return &run{
		opts:     b.opts,
		provider: b.provider,
		source:   source,
		start:    time.Now(),
		report:   Report{Source: source, Index: b.opts.IndexPath, State: StateIdle},
	}
}

func (r *run) state() State {
	return State(r.cur.Load())
}

func (r *run) setState(s State) {
	prev := State(r.cur.Swap(int32(s)))
	r.report.State = s
	slog.Debug("build_state",
		slog.String("source", r.source),
		slog.String("from", prev.String()),
		slog.String("to", s.String()))
	if r.opts.OnState != nil {
		r.opts.OnState(s, r.progress)
	}
}

// prepare runs Counting: it sizes progress, computes the budget and opens
// the reader and then the writer.
func (r *run) prepare() error {
	r.setState(StateCounting)

	rows, err := catalog.CountRows(r.source)
	if err != nil {
		return r.fail(apperrors.SourceError(r.source, err))
	}
	r.report.Rows = rows

	r.report.Budget = r.opts.Limits.Compute(r.provider)

	reader, err := catalog.Open(r.source)
	if err != nil {
		return r.fail(apperrors.SourceError(r.source, err))
	}
	r.reader = reader

	writer, err := store.OpenWriter(r.opts.IndexPath, r.report.Budget)
	if err != nil {
		return r.fail(err)
	}
	writer.SetMergePolicy(r.opts.MergePolicy)
	writer.OnFinalizeStep(func(s store.FinalizeStep) {
		switch s {
		case store.StepCommit:
			r.setState(StateCommitting)
		case store.StepMerge:
			r.setState(StateMerging)
		}
	})
	r.writer = writer

	r.progress = ui.NewProgress(rows, "Indexing "+r.source)

	slog.Info("build_started",
		slog.String("source", r.source),
		slog.String("index", r.opts.IndexPath),
		slog.Uint64("rows", rows),
		slog.Int("threads", r.report.Budget.Threads),
		slog.Uint64("arena_bytes", r.report.Budget.ArenaBytes),
		slog.String("merge_policy", r.opts.MergePolicy.String()))

	return nil
}

// execute runs Streaming through Done.
func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = r.fail(apperrors.InternalError(fmt.Sprintf("build panicked: %v", p), nil))
		}
	}()

	r.setState(StateStreaming)

	if err := r.stream(); err != nil {
		return r.fail(err)
	}

	if err := r.writer.Finalize(ctx); err != nil {
		return r.fail(err)
	}

	r.release()
	r.report.Duration = time.Since(r.start)
	r.progress.Finish()
	r.setState(StateDone)

	slog.Info("build_completed",
		slog.String("source", r.source),
		slog.String("index", r.opts.IndexPath),
		slog.Uint64("added", r.report.Added),
		slog.Uint64("decode_errors", r.report.DecodeErrors),
		slog.Uint64("add_errors", r.report.AddErrors),
		slog.Duration("duration", r.report.Duration))

	return nil
}

// stream feeds every row to the writer. Only source read failures and
// writer flush failures are returned.
func (r *run) stream() error {
	for {
		rec, err := r.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var decodeErr *catalog.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			r.report.DecodeErrors++
			slog.Warn("row_decode_failed",
				slog.String("source", r.source),
				slog.Uint64("row", decodeErr.Row),
				slog.String("column", decodeErr.Column),
				slog.String("error", decodeErr.Err.Error()))
		case err != nil:
			r.report.Consumed = r.reader.Rows()
			return apperrors.New(apperrors.ErrCodeSourceRead,
				fmt.Sprintf("failed to read %s", r.source), err).
				WithDetail("path", r.source)
		default:
			if err := r.add(rec); err != nil {
				r.report.Consumed = r.reader.Rows()
				return err
			}
		}

		r.progress.Advance(1)
	}

	r.report.Consumed = r.reader.Rows()
	if r.report.Consumed != r.report.Rows {
		slog.Warn("row_count_mismatch",
			slog.String("source", r.source),
			slog.Uint64("counted", r.report.Rows),
			slog.Uint64("consumed", r.report.Consumed))
	}
	return nil
}

// add maps rec and hands it to the writer under its row number. A rejected
// document is counted; any other writer error is returned and is fatal.
func (r *run) add(rec *catalog.Record) error {
	id := strconv.FormatUint(r.reader.Rows(), 10)
	err := r.writer.Add(id, store.MapRecord(*rec))
	if err == nil {
		r.report.Added++
		return nil
	}
	if apperrors.GetCode(err) == apperrors.ErrCodeDocRejected {
		r.report.AddErrors++
		slog.Warn("document_rejected",
			slog.String("source", r.source),
			slog.String("doc_id", id),
			slog.Uint64("record_id", rec.ID),
			slog.String("error", err.Error()))
		return nil
	}
	return err
}

// fail moves the build to Failed, logs err and releases the reader and
// writer. It returns err.
func (r *run) fail(err error) error {
	r.release()
	r.report.Duration = time.Since(r.start)
	if r.progress != nil {
		r.progress.Finish()
	}
	r.setState(StateFailed)

	attrs := append([]any{
		slog.String("source", r.source),
		slog.String("index", r.opts.IndexPath),
	}, apperrors.LogAttrs(err)...)
	slog.Error("build_failed", attrs...)

	return err
}

// release closes the reader and writer, logging close failures.
func (r *run) release() {
	if r.reader != nil {
		if err := r.reader.Close(); err != nil {
			slog.Warn("source_close_failed", slog.String("source", r.source), slog.String("error", err.Error()))
		}
		r.reader = nil
	}
	if r.writer != nil {
		if err := r.writer.Close(); err != nil {
			slog.Warn("index_writer_close_failed", slog.String("index", r.opts.IndexPath), slog.String("error", err.Error()))
		}
		r.writer = nil
	}
}
