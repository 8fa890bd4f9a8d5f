// Package async runs one unit of work on a background goroutine and
// delivers its outcome to the caller.
package async

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Func is the work a Job runs.
type Func func(ctx context.Context) error

// Config configures a Job.
type Config struct {
	// MarkerPath, if set, is a file that exists while the job runs. A marker
	// left behind means a previous job never finished.
	MarkerPath string
}

// Job runs a Func in a background goroutine. The outcome is available
// from Done and Wait once the goroutine returns.
type Job struct {
	config Config
	fn     Func
	doneCh chan struct{}

	mu      sync.Mutex
	started bool
	running bool
	err     error
}

// NewJob creates a job for fn. It does not start it.
func NewJob(cfg Config, fn Func) *Job {
	return &Job{
		config: cfg,
		fn:     fn,
		doneCh: make(chan struct{}),
	}
}

// Start runs the job in a new goroutine and returns immediately.
// Calls after the first are ignored.
func (j *Job) Start(ctx context.Context) {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return
	}
	j.started = true
	j.running = true
	j.mu.Unlock()

	go j.run(ctx)
}

func (j *Job) run(ctx context.Context) {
	defer close(j.doneCh)

	err := j.execute(ctx)

	j.mu.Lock()
	j.err = err
	j.running = false
	j.mu.Unlock()
}

func (j *Job) execute(ctx context.Context) (err error) {
	if j.config.MarkerPath != "" {
		if err := writeMarker(j.config.MarkerPath); err != nil {
			return err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("background job panicked: %v", r)
			return
		}
		// keep the marker on failure so the incomplete run stays visible
		if err == nil && j.config.MarkerPath != "" {
			_ = os.Remove(j.config.MarkerPath)
		}
	}()

	if j.fn == nil {
		return nil
	}
	return j.fn(ctx)
}

func writeMarker(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0o644); err != nil {
		return fmt.Errorf("failed to write marker: %w", err)
	}
	return nil
}

// IsRunning returns true while the job's goroutine is executing.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.doneCh
}

// Wait blocks until the job finishes and returns its error.
func (j *Job) Wait() error {
	<-j.doneCh
	return j.Err()
}

// Err returns the job's error, or nil if it succeeded or is still running.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// HasIncompleteMarker reports whether a marker from an unfinished job exists.
func HasIncompleteMarker(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
