package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	plainBarWidth        = 40
	defaultPlainInterval = time.Second
)

// PlainRenderer prints a progress line per poll (for CI and pipes).
// Lines are only printed when the position moved.
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	interval time.Duration
	progress *Progress
	stage    string
	printed  uint64
	any      bool
	stop     chan struct{}
	done     chan struct{}
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPlainInterval
	}
	return &PlainRenderer{out: cfg.Output, interval: interval}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context, p *Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return nil
	}
	r.progress = p
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.poll(ctx, r.stop, r.done)
	return nil
}

func (r *PlainRenderer) poll(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Render()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Render prints the current progress line if the position changed since
// the last line.
func (r *PlainRenderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderLocked()
}

func (r *PlainRenderer) renderLocked() {
	if r.progress == nil {
		return
	}
	cur := r.progress.Current()
	if r.any && cur == r.printed {
		return
	}
	r.printed = cur
	r.any = true
	_, _ = fmt.Fprintln(r.out, r.progress.Line(plainBarWidth))
}

// SetStage implements Renderer.
func (r *PlainRenderer) SetStage(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stage == r.stage {
		return
	}
	r.stage = stage
	_, _ = fmt.Fprintf(r.out, "[%s]\n", stage)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.renderLocked()

	if s.Err != nil {
		_, _ = fmt.Fprintf(r.out, "Failed: %s after %s: %v\n",
			s.Source, s.Duration.Round(100*time.Millisecond), s.Err)
		return
	}

	_, _ = fmt.Fprintf(r.out, "Complete: %d documents indexed from %d rows in %s",
		s.Added, s.Consumed, s.Duration.Round(100*time.Millisecond))
	if s.DecodeErrors > 0 || s.AddErrors > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d decode errors, %d rejected)", s.DecodeErrors, s.AddErrors)
	}
	_, _ = fmt.Fprintln(r.out)
	if s.Index != "" {
		_, _ = fmt.Fprintf(r.out, "Index: %s\n", s.Index)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop = nil
	r.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
