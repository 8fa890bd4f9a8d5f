package ui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Progress is a lock-free row counter with a fixed total. One goroutine
// advances it; any number of goroutines may read it.
type Progress struct {
	current  atomic.Uint64
	finished atomic.Int64 // unix nanos, 0 while running
	total    uint64
	label    string
	start    time.Time
}

// NewProgress creates a handle counting up to total.
func NewProgress(total uint64, label string) *Progress {
	return &Progress{total: total, label: label, start: time.Now()}
}

// Advance adds n to the current position.
func (p *Progress) Advance(n uint64) {
	p.current.Add(n)
}

// Current returns the current position.
func (p *Progress) Current() uint64 {
	return p.current.Load()
}

// Total returns the fixed total.
func (p *Progress) Total() uint64 {
	return p.total
}

// Label returns the display message.
func (p *Progress) Label() string {
	return p.label
}

// Finish marks the counter done. The position is left as is; the source
// can hold fewer rows than were counted.
func (p *Progress) Finish() {
	p.finished.CompareAndSwap(0, time.Now().UnixNano())
}

// Finished reports whether Finish was called.
func (p *Progress) Finished() bool {
	return p.finished.Load() != 0
}

// Elapsed returns time since creation, frozen once finished.
func (p *Progress) Elapsed() time.Duration {
	if at := p.finished.Load(); at != 0 {
		return time.Unix(0, at).Sub(p.start)
	}
	return time.Since(p.start)
}

// Fraction returns current/total clamped to [0, 1]. An empty total reads
// as complete once finished.
func (p *Progress) Fraction() float64 {
	if p.total == 0 {
		if p.Finished() {
			return 1
		}
		return 0
	}
	f := float64(p.Current()) / float64(p.total)
	if f > 1 {
		return 1
	}
	return f
}

// Line renders "[hh:mm:ss] bar pos/len label" with a bar barWidth cells wide.
func (p *Progress) Line(barWidth int) string {
	return fmt.Sprintf("[%s] %s %7d/%-7d %s",
		formatElapsed(p.Elapsed()), renderBar(p.Fraction(), barWidth),
		p.Current(), p.total, p.label)
}

func renderBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatElapsed formats d as hh:mm:ss.
func formatElapsed(d time.Duration) string {
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// rateMeter samples a Progress and keeps smoothed throughput.
// Not safe for concurrent use; each renderer owns one.
type rateMeter struct {
	last    uint64
	lastAt  time.Time
	current float64
	avg     float64
	peak    float64
	samples int
}

// minSampleInterval keeps single-tick jitter out of the rate.
const minSampleInterval = 500 * time.Millisecond

func newRateMeter(now time.Time) *rateMeter {
	return &rateMeter{lastAt: now}
}

// observe records position at now.
func (m *rateMeter) observe(position uint64, now time.Time) {
	elapsed := now.Sub(m.lastAt)
	if elapsed < minSampleInterval {
		return
	}
	if position > m.last {
		speed := float64(position-m.last) / elapsed.Seconds()
		m.current = speed
		m.samples++
		if m.samples == 1 {
			m.avg = speed
		} else {
			m.avg = 0.2*speed + 0.8*m.avg
		}
		m.peak = max(m.peak, speed)
	} else {
		m.current = 0
	}
	m.last = position
	m.lastAt = now
}

// eta estimates time to reach total at the average rate.
func (m *rateMeter) eta(position, total uint64) time.Duration {
	if m.avg <= 0 || position >= total {
		return 0
	}
	return time.Duration(float64(total-position) / m.avg * float64(time.Second))
}
