package budget

import (
	"fmt"
	"log/slog"
	"math"
	"math/bits"
)

const (
	// GiB is the chunk size available memory is partitioned into.
	GiB uint64 = 1 << 30
	// MiB is one mebibyte.
	MiB uint64 = 1 << 20

	// MaxThreads caps the writer thread count.
	MaxThreads = 8
	// ThreadArenaCeiling is the largest arena one writer thread accepts.
	ThreadArenaCeiling uint64 = 4_293_967_294
	// SmallMachineHeadroom is held back when fewer than two chunks are available.
	SmallMachineHeadroom = 100 * MiB
	// MinArenaBytes is the smallest per-thread arena the writer accepts.
	MinArenaBytes uint64 = 15_000_000
	// DefaultAvailableMemory is assumed when the memory probe fails.
	DefaultAvailableMemory = GiB
)

// Budget is the writer's memory arena and thread count for one build.
type Budget struct {
	ArenaBytes uint64
	Threads    int
}

// PerThread returns the arena share of one writer thread.
func (b Budget) PerThread() uint64 {
	if b.Threads <= 0 {
		return b.ArenaBytes
	}
	return b.ArenaBytes / uint64(b.Threads)
}

// String formats the budget for display.
func (b Budget) String() string {
	return fmt.Sprintf("%d threads, %d bytes", b.Threads, b.ArenaBytes)
}

// Limits are the tunable constants of the budget formula.
type Limits struct {
	MaxThreads           int
	ThreadArenaCeiling   uint64
	SmallMachineHeadroom uint64
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{
		MaxThreads:           MaxThreads,
		ThreadArenaCeiling:   ThreadArenaCeiling,
		SmallMachineHeadroom: SmallMachineHeadroom,
	}
}

// Compute derives a budget from p with the default limits.
func Compute(p Provider) Budget {
	return DefaultLimits().Compute(p)
}

// Compute derives a budget from p.
//
// threads = min(cpus, MaxThreads). With fewer than two whole GiB available the
// arena is available minus the headroom; otherwise it is available * (chunks-1),
// saturating at MaxUint64. The arena is then clamped to threads * ceiling.
// Probe failures fall back to DefaultAvailableMemory and one thread.
func (l Limits) Compute(p Provider) Budget {
	l = l.normalized()

	available, err := p.AvailableMemory()
	if err != nil {
		slog.Warn("budget_memory_probe_failed",
			slog.String("error", err.Error()),
			slog.Uint64("fallback_bytes", DefaultAvailableMemory))
		available = DefaultAvailableMemory
	}

	cpus, err := p.CPUCount()
	if err != nil || cpus <= 0 {
		attrs := []any{slog.Int("cpus", cpus), slog.Int("fallback_threads", 1)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Warn("budget_cpu_probe_failed", attrs...)
		cpus = 1
	}

	threads := min(cpus, l.MaxThreads)

	var arena uint64
	chunks := available / GiB
	if chunks < 2 {
		if available > l.SmallMachineHeadroom {
			arena = available - l.SmallMachineHeadroom
		} else {
			arena = MinArenaBytes
		}
	} else {
		arena = saturatingMul(available, chunks-1)
	}

	arena = min(arena, saturatingMul(uint64(threads), l.ThreadArenaCeiling))

	slog.Info("budget_computed",
		slog.Int("cpus", cpus),
		slog.Uint64("available_bytes", available),
		slog.Int("threads", threads),
		slog.Uint64("arena_bytes", arena))

	return Budget{ArenaBytes: arena, Threads: threads}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxThreads <= 0 {
		l.MaxThreads = def.MaxThreads
	}
	if l.ThreadArenaCeiling == 0 {
		l.ThreadArenaCeiling = def.ThreadArenaCeiling
	}
	if l.SmallMachineHeadroom == 0 {
		l.SmallMachineHeadroom = def.SmallMachineHeadroom
	}
	return l
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
