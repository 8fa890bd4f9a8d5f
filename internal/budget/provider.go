package budget

import (
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Provider reports the resources the budget is derived from.
type Provider interface {
	// AvailableMemory returns memory available to new allocations, in bytes.
	AvailableMemory() (uint64, error)
	// CPUCount returns the number of logical CPUs.
	CPUCount() (int, error)
}

// SystemProvider reads host resources with gopsutil.
// The first successful probe of each kind is cached for the provider's lifetime.
type SystemProvider struct {
	mu      sync.Mutex
	memInfo *mem.VirtualMemoryStat
	cpus    int
}

var _ Provider = (*SystemProvider)(nil)

// NewSystemProvider returns a provider backed by the live host.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

// AvailableMemory returns mem.VirtualMemory().Available.
func (s *SystemProvider) AvailableMemory() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memInfo == nil {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return 0, err
		}
		s.memInfo = vm
	}
	return s.memInfo.Available, nil
}

// CPUCount returns the logical CPU count.
func (s *SystemProvider) CPUCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cpus == 0 {
		n, err := cpu.Counts(true)
		if err != nil {
			return 0, err
		}
		s.cpus = n
	}
	return s.cpus, nil
}

// StaticProvider returns fixed values. A non-nil error field is returned by
// the matching probe instead of the value.
type StaticProvider struct {
	Memory    uint64
	CPUs      int
	MemoryErr error
	CPUErr    error
}

var _ Provider = StaticProvider{}

// AvailableMemory implements Provider.
func (p StaticProvider) AvailableMemory() (uint64, error) {
	if p.MemoryErr != nil {
		return 0, p.MemoryErr
	}
	return p.Memory, nil
}

// CPUCount implements Provider.
func (p StaticProvider) CPUCount() (int, error) {
	if p.CPUErr != nil {
		return 0, p.CPUErr
	}
	return p.CPUs, nil
}
