package preflight

import (
	"fmt"

	"github.com/Aman-CERP/booksearch/internal/budget"
)

// MinMemoryBytes is the recommended available memory (1GB). Below it the
// budget falls back to the small machine arena and builds slow down.
const MinMemoryBytes = budget.GiB

// CheckMemory reports available memory and the arena a build would get.
func (c *Checker) CheckMemory() CheckResult {
	result := CheckResult{
		Name: "memory",
	}

	avail, err := c.provider.AvailableMemory()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("probe failed, assuming %s: %v", formatBytes(budget.DefaultAvailableMemory), err)
		return result
	}

	b := budget.Compute(c.provider)
	result.Message = fmt.Sprintf("%s available (recommended: 1 GB)", formatBytes(avail))
	result.Details = "build budget: " + b.String()
	if avail < MinMemoryBytes {
		result.Status = StatusWarn
		return result
	}

	result.Status = StatusPass
	return result
}
