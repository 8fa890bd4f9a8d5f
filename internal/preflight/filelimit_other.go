//go:build !unix

package preflight

// MinFileDescriptors is the minimum file descriptor limit.
const MinFileDescriptors = 1024

// CheckFileDescriptors is a no-op where rlimits do not exist.
func (c *Checker) CheckFileDescriptors() CheckResult {
	return CheckResult{
		Name:    "file_descriptors",
		Status:  StatusPass,
		Message: "not applicable on this platform",
	}
}
