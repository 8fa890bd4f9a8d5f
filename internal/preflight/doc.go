// Package preflight checks that the host can run an index build before
// one starts.
//
// The package validates:
//   - Disk space at the index location (minimum 100MB)
//   - Available memory, reported with the build budget it yields
//   - Write permission in the directory that will hold the index
//   - File descriptor limits (minimum 1024)
//   - Source catalog readability
//   - Leftovers from an interrupted background build
//
// Checks run concurrently:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{IndexPath: "index", SourcePath: "books.csv"})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
