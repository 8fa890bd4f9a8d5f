package preflight

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/booksearch/internal/async"
	"github.com/Aman-CERP/booksearch/internal/catalog"
	"github.com/Aman-CERP/booksearch/internal/index"
)

// CheckSource verifies the catalog file can be opened and counts its rows.
func (c *Checker) CheckSource(path string) CheckResult {
	result := CheckResult{
		Name:     "source",
		Required: true,
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat %s: %v", path, err)
		return result
	case info.IsDir():
		result.Status = StatusFail
		result.Message = path + " is a directory"
		return result
	}

	rows, err := catalog.CountRows(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s: %v", path, err)
		return result
	}

	result.Message = fmt.Sprintf("%d rows, %s", rows, formatBytes(uint64(info.Size())))
	if rows == 0 {
		result.Status = StatusWarn
		result.Message = "source is empty"
		return result
	}

	result.Status = StatusPass
	return result
}

// CheckIncompleteBuild warns when a background build left its marker behind.
func (c *Checker) CheckIncompleteBuild(indexPath string) CheckResult {
	result := CheckResult{
		Name: "previous_build",
	}

	marker := index.MarkerPath(indexPath)
	if async.HasIncompleteMarker(marker) {
		result.Status = StatusWarn
		result.Message = "a previous build did not finish"
		result.Details = "Rebuild the index; the marker is " + marker
		return result
	}

	result.Status = StatusPass
	result.Message = "OK"
	return result
}
