// Package errors provides structured error handling for booksearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and index storage errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

import (
	stderrors "errors"
	"io/fs"
)

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and index storage errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull        = "ERR_203_DISK_FULL"
	ErrCodeCorruptIndex    = "ERR_204_CORRUPT_INDEX"
	ErrCodeIndexOpenFailed = "ERR_205_INDEX_OPEN_FAILED"
	ErrCodeSourceRead      = "ERR_206_SOURCE_READ"
	ErrCodeWriterBusy      = "ERR_207_WRITER_BUSY"
	ErrCodeCommitFailed    = "ERR_208_COMMIT_FAILED"
	ErrCodeMergeFailed     = "ERR_209_MERGE_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeRowDecode    = "ERR_402_ROW_DECODE"
	ErrCodeDocRejected  = "ERR_403_DOCUMENT_REJECTED"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeDiskFull, ErrCodeCommitFailed, ErrCodeMergeFailed,
		ErrCodeIndexOpenFailed, ErrCodeWriterBusy, ErrCodeSourceRead,
		ErrCodeFileNotFound, ErrCodeFilePermission:
		return SeverityFatal
	case ErrCodeRowDecode, ErrCodeDocRejected:
		// skipped and reported, the build keeps going
		return SeverityWarning
	}
	return SeverityError
}

func isPermission(err error) bool {
	return stderrors.Is(err, fs.ErrPermission)
}
