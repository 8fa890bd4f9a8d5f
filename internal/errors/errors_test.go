package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with AppError
	appErr := New(ErrCodeFileNotFound, "file not found: books.csv", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, appErr)
	assert.Equal(t, originalErr, errors.Unwrap(appErr))
	assert.True(t, errors.Is(appErr, originalErr))
}

func TestAppError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "books.csv not found",
			expected: "[ERR_201_FILE_NOT_FOUND] books.csv not found",
		},
		{
			name:     "writer busy",
			code:     ErrCodeWriterBusy,
			message:  "index is locked",
			expected: "[ERR_207_WRITER_BUSY] index is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeCommitFailed, "commit A failed", nil)
	err2 := New(ErrCodeCommitFailed, "commit B failed", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeMergeFailed, "merge", nil)))
}

func TestAppError_Is_ThroughFmtWrapping(t *testing.T) {
	// Given: an AppError wrapped by fmt.Errorf
	wrapped := fmt.Errorf("build failed: %w", New(ErrCodeWriterBusy, "locked", nil))

	// Then: errors.Is still matches by code
	assert.True(t, errors.Is(wrapped, &AppError{Code: ErrCodeWriterBusy}))
}

func TestAppError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil).
		WithDetail("path", "/data/books.csv").
		WithDetail("row", "12")

	assert.Equal(t, "/data/books.csv", err.Details["path"])
	assert.Equal(t, "12", err.Details["row"])
}

func TestAppError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeWriterBusy, CategoryIO},
		{ErrCodeMergeFailed, CategoryIO},
		{ErrCodeRowDecode, CategoryValidation},
		{ErrCodeDocRejected, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestAppError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeCommitFailed, SeverityFatal},
		{ErrCodeMergeFailed, SeverityFatal},
		{ErrCodeWriterBusy, SeverityFatal},
		{ErrCodeFileNotFound, SeverityFatal},
		{ErrCodeRowDecode, SeverityWarning},
		{ErrCodeDocRejected, SeverityWarning},
		{ErrCodeConfigInvalid, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestSourceError_ClassifiesPermission(t *testing.T) {
	// Given: a permission failure and a missing-file failure
	permErr := SourceError("books.csv", &fs.PathError{Op: "open", Path: "books.csv", Err: fs.ErrPermission})
	missingErr := SourceError("books.csv", &fs.PathError{Op: "open", Path: "books.csv", Err: fs.ErrNotExist})

	// Then: codes differ, both are fatal
	assert.Equal(t, ErrCodeFilePermission, permErr.Code)
	assert.Equal(t, ErrCodeFileNotFound, missingErr.Code)
	assert.True(t, IsFatal(permErr))
	assert.True(t, IsFatal(missingErr))
	assert.Equal(t, "books.csv", missingErr.Details["path"])
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCode_NonAppError(t *testing.T) {
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	err := New(ErrCodeWriterBusy, "index is locked", nil).WithSuggestion("Wait for the other build")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: index is locked")
	assert.Contains(t, out, "Hint: Wait for the other build")
	assert.Contains(t, out, "Code: ERR_207_WRITER_BUSY")
}

func TestFormatForUser_StandardError(t *testing.T) {
	assert.Equal(t, "plain", FormatForUser(errors.New("plain"), false))
	assert.Equal(t, "", FormatForUser(nil, true))
}

func TestFormatJSON_WithCause(t *testing.T) {
	err := New(ErrCodeCommitFailed, "commit failed", errors.New("disk gone"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeCommitFailed, decoded["code"])
	assert.Equal(t, "disk gone", decoded["cause"])
	assert.Equal(t, "FATAL", decoded["severity"])
}

func TestLogAttrs_IncludesCodeAndDetails(t *testing.T) {
	err := New(ErrCodeRowDecode, "bad row", nil).WithDetail("row", "3")

	attrs := LogAttrs(err)

	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeRowDecode)
	assert.Contains(t, attrs, "detail_row")
	assert.Equal(t, []any{"error", "plain"}, LogAttrs(errors.New("plain")))
}
