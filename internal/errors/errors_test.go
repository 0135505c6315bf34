package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with GenError
	genErr := New(ErrCodeTemplateNotFound, "template not found: es/bus.go.tmpl", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, genErr)
	assert.Equal(t, originalErr, errors.Unwrap(genErr))
	assert.True(t, errors.Is(genErr, originalErr))
}

func TestGenError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "bad overwrite policy",
			expected: "[ERR_101_CONFIG_INVALID] bad overwrite policy",
		},
		{
			name:     "template error",
			code:     ErrCodeTemplateNotFound,
			message:  "template not found: x",
			expected: "[ERR_301_TEMPLATE_NOT_FOUND] template not found: x",
		},
		{
			name:     "project error",
			code:     ErrCodeModuleOrder,
			message:  "task requires saga",
			expected: "[ERR_404_MODULE_ORDER] task requires saga",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestGenError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeTemplateNotFound, "template A not found", nil)
	err2 := New(ErrCodeTemplateNotFound, "template B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestGenError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeTemplateNotFound, "template not found", nil)
	err2 := New(ErrCodeConfigInvalid, "config invalid", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestGenError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeFilesystem, "write failed", nil).
		WithDetail("path", "/foo/bar.go").
		WithDetail("module", "es")

	assert.Equal(t, "/foo/bar.go", err.Details["path"])
	assert.Equal(t, "es", err.Details["module"])
}

func TestGenError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeBlueprintInvalid, CategoryConfig},
		{ErrCodeFilesystem, CategoryIO},
		{ErrCodeArtifactLocked, CategoryIO},
		{ErrCodeTemplateNotFound, CategoryTemplate},
		{ErrCodeProjectNotInitialized, CategoryProject},
		{ErrCodeModuleOrder, CategoryProject},
		{ErrCodePatchAnchorNotFound, CategoryPatch},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestGenError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeDiskFull, SeverityFatal},
		{ErrCodeTemplateNotFound, SeverityFatal},
		{ErrCodeProjectNotInitialized, SeverityFatal},
		{ErrCodePatchAnchorNotFound, SeverityWarning},
		{ErrCodeFilesystem, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestWrap_CreatesGenErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	genErr := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, genErr)
	assert.Equal(t, ErrCodeInternal, genErr.Code)
	assert.Equal(t, "something went wrong", genErr.Message)
	assert.Equal(t, originalErr, genErr.Cause)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCode_FindsWrappedGenError(t *testing.T) {
	inner := TemplateNotFound("es/bus.go.tmpl", fs.ErrNotExist)
	outer := fmt.Errorf("render: %w", inner)

	assert.Equal(t, ErrCodeTemplateNotFound, GetCode(outer))
	assert.Equal(t, CategoryTemplate, GetCategory(outer))
	assert.True(t, HasCode(outer, ErrCodeTemplateNotFound))
	assert.True(t, IsFatal(outer))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestProjectNotInitialized_CarriesRootAndSuggestion(t *testing.T) {
	err := ProjectNotInitialized("/tmp/p", nil)

	assert.Equal(t, ErrCodeProjectNotInitialized, err.Code)
	assert.Equal(t, "/tmp/p", err.Details["root"])
	assert.NotEmpty(t, err.Suggestion)
}

func TestFilesystemError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"permission", &os.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}, ErrCodeFilePermission},
		{"disk full", &os.PathError{Op: "write", Path: "/x", Err: syscall.ENOSPC}, ErrCodeDiskFull},
		{"not a directory", &os.PathError{Op: "mkdir", Path: "/x", Err: syscall.ENOTDIR}, ErrCodePathCollision},
		{"other", errors.New("boom"), ErrCodeFilesystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FilesystemError("write", "/x", tt.err)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, "/x", err.Details["path"])
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Nil(t, FilesystemError("write", "/x", nil))
}
