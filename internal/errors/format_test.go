package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	err := New(ErrCodeTemplateNotFound, "template not found: es/bus.go.tmpl", nil)

	result := FormatForUser(err, false)

	assert.Contains(t, result, "template not found: es/bus.go.tmpl")
	assert.Contains(t, result, "[ERR_301_TEMPLATE_NOT_FOUND]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeModuleOrder, "task requires saga", nil).
		WithSuggestion("Run 'microgen saga' first")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "microgen saga")
}

func TestFormatForUser_DebugIncludesDetails(t *testing.T) {
	err := New(ErrCodeFilesystem, "write failed", errors.New("EIO")).
		WithDetail("path", "/p/pkg/config/config.go")

	plain := FormatForUser(err, false)
	debug := FormatForUser(err, true)

	assert.NotContains(t, plain, "/p/pkg/config/config.go")
	assert.Contains(t, debug, "path: /p/pkg/config/config.go")
	assert.Contains(t, debug, "cause: EIO")
}

func TestFormatForUser_StandardError(t *testing.T) {
	err := errors.New("something went wrong")

	result := FormatForUser(err, false)

	assert.Equal(t, "something went wrong", result)
}

func TestFormatForUser_Nil(t *testing.T) {
	assert.Empty(t, FormatForUser(nil, true))
}

func TestFormatForCLI_IncludesModuleAndHint(t *testing.T) {
	err := New(ErrCodeTemplateNotFound, "template not found: saga/x.tmpl", nil).
		WithDetail("module", "saga").
		WithSuggestion("Check --template-root")

	result := FormatForCLI(err)

	assert.Contains(t, result, "Error: template not found: saga/x.tmpl")
	assert.Contains(t, result, "Module: saga")
	assert.Contains(t, result, "Hint: Check --template-root")
	assert.Contains(t, result, "Code: ERR_301_TEMPLATE_NOT_FOUND")
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	result := FormatForCLI(errors.New("boom"))

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	err := New(ErrCodeArtifactLocked, "config artifact is locked", errors.New("timeout")).
		WithDetail("path", "/p/.microgen/artifact.lock")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeArtifactLocked, decoded["code"])
	assert.Equal(t, string(CategoryIO), decoded["category"])
	assert.Equal(t, "timeout", decoded["cause"])
}

func TestFormatForLog_FlattensDetails(t *testing.T) {
	err := New(ErrCodePatchAnchorNotFound, "no anchor", nil).WithDetail("module", "task")

	attrs := FormatForLog(err)

	assert.Equal(t, ErrCodePatchAnchorNotFound, attrs["error_code"])
	assert.Equal(t, "task", attrs["detail_module"])
	assert.Equal(t, string(SeverityWarning), attrs["severity"])
	assert.Nil(t, FormatForLog(nil))
}
