// Package errors provides structured error handling for microgen.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Filesystem errors
//   - 3XX: Template errors
//   - 4XX: Project and module errors
//   - 5XX: Config patch errors
//   - 9XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates filesystem errors.
	CategoryIO Category = "IO"
	// CategoryTemplate indicates template resolution errors.
	CategoryTemplate Category = "TEMPLATE"
	// CategoryProject indicates project precondition and module ordering errors.
	CategoryProject Category = "PROJECT"
	// CategoryPatch indicates configuration artifact patch errors.
	CategoryPatch Category = "PATCH"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the current module failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a partial result, the command continues.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid     = "ERR_101_CONFIG_INVALID"
	ErrCodeBlueprintNotFound = "ERR_102_BLUEPRINT_NOT_FOUND"
	ErrCodeBlueprintInvalid  = "ERR_103_BLUEPRINT_INVALID"

	// Filesystem errors (200-299)
	ErrCodeFilesystem     = "ERR_201_FILESYSTEM"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"
	ErrCodePathCollision  = "ERR_204_PATH_COLLISION"
	ErrCodeArtifactLocked = "ERR_205_ARTIFACT_LOCKED"

	// Template errors (300-399)
	ErrCodeTemplateNotFound  = "ERR_301_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateIDInvalid = "ERR_302_TEMPLATE_ID_INVALID"

	// Project errors (400-499)
	ErrCodeProjectNotInitialized = "ERR_401_PROJECT_NOT_INITIALIZED"
	ErrCodeProjectRootMissing    = "ERR_402_PROJECT_ROOT_MISSING"
	ErrCodeUnknownModule         = "ERR_403_UNKNOWN_MODULE"
	ErrCodeModuleOrder           = "ERR_404_MODULE_ORDER"
	ErrCodeProjectExists         = "ERR_405_PROJECT_EXISTS"
	ErrCodeInvalidProjectName    = "ERR_406_INVALID_PROJECT_NAME"

	// Patch errors (500-599)
	ErrCodePatchAnchorNotFound = "ERR_501_PATCH_ANCHOR_NOT_FOUND"
	ErrCodePatchRegionNotFound = "ERR_502_PATCH_REGION_NOT_FOUND"

	// Internal errors (900-999)
	ErrCodeInternal = "ERR_901_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "301" from "ERR_301_TEMPLATE_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryTemplate
	case '4':
		return CategoryProject
	case '5':
		return CategoryPatch
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeDiskFull, ErrCodeTemplateNotFound, ErrCodeProjectNotInitialized:
		return SeverityFatal
	case ErrCodePatchAnchorNotFound, ErrCodePatchRegionNotFound:
		// Partial patches are reported, never force-inserted.
		return SeverityWarning
	}
	return SeverityError
}
