// Package preflight checks that a directory can receive generated modules
// before any file is written.
//
// The package validates:
//   - The project root exists and is writable
//   - go.mod declares a module path
//   - pkg/config/config.go exists and exposes both patch regions
//   - Every template referenced by a module resolves
//   - Disk space availability (minimum 10MB)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithTemplates(engine))
//	results := checker.RunAll(ctx, "/path/to/project")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
