package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/patch"
	"github.com/Aman-CERP/microgen/internal/project"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
	// Err is the typed error behind a failure, if any.
	Err error `json:"-"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// TemplateSource reports whether a template ID resolves.
type TemplateSource interface {
	Exists(id string) bool
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose   bool
	output    io.Writer
	templates TemplateSource
	registry  *module.Registry
	artifact  string
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithTemplates sets the template source checked by CheckTemplates.
func WithTemplates(t TemplateSource) Option {
	return func(c *Checker) {
		c.templates = t
	}
}

// WithRegistry sets the modules whose templates are checked.
func WithRegistry(r *module.Registry) Option {
	return func(c *Checker) {
		c.registry = r
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:   os.Stdout,
		registry: module.Default(),
		artifact: patch.DefaultPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs all preflight checks and returns the results.
func (c *Checker) RunAll(_ context.Context, projectPath string) []CheckResult {
	root := c.CheckProjectRoot(projectPath)
	results := []CheckResult{root}
	if root.Status == StatusFail {
		return append(results, c.CheckTemplates())
	}

	results = append(results,
		c.CheckWritePermissions(projectPath),
		c.CheckDiskSpace(projectPath),
		c.CheckMarker(projectPath),
		c.CheckArtifact(projectPath),
		c.CheckTemplates(),
		c.CheckInstalled(projectPath),
	)
	return results
}

// Require runs the checks module generation depends on and returns the
// first critical failure as an error.
func (c *Checker) Require(projectPath string) error {
	for _, check := range []func() CheckResult{
		func() CheckResult { return c.CheckProjectRoot(projectPath) },
		func() CheckResult { return c.CheckMarker(projectPath) },
		c.CheckTemplates,
	} {
		r := check()
		if !r.IsCritical() {
			continue
		}
		if r.Err != nil {
			return r.Err
		}
		return generrors.InternalError(r.Name+": "+r.Message, nil)
	}
	return nil
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "microgen doctor")
	_, _ = fmt.Fprintln(c.output, "===============")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			for _, line := range strings.Split(r.Details, "\n") {
				_, _ = fmt.Fprintf(c.output, "      %s\n", line)
			}
		}
	}

	_, _ = fmt.Fprintln(c.output)
	status := c.SummaryStatus(results)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(status))

	var warnings, errs []string
	for _, r := range results {
		if r.IsCritical() {
			errs = append(errs, r.Name+": "+r.Message)
		} else if r.Status != StatusPass {
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}

	if len(errs) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d error(s):\n", len(errs))
		for _, e := range errs {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", e)
		}
	}

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", w)
		}
	}
}

// CheckProjectRoot checks that path is an existing directory.
func (c *Checker) CheckProjectRoot(path string) CheckResult {
	result := CheckResult{
		Name:     "project_root",
		Required: true,
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s does not exist", path)
		result.Err = generrors.New(generrors.ErrCodeProjectRootMissing, result.Message, err).
			WithDetail("path", path).
			WithSuggestion("Run 'microgen init <name>' first, or pass -C <dir>")
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = err.Error()
		result.Err = generrors.FilesystemError("stat project root", path, err)
		return result
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not a directory", path)
		result.Err = generrors.New(generrors.ErrCodePathCollision, result.Message, nil).WithDetail("path", path)
		return result
	}

	result.Status = StatusPass
	result.Message = path
	return result
}

// CheckWritePermissions checks if we can write to the project directory.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: true,
	}

	f, err := os.CreateTemp(path, ".microgen-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		result.Err = generrors.FilesystemError("write", path, err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckMarker checks that go.mod declares a module path.
func (c *Checker) CheckMarker(path string) CheckResult {
	result := CheckResult{
		Name:     "go_mod",
		Required: true,
	}

	id, err := project.ReadMarker(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = "no module declared in " + project.MarkerFile
		result.Err = err
		return result
	}

	result.Status = StatusPass
	result.Message = id.ModulePath
	return result
}

// CheckArtifact checks that the configuration artifact exists and that the
// patcher can find both of its regions.
func (c *Checker) CheckArtifact(path string) CheckResult {
	result := CheckResult{
		Name:     "config_artifact",
		Required: false,
	}

	data, err := os.ReadFile(filepath.Join(path, filepath.FromSlash(c.artifact)))
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s is missing; modules will print manual instructions", c.artifact)
		return result
	}

	model := patch.Parse(string(data))
	var missing []string
	for _, kind := range []patch.RegionKind{patch.StructRegion, patch.DefaultsRegion} {
		if model.Region(kind) == nil {
			missing = append(missing, kind.String())
		}
	}
	if len(missing) > 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s has no %s", c.artifact, strings.Join(missing, " or "))
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%d fields)", c.artifact, len(model.Struct.Entries))
	return result
}

// CheckTemplates checks that every module template resolves.
func (c *Checker) CheckTemplates() CheckResult {
	result := CheckResult{
		Name:     "templates",
		Required: true,
	}
	if c.templates == nil {
		result.Status = StatusWarn
		result.Message = "no template source configured"
		return result
	}

	var missing []string
	total := 0
	for _, name := range c.registry.Names() {
		m, _ := c.registry.Get(name)
		for _, id := range m.Templates() {
			total++
			if !c.templates.Exists(id) {
				missing = append(missing, id)
			}
		}
	}

	if len(missing) > 0 {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%d of %d templates missing", len(missing), total)
		result.Details = strings.Join(missing, "\n")
		result.Err = generrors.TemplateNotFound(missing[0], nil).
			WithDetail("missing", strings.Join(missing, ", "))
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d templates", total)
	return result
}

// CheckInstalled reports which modules are already present. It never fails.
func (c *Checker) CheckInstalled(path string) CheckResult {
	result := CheckResult{
		Name:   "modules",
		Status: StatusPass,
	}

	var installed []string
	if _, err := project.ReadMarker(path); err == nil {
		installed = append(installed, module.Init)
	}
	if data, err := os.ReadFile(filepath.Join(path, filepath.FromSlash(c.artifact))); err == nil {
		model := patch.Parse(string(data))
		for _, name := range c.registry.Names() {
			m, _ := c.registry.Get(name)
			if m.Installed(model) {
				installed = append(installed, name)
			}
		}
	}

	if len(installed) == 0 {
		result.Message = "none"
		return result
	}
	result.Message = strings.Join(installed, ", ")
	return result
}
