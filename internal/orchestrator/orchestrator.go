// Package orchestrator applies modules to a project: it checks
// preconditions, validates the module dependency graph, scaffolds files and
// patches the configuration artifact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aman-CERP/microgen/configs"
	"github.com/Aman-CERP/microgen/internal/artifact"
	"github.com/Aman-CERP/microgen/internal/blueprint"
	"github.com/Aman-CERP/microgen/internal/config"
	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/patch"
	"github.com/Aman-CERP/microgen/internal/preflight"
	"github.com/Aman-CERP/microgen/internal/project"
	"github.com/Aman-CERP/microgen/internal/render"
	"github.com/Aman-CERP/microgen/internal/scaffold"
	"github.com/Aman-CERP/microgen/templates"
)

// Templates renders and resolves template IDs.
type Templates interface {
	scaffold.Renderer
	preflight.TemplateSource
}

// Config wires an Orchestrator.
type Config struct {
	Registry  *module.Registry
	Templates Templates
	Store     *artifact.Store
	// Overwrite is the default policy, config.OverwriteSkip or
	// config.OverwriteAlways.
	Overwrite string
	Logger    *slog.Logger
}

// Options tune a single run.
type Options struct {
	// Force overwrites existing files regardless of the configured policy.
	Force bool
	// IgnoreOrder skips dependency validation.
	IgnoreOrder bool
	// StrictPatch turns a partial patch into an error.
	StrictPatch bool
	// Blueprint drives per-projection files. nil skips them.
	Blueprint *blueprint.Blueprint
}

// Orchestrator applies modules.
type Orchestrator struct {
	registry  *module.Registry
	templates Templates
	store     *artifact.Store
	overwrite string
	logger    *slog.Logger
}

// New creates an Orchestrator. Zero fields take defaults: the built-in
// registry, the embedded templates, a default artifact store and the skip
// policy.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		registry:  cfg.Registry,
		templates: cfg.Templates,
		store:     cfg.Store,
		overwrite: cfg.Overwrite,
		logger:    cfg.Logger,
	}
	if o.registry == nil {
		o.registry = module.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.templates == nil {
		o.templates = render.New(templates.FS, render.WithLogger(o.logger))
	}
	if o.store == nil {
		o.store = artifact.New(artifact.WithLogger(o.logger))
	}
	if o.overwrite == "" {
		o.overwrite = config.OverwriteSkip
	}
	return o
}

// Registry returns the module registry.
func (o *Orchestrator) Registry() *module.Registry {
	return o.registry
}

// Store returns the artifact store.
func (o *Orchestrator) Store() *artifact.Store {
	return o.store
}

func (o *Orchestrator) scaffolder(opts Options) *scaffold.Scaffolder {
	policy := o.overwrite
	if opts.Force {
		policy = config.OverwriteAlways
	}
	return scaffold.New(o.templates, scaffold.WithPolicy(policy), scaffold.WithLogger(o.logger))
}

func (o *Orchestrator) checker() *preflight.Checker {
	return preflight.New(preflight.WithTemplates(o.templates), preflight.WithRegistry(o.registry))
}

// Init creates a project called name under parentDir and runs the init
// module. The project directory is parentDir/<last element of name>, or
// parentDir itself when it already carries that name and has no such
// child.
func (o *Orchestrator) Init(ctx context.Context, parentDir, name string, opts Options) (*scaffold.Result, *project.Identity, error) {
	name = strings.TrimSpace(name)
	if err := project.ValidateName(name); err != nil {
		return nil, nil, err
	}

	abs, err := filepath.Abs(parentDir)
	if err != nil {
		return nil, nil, generrors.FilesystemError("resolve directory", parentDir, err)
	}
	base := path.Base(name)
	dir := filepath.Join(abs, base)
	if filepath.Base(abs) == base {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			dir = abs
		}
	}

	if _, err := project.ReadMarker(dir); err == nil && !opts.Force {
		return nil, nil, generrors.New(generrors.ErrCodeProjectExists,
			fmt.Sprintf("%s already contains a project", dir), nil).
			WithDetail("root", dir).
			WithSuggestion("Use --force to regenerate the skeleton, or add modules with 'microgen add'")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, generrors.FilesystemError("create project directory", dir, err)
	}

	mod, err := o.registry.Get(module.Init)
	if err != nil {
		return nil, nil, err
	}
	id := project.NewIdentity(dir, name)
	rctx := id.Context()

	// An existing configuration artifact only ever changes through the
	// patcher, so --force regenerates everything around it.
	files := mod.Files
	keepArtifact := o.store.Exists(dir)
	if keepArtifact {
		files = make([]module.FileSpec, 0, len(mod.Files))
		for _, f := range mod.Files {
			if f.Output != o.store.Path() {
				files = append(files, f)
			}
		}
	}

	start := time.Now()
	sc := o.scaffolder(opts)
	res, err := sc.Generate(ctx, mod, dir, rctx, files)
	if keepArtifact && res != nil {
		res.Skipped = append(res.Skipped, o.store.Path())
	}
	if err != nil {
		return res, id, withModule(err, module.Init)
	}
	bp := render.RenderString(configs.BlueprintTemplate, rctx)
	if err := sc.Write(res, dir, blueprint.DefaultFile, bp); err != nil {
		return res, id, withModule(err, module.Init)
	}

	o.logger.Info("project initialized",
		slog.String("root", dir),
		slog.String("module", id.ModulePath),
		slog.Int("files", res.Files()),
		slog.Duration("duration", time.Since(start)))
	return res, id, nil
}

// Apply runs a single module against root.
func (o *Orchestrator) Apply(ctx context.Context, root, name string, opts Options) (*scaffold.Result, error) {
	results, err := o.ApplyAll(ctx, root, []string{name}, opts)
	if len(results) == 0 {
		return nil, err
	}
	return results[0], err
}

// ApplyAll runs modules against root in the given order. Preconditions and
// dependencies are validated before anything is written. The first hard
// failure stops the sequence; results of the modules that completed are
// returned with it.
func (o *Orchestrator) ApplyAll(ctx context.Context, root string, names []string, opts Options) ([]*scaffold.Result, error) {
	if err := o.checker().Require(root); err != nil {
		return nil, err
	}
	id, err := project.ReadMarker(root)
	if err != nil {
		return nil, err
	}

	mods := make([]*module.Module, 0, len(names))
	for _, name := range names {
		m, err := o.registry.Get(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}

	warnings, err := o.checkOrder(root, mods, opts)
	if err != nil {
		return nil, err
	}

	sc := o.scaffolder(opts)
	var (
		results []*scaffold.Result
		partial error
	)
	for i, m := range mods {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := o.apply(ctx, sc, root, id, m, opts)
		if res != nil && i == 0 {
			res.Warnings = append(warnings, res.Warnings...)
		}
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, withModule(err, m.Name)
		}
		if partial == nil && opts.StrictPatch && res.Patch != nil {
			partial = res.Patch.Err(m.Name)
		}
	}
	return results, partial
}

func (o *Orchestrator) apply(ctx context.Context, sc *scaffold.Scaffolder, root string, id *project.Identity, m *module.Module, opts Options) (*scaffold.Result, error) {
	start := time.Now()
	rctx := id.Context()

	res, err := sc.Generate(ctx, m, root, rctx, nil)
	if err != nil {
		return res, err
	}

	if len(m.PerProjection) > 0 {
		if opts.Blueprint == nil || len(opts.Blueprint.Projections) == 0 {
			res.Warnings = append(res.Warnings,
				"no projections declared; pass --config microgen.yaml to generate read models")
		} else {
			for _, p := range opts.Blueprint.Projections {
				pctx := opts.Blueprint.ProjectionContext(p, rctx)
				pr, err := sc.Generate(ctx, &module.Module{Name: m.Name}, root, pctx, m.PerProjection)
				if pr != nil {
					res.Created = append(res.Created, pr.Created...)
					res.Overwritten = append(res.Overwritten, pr.Overwritten...)
					res.Skipped = append(res.Skipped, pr.Skipped...)
				}
				if err != nil {
					var ge *generrors.GenError
					if errors.As(err, &ge) {
						ge.WithDetail("projection", p.Name)
					}
					return res, err
				}
			}
		}
	}

	if m.Fragment != nil {
		pr, err := o.store.Patch(ctx, root, m.Fragment)
		if err != nil {
			return res, err
		}
		if pr.Changed {
			res.Updated = append(res.Updated, o.store.Path())
		}
		res.Patch = &pr
		if err := pr.Err(m.Name); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			res.Instructions = append(append([]string(nil), pr.Instructions...), res.Instructions...)
		}
	}

	o.logger.Info("module applied",
		slog.String("module", m.Name),
		slog.String("root", root),
		slog.Int("created", len(res.Created)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Bool("patched", len(res.Updated) > 0),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// checkOrder verifies that every requirement is installed or requested
// earlier. With IgnoreOrder violations become warnings.
func (o *Orchestrator) checkOrder(root string, mods []*module.Module, opts Options) ([]string, error) {
	installed := o.installedSet(root)
	requested := map[string]bool{}
	var warnings []string

	for _, m := range mods {
		for _, req := range m.Requires {
			if installed[req] || requested[req] {
				continue
			}
			msg := fmt.Sprintf("module %q requires %q, which is not installed", m.Name, req)
			if opts.IgnoreOrder {
				o.logger.Warn("dependency check bypassed", slog.String("module", m.Name), slog.String("requires", req))
				warnings = append(warnings, msg)
				continue
			}
			chain := append(o.registry.Requirements(m.Name), m.Name)
			return nil, generrors.New(generrors.ErrCodeModuleOrder, msg, nil).
				WithDetail("module", m.Name).
				WithDetail("requires", req).
				WithSuggestion(fmt.Sprintf("Apply %s first, or run 'microgen add %s'", req, strings.Join(chain, " ")))
		}
		requested[m.Name] = true
	}
	return warnings, nil
}

// Installed returns the modules already present in root, in dependency
// order.
func (o *Orchestrator) Installed(root string) []string {
	set := o.installedSet(root)
	var out []string
	for _, n := range o.registry.Order() {
		if set[n] {
			out = append(out, n)
		}
	}
	return out
}

func (o *Orchestrator) installedSet(root string) map[string]bool {
	set := map[string]bool{}
	if _, err := project.ReadMarker(root); err == nil {
		set[module.Init] = true
	}
	text, err := o.store.Read(root)
	if err != nil {
		return set
	}
	model := patch.Parse(text)
	for _, n := range o.registry.Names() {
		m, _ := o.registry.Get(n)
		if m.Installed(model) {
			set[n] = true
		}
	}
	return set
}

// withModule attaches the module name to err.
func withModule(err error, name string) error {
	var ge *generrors.GenError
	if errors.As(err, &ge) {
		if _, ok := ge.Details["module"]; !ok {
			ge.WithDetail("module", name)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return generrors.New(generrors.ErrCodeInternal, fmt.Sprintf("module %s: %v", name, err), err).
		WithDetail("module", name)
}
