// Package scaffold writes a module's directories and rendered files into a
// project.
//
// Generation runs in two phases. Every file is rendered first, in parallel
// and without side effects, so a broken template aborts the module before
// anything is written. Files are then written sequentially in declaration
// order, each one atomically.
package scaffold

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/microgen/internal/config"
	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/patch"
	"github.com/Aman-CERP/microgen/internal/project"
	"github.com/Aman-CERP/microgen/internal/render"
)

// Renderer renders a template by ID.
type Renderer interface {
	Render(id string, ctx project.RenderContext) (string, error)
}

// Result lists what Generate did, with paths relative to the project root.
type Result struct {
	Module       string
	Created      []string
	Overwritten  []string
	Skipped      []string
	Updated      []string
	Instructions []string
	Warnings     []string
	// Patch is the configuration patch outcome, when the module has a
	// fragment.
	Patch *patch.Result
}

// Files returns the number of files touched.
func (r *Result) Files() int {
	return len(r.Created) + len(r.Overwritten) + len(r.Updated)
}

// Scaffolder generates module files.
type Scaffolder struct {
	renderer    Renderer
	overwrite   bool
	parallelism int
	logger      *slog.Logger
}

// Option configures a Scaffolder.
type Option func(*Scaffolder)

// WithPolicy sets the overwrite policy (config.OverwriteSkip or
// config.OverwriteAlways).
func WithPolicy(policy string) Option {
	return func(s *Scaffolder) { s.overwrite = policy == config.OverwriteAlways }
}

// WithParallelism bounds concurrent renders.
func WithParallelism(n int) Option {
	return func(s *Scaffolder) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scaffolder) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scaffolder. The default policy skips existing files.
func New(r Renderer, opts ...Option) *Scaffolder {
	s := &Scaffolder{
		renderer:    r,
		parallelism: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type rendered struct {
	rel  string
	path string
	body string
}

// Generate creates mod's directories and writes files under root. A nil
// files slice means mod.Files. Output paths and instructions are rendered
// with rctx.
//
// A render failure returns before anything but directories exist. A write
// failure is returned with the files written so far recorded in the
// result.
func (s *Scaffolder) Generate(ctx context.Context, mod *module.Module, root string, rctx project.RenderContext, files []module.FileSpec) (*Result, error) {
	if files == nil {
		files = mod.Files
	}
	res := &Result{Module: mod.Name}

	for _, dir := range mod.Dirs {
		path := filepath.Join(root, filepath.FromSlash(render.RenderString(dir, rctx)))
		if err := os.MkdirAll(path, 0o755); err != nil {
			return res, generrors.FilesystemError("create directory", path, err)
		}
	}

	out, err := s.renderAll(ctx, root, rctx, files)
	if err != nil {
		return res, err
	}

	for _, f := range out {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.write(res, f); err != nil {
			return res, err
		}
	}

	for _, line := range mod.Instructions {
		res.Instructions = append(res.Instructions, render.RenderString(line, rctx))
	}
	s.logger.Debug("scaffold complete",
		slog.String("module", mod.Name),
		slog.Int("created", len(res.Created)),
		slog.Int("overwritten", len(res.Overwritten)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (s *Scaffolder) renderAll(ctx context.Context, root string, rctx project.RenderContext, files []module.FileSpec) ([]rendered, error) {
	out := make([]rendered, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel := render.RenderString(f.Output, rctx)
			if !filepath.IsLocal(filepath.FromSlash(rel)) {
				return generrors.New(generrors.ErrCodePathCollision,
					fmt.Sprintf("output path %q leaves the project root", rel), nil).
					WithDetail("template", f.Template)
			}
			body, err := s.renderer.Render(f.Template, rctx)
			if err != nil {
				return err
			}
			out[i] = rendered{
				rel:  rel,
				path: filepath.Join(root, filepath.FromSlash(rel)),
				body: body,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Write writes one already-rendered file under root, honoring the
// overwrite policy and recording the outcome in res.
func (s *Scaffolder) Write(res *Result, root, rel, body string) error {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return generrors.New(generrors.ErrCodePathCollision,
			fmt.Sprintf("output path %q leaves the project root", rel), nil)
	}
	return s.write(res, rendered{rel: rel, path: filepath.Join(root, filepath.FromSlash(rel)), body: body})
}

func (s *Scaffolder) write(res *Result, f rendered) error {
	info, err := os.Stat(f.path)
	exists := err == nil
	if exists && info.IsDir() {
		return generrors.New(generrors.ErrCodePathCollision,
			fmt.Sprintf("%s is a directory", f.rel), nil).WithDetail("path", f.path)
	}

	if exists && !s.overwrite {
		s.logger.Debug("file exists, skipping", slog.String("path", f.rel))
		res.Skipped = append(res.Skipped, f.rel)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return generrors.FilesystemError("create directory", filepath.Dir(f.path), err)
	}
	if err := renameio.WriteFile(f.path, []byte(f.body), 0o644); err != nil {
		return generrors.FilesystemError("write file", f.path, err)
	}

	if exists {
		res.Overwritten = append(res.Overwritten, f.rel)
	} else {
		res.Created = append(res.Created, f.rel)
	}
	s.logger.Debug("file written", slog.String("path", f.rel), slog.Bool("overwrite", exists))
	return nil
}
