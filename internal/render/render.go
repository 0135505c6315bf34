// Package render resolves template IDs to source text and substitutes
// placeholders from a project render context.
//
// Two placeholder syntaxes are recognized. The primary form is a single word
// between double braces with an optional leading dot ({{ .project_name }} or
// {{project_name}}). Unknown names are left verbatim. A second pass replaces
// the literal legacy form {{key}} for every key in the context.
package render

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/logging"
	"github.com/Aman-CERP/microgen/internal/project"
)

// TemplateExt is the suffix of every template file.
const TemplateExt = ".tmpl"

var placeholder = regexp.MustCompile(`\{\{\s*\.?(\w+)\s*\}\}`)

// Engine renders templates from a filesystem.
type Engine struct {
	fsys   fs.FS
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache keeps up to size raw template sources in memory. Rendered output
// is never cached. size <= 0 disables the cache.
func WithCache(size int) Option {
	return func(e *Engine) {
		if size <= 0 {
			e.cache = nil
			return
		}
		cache, _ := lru.New[string, string](size)
		e.cache = cache
	}
}

// WithLogger sets the logger used for per-template debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine reading templates from fsys.
func New(fsys fs.FS, opts ...Option) *Engine {
	e := &Engine{fsys: fsys}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDefault(e.logger)
	return e
}

// NewFromDir creates an engine reading templates from a directory on disk.
func NewFromDir(dir string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, generrors.FilesystemError("open template root", dir, err).
			WithSuggestion("Check --template-root or MICROGEN_TEMPLATE_ROOT")
	}
	if !info.IsDir() {
		return nil, generrors.New(generrors.ErrCodePathCollision, "template root is not a directory", nil).
			WithDetail("path", dir)
	}
	return New(os.DirFS(dir), opts...), nil
}

// Render resolves id and substitutes ctx into it.
func (e *Engine) Render(id string, ctx project.RenderContext) (string, error) {
	src, err := e.Source(id)
	if err != nil {
		return "", err
	}
	e.logger.Debug("rendering template", slog.String("template", id), slog.Int("bytes", len(src)))
	return RenderString(src, ctx), nil
}

// Source returns the raw text of template id.
func (e *Engine) Source(id string) (string, error) {
	if !fs.ValidPath(id) || id == "." {
		return "", generrors.New(generrors.ErrCodeTemplateIDInvalid, "invalid template id: "+id, nil).
			WithDetail("template", id)
	}

	if e.cache != nil {
		if src, ok := e.cache.Get(id); ok {
			return src, nil
		}
	}

	data, err := fs.ReadFile(e.fsys, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", generrors.TemplateNotFound(id, err)
		}
		return "", generrors.FilesystemError("read template", id, err).WithDetail("template", id)
	}

	src := string(data)
	if e.cache != nil {
		e.cache.Add(id, src)
	}
	return src, nil
}

// Exists reports whether template id resolves.
func (e *Engine) Exists(id string) bool {
	if !fs.ValidPath(id) {
		return false
	}
	info, err := fs.Stat(e.fsys, id)
	return err == nil && !info.IsDir()
}

// List returns the IDs of all templates under group, sorted.
func (e *Engine) List(group string) ([]string, error) {
	if !fs.ValidPath(group) {
		return nil, generrors.New(generrors.ErrCodeTemplateIDInvalid, "invalid template group: "+group, nil)
	}

	var ids []string
	err := fs.WalkDir(e.fsys, group, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, TemplateExt) {
			ids = append(ids, p)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, generrors.TemplateNotFound(group, err)
		}
		return nil, generrors.FilesystemError("list templates", group, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// RenderString substitutes ctx into src. It is also used for output paths
// that carry placeholders.
func RenderString(src string, ctx project.RenderContext) string {
	if len(ctx) == 0 || !strings.Contains(src, "{{") {
		return src
	}

	out := placeholder.ReplaceAllStringFunc(src, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := ctx.Lookup(name); ok {
			return v
		}
		return m
	})

	for _, key := range ctx.Keys() {
		v, _ := ctx.Lookup(key)
		out = strings.ReplaceAll(out, "{{"+key+"}}", v)
	}
	return out
}

// ID joins a group and a file name into a template ID.
func ID(group, name string) string {
	return path.Join(group, name)
}
