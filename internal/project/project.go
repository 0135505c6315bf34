// Package project recovers a generated project's identity from its marker
// file and turns it into the context templates are rendered with.
package project

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// MarkerFile holds the project's canonical identity.
const MarkerFile = "go.mod"

// Render context keys every project provides.
const (
	KeyProjectName  = "project_name"
	KeyModuleName   = "module_name"
	KeyPackageName  = "package_name"
	KeyServiceName  = "service_name"
	KeyProjectTitle = "project_title"
)

// RenderContext maps placeholder names to values. Values are rendered with
// their default string form.
type RenderContext map[string]any

// Clone returns a shallow copy that can be extended without touching c.
func (c RenderContext) Clone() RenderContext {
	out := make(RenderContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Lookup returns the string form of key and whether it is present.
func (c RenderContext) Lookup(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Keys returns the context keys in sorted order.
func (c RenderContext) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Identity describes a generated project.
type Identity struct {
	Root       string
	ModulePath string // as declared in the marker file
	Name       string // last path element, e.g. "order-service"
	Package    string // Go-safe package name, e.g. "orderservice"
	Title      string // human title, e.g. "Order Service"
}

// NewIdentity derives naming variants from a module path.
func NewIdentity(root, modulePath string) *Identity {
	name := serviceName(modulePath)
	return &Identity{
		Root:       root,
		ModulePath: modulePath,
		Name:       name,
		Package:    packageName(name),
		Title:      title(name),
	}
}

// ReadMarker reads the marker file in root. A missing file or one without a
// module declaration means the project was never initialized.
func ReadMarker(root string) (*Identity, error) {
	p := filepath.Join(root, MarkerFile)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, generrors.ProjectNotInitialized(root, err)
		}
		return nil, generrors.FilesystemError("read marker file", p, err)
	}

	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return nil, generrors.ProjectNotInitialized(root,
			fmt.Errorf("%s has no module declaration", MarkerFile))
	}

	return NewIdentity(root, modPath), nil
}

// Context returns the base render context for the project. project_name is
// the full module path so generated imports resolve.
func (id *Identity) Context() RenderContext {
	return RenderContext{
		KeyProjectName:  id.ModulePath,
		KeyModuleName:   id.ModulePath,
		KeyPackageName:  id.Package,
		KeyServiceName:  id.Name,
		KeyProjectTitle: id.Title,
	}
}

// ValidateName checks that name can be used as a module path.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return generrors.New(generrors.ErrCodeInvalidProjectName, "project name is empty", nil)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return generrors.New(generrors.ErrCodeInvalidProjectName,
			fmt.Sprintf("project name %q contains whitespace", name), nil).
			WithSuggestion("Use a module path such as github.com/acme/orders")
	}
	if err := module.CheckImportPath(name); err != nil {
		return generrors.New(generrors.ErrCodeInvalidProjectName,
			fmt.Sprintf("project name %q is not a valid module path", name), err).
			WithSuggestion("Use a module path such as github.com/acme/orders")
	}
	return nil
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// serviceName is the last meaningful element of the module path; a trailing
// major version suffix such as /v2 is skipped.
func serviceName(modulePath string) string {
	base := path.Base(modulePath)
	if majorVersion.MatchString(base) {
		if parent := path.Dir(modulePath); parent != "." && parent != "/" {
			base = path.Base(parent)
		}
	}
	return base
}

func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	pkg := b.String()
	if pkg == "" {
		return "app"
	}
	if pkg[0] >= '0' && pkg[0] <= '9' {
		pkg = "app" + pkg
	}
	return pkg
}

func title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
