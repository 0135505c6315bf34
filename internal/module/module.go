// Package module declares the feature modules microgen can add to a project
// and the dependency graph between them.
package module

import (
	"fmt"
	"strings"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/patch"
)

// FileSpec maps a template to an output path relative to the project root.
// Output may contain placeholders rendered with the module's context.
type FileSpec struct {
	Template string
	Output   string
}

// Module is a statically declared feature generator.
type Module struct {
	Name    string
	Summary string
	// Requires lists modules that must be installed first.
	Requires []string
	Dirs     []string
	Files    []FileSpec
	// PerProjection files are rendered once per blueprint projection.
	PerProjection []FileSpec
	// Fragment is the module's contribution to pkg/config/config.go.
	Fragment     *patch.Fragment
	Instructions []string
}

// Templates returns every template ID the module reads.
func (m *Module) Templates() []string {
	ids := make([]string, 0, len(m.Files)+len(m.PerProjection))
	for _, f := range m.Files {
		ids = append(ids, f.Template)
	}
	for _, f := range m.PerProjection {
		ids = append(ids, f.Template)
	}
	return ids
}

// Installed reports whether m's configuration is declared in model. A
// module without a fragment cannot be detected this way and reports false.
func (m *Module) Installed(model *patch.Model) bool {
	if m.Fragment == nil || model == nil {
		return false
	}
	return model.Declares(m.Fragment.Struct.Sentinel)
}

// Registry holds modules in declaration order.
type Registry struct {
	modules map[string]*Module
	names   []string
	order   []string
}

// NewRegistry builds a registry. Modules are static, so a duplicate name,
// an unknown requirement or a cycle is a programming error and panics.
func NewRegistry(mods ...*Module) *Registry {
	r := &Registry{modules: make(map[string]*Module, len(mods))}
	for _, m := range mods {
		if _, dup := r.modules[m.Name]; dup {
			panic(fmt.Sprintf("module %q registered twice", m.Name))
		}
		r.modules[m.Name] = m
		r.names = append(r.names, m.Name)
	}
	for _, m := range mods {
		for _, req := range m.Requires {
			if _, ok := r.modules[req]; !ok {
				panic(fmt.Sprintf("module %q requires unknown module %q", m.Name, req))
			}
		}
	}

	order, err := r.sort(r.names)
	if err != nil {
		panic(err.Error())
	}
	r.order = order
	return r
}

// Get returns the module called name.
func (r *Registry) Get(name string) (*Module, error) {
	m, ok := r.modules[name]
	if !ok {
		return nil, generrors.New(generrors.ErrCodeUnknownModule,
			fmt.Sprintf("unknown module %q", name), nil).
			WithDetail("module", name).
			WithSuggestion("Available modules: " + strings.Join(r.names, ", "))
	}
	return m, nil
}

// Names returns module names in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Order returns all module names in dependency order. Ties keep
// declaration order.
func (r *Registry) Order() []string {
	return append([]string(nil), r.order...)
}

// Sort orders a subset of modules by dependency, keeping the caller's order
// where the graph allows it. Unknown names fail with ERR_403.
func (r *Registry) Sort(names []string) ([]string, error) {
	for _, n := range names {
		if _, err := r.Get(n); err != nil {
			return nil, err
		}
	}
	return r.sort(dedupe(names))
}

// Requirements returns the transitive requirements of name in dependency
// order, excluding name itself.
func (r *Registry) Requirements(name string) []string {
	seen := map[string]bool{}
	var visit func(string)
	visit = func(n string) {
		m, ok := r.modules[n]
		if !ok {
			return
		}
		for _, req := range m.Requires {
			if !seen[req] {
				seen[req] = true
				visit(req)
			}
		}
	}
	visit(name)

	var out []string
	for _, n := range r.order {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// sort is Kahn's algorithm restricted to names; requirements outside the
// set are ignored.
func (r *Registry) sort(names []string) ([]string, error) {
	in := make(map[string]bool, len(names))
	for _, n := range names {
		in[n] = true
	}

	indegree := make(map[string]int, len(names))
	for _, n := range names {
		for _, req := range r.modules[n].Requires {
			if in[req] {
				indegree[n]++
			}
		}
	}

	out := make([]string, 0, len(names))
	done := make(map[string]bool, len(names))
	for len(out) < len(names) {
		progressed := false
		for _, n := range names {
			if done[n] || indegree[n] > 0 {
				continue
			}
			done[n] = true
			out = append(out, n)
			progressed = true
			for _, other := range names {
				if done[other] {
					continue
				}
				for _, req := range r.modules[other].Requires {
					if req == n {
						indegree[other]--
					}
				}
			}
			break
		}
		if !progressed {
			var stuck []string
			for _, n := range names {
				if !done[n] {
					stuck = append(stuck, n)
				}
			}
			return nil, generrors.InternalError(
				fmt.Sprintf("module dependency cycle among %s", strings.Join(stuck, ", ")), nil)
		}
	}
	return out, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
