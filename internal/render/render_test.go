package render

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/project"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"es/event.go.tmpl":      {Data: []byte("package entity // {{ .project_name }}\n")},
		"es/bus.go.tmpl":        {Data: []byte("import \"{{.project_name}}/internal/entity\"\n")},
		"es/plain.txt":          {Data: []byte("not a template")},
		"init/Makefile.tmpl":    {Data: []byte("APP={{service_name}}\n")},
		"init/static.tmpl":      {Data: []byte("no placeholders here\n")},
		"session/session.tmpl":  {Data: []byte("{{ .unknown }} and {{ .project_name }}")},
		"session/nested/x.tmpl": {Data: []byte("x")},
	}
}

func TestRenderString_PlaceholderRoundTrip(t *testing.T) {
	got := RenderString("name={{ .project_name }}", project.RenderContext{"project_name": "orders"})
	assert.Equal(t, "name=orders", got)

	got = RenderString("name={{ .project_name }}", project.RenderContext{})
	assert.Equal(t, "name={{ .project_name }}", got, "empty context leaves placeholder verbatim")
}

func TestRenderString_Forms(t *testing.T) {
	ctx := project.RenderContext{"project_name": "orders", "port": 8080}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"dotted spaced", "{{ .project_name }}", "orders"},
		{"dotted tight", "{{.project_name}}", "orders"},
		{"plain", "{{project_name}}", "orders"},
		{"plain spaced", "{{  project_name  }}", "orders"},
		{"non-string value", "{{ .port }}", "8080"},
		{"unknown survives", "{{ .missing }}-{{project_name}}", "{{ .missing }}-orders"},
		{"multi word untouched", "{{ range .Items }}", "{{ range .Items }}"},
		{"no placeholders", "plain text", "plain text"},
		{"repeated", "{{.project_name}}/{{.project_name}}", "orders/orders"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderString(tc.src, ctx))
		})
	}
}

func TestRenderString_LegacyPassHandlesNonWordKeys(t *testing.T) {
	ctx := project.RenderContext{"service-name": "billing"}
	assert.Equal(t, "svc=billing", RenderString("svc={{service-name}}", ctx))
}

func TestEngine_Render(t *testing.T) {
	e := New(testFS())
	ctx := project.NewIdentity("/p", "github.com/acme/orders").Context()

	out, err := e.Render("es/bus.go.tmpl", ctx)
	require.NoError(t, err)
	assert.Equal(t, "import \"github.com/acme/orders/internal/entity\"\n", out)

	out, err = e.Render("init/Makefile.tmpl", ctx)
	require.NoError(t, err)
	assert.Equal(t, "APP=orders\n", out)

	out, err = e.Render("init/static.tmpl", ctx)
	require.NoError(t, err)
	assert.Equal(t, "no placeholders here\n", out)
}

func TestEngine_Render_MissingTemplate(t *testing.T) {
	e := New(testFS())

	_, err := e.Render("saga/manager.go.tmpl", project.RenderContext{})
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeTemplateNotFound, generrors.GetCode(err))
	assert.True(t, generrors.IsFatal(err))
}

func TestEngine_Render_InvalidID(t *testing.T) {
	e := New(testFS())

	for _, id := range []string{"../etc/passwd", "/abs.tmpl", "es//bus.go.tmpl", ""} {
		_, err := e.Render(id, nil)
		require.Error(t, err, id)
		assert.Equal(t, generrors.ErrCodeTemplateIDInvalid, generrors.GetCode(err), id)
	}
}

func TestEngine_CacheServesSourceNotOutput(t *testing.T) {
	fsys := testFS()
	e := New(fsys, WithCache(4))

	out, err := e.Render("es/event.go.tmpl", project.RenderContext{"project_name": "a"})
	require.NoError(t, err)
	assert.Contains(t, out, "// a")

	// Source is served from cache even after the backing file changes.
	fsys["es/event.go.tmpl"] = &fstest.MapFile{Data: []byte("changed")}

	out, err = e.Render("es/event.go.tmpl", project.RenderContext{"project_name": "b"})
	require.NoError(t, err)
	assert.Contains(t, out, "// b", "output is rendered per call")
}

func TestEngine_NoCacheReadsFresh(t *testing.T) {
	fsys := testFS()
	e := New(fsys, WithCache(0))

	_, err := e.Render("es/event.go.tmpl", nil)
	require.NoError(t, err)
	fsys["es/event.go.tmpl"] = &fstest.MapFile{Data: []byte("changed")}

	out, err := e.Render("es/event.go.tmpl", nil)
	require.NoError(t, err)
	assert.Equal(t, "changed", out)
}

func TestEngine_ExistsAndList(t *testing.T) {
	e := New(testFS())

	assert.True(t, e.Exists("es/event.go.tmpl"))
	assert.False(t, e.Exists("es"))
	assert.False(t, e.Exists("es/missing.tmpl"))
	assert.False(t, e.Exists("../x"))

	ids, err := e.List("es")
	require.NoError(t, err)
	assert.Equal(t, []string{"es/bus.go.tmpl", "es/event.go.tmpl"}, ids)

	ids, err = e.List("session")
	require.NoError(t, err)
	assert.Equal(t, []string{"session/nested/x.tmpl", "session/session.tmpl"}, ids)

	_, err = e.List("projection")
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeTemplateNotFound, generrors.GetCode(err))
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "init"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init", "go.mod.tmpl"), []byte("module {{ .project_name }}\n"), 0o644))

	e, err := NewFromDir(dir)
	require.NoError(t, err)

	out, err := e.Render("init/go.mod.tmpl", project.RenderContext{"project_name": "orders"})
	require.NoError(t, err)
	assert.Equal(t, "module orders\n", out)

	_, err = NewFromDir(filepath.Join(dir, "nope"))
	require.Error(t, err)

	_, err = NewFromDir(filepath.Join(dir, "init", "go.mod.tmpl"))
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodePathCollision, generrors.GetCode(err))
}

func TestID(t *testing.T) {
	assert.Equal(t, "es/bus.go.tmpl", ID("es", "bus.go.tmpl"))
}
