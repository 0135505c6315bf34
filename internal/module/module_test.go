package module

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/patch"
	"github.com/Aman-CERP/microgen/internal/project"
	"github.com/Aman-CERP/microgen/internal/render"
	"github.com/Aman-CERP/microgen/templates"
)

func TestDefault_Order(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{Init, ES, Session, Saga, Task, Projection}, r.Names())

	order := r.Order()
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	for _, n := range order {
		m, err := r.Get(n)
		require.NoError(t, err)
		for _, req := range m.Requires {
			assert.Less(t, pos[req], pos[n], "%s must come after %s", n, req)
		}
	}
}

func TestDefault_Requirements(t *testing.T) {
	r := Default()
	assert.Empty(t, r.Requirements(Init))
	assert.Equal(t, []string{Init}, r.Requirements(ES))
	assert.Equal(t, []string{Init, Session, Saga}, r.Requirements(Task))
	assert.Equal(t, []string{Init, ES}, r.Requirements(Projection))
	assert.Empty(t, r.Requirements("nope"))
}

func TestRegistry_Get_Unknown(t *testing.T) {
	_, err := Default().Get("graphql")
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeUnknownModule, generrors.GetCode(err))

	var ge *generrors.GenError
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, ge.Suggestion, "saga")
}

func TestRegistry_Sort(t *testing.T) {
	r := Default()

	got, err := r.Sort([]string{Task, Session, Init, Saga})
	require.NoError(t, err)
	assert.Equal(t, []string{Init, Session, Saga, Task}, got)

	got, err = r.Sort([]string{ES, ES, Init})
	require.NoError(t, err)
	assert.Equal(t, []string{Init, ES}, got)

	// requirements outside the set do not block
	got, err = r.Sort([]string{Task, Projection})
	require.NoError(t, err)
	assert.Equal(t, []string{Task, Projection}, got)

	_, err = r.Sort([]string{ES, "bogus"})
	assert.Equal(t, generrors.ErrCodeUnknownModule, generrors.GetCode(err))
}

func TestNewRegistry_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(&Module{Name: "a"}, &Module{Name: "a"})
	})
	assert.Panics(t, func() {
		NewRegistry(&Module{Name: "a", Requires: []string{"ghost"}})
	})
	assert.Panics(t, func() {
		NewRegistry(
			&Module{Name: "a", Requires: []string{"b"}},
			&Module{Name: "b", Requires: []string{"a"}},
		)
	})
}

func TestTemplatesExist(t *testing.T) {
	eng := render.New(templates.FS)
	for _, name := range Default().Names() {
		m, err := Default().Get(name)
		require.NoError(t, err)
		for _, id := range m.Templates() {
			assert.True(t, eng.Exists(id), "%s: template %s is missing", name, id)
		}
	}
}

func TestTemplatesAreAllReferenced(t *testing.T) {
	used := map[string]bool{}
	for _, name := range Default().Names() {
		m, _ := Default().Get(name)
		for _, id := range m.Templates() {
			used[id] = true
		}
	}
	err := fs.WalkDir(templates.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		assert.True(t, used[path], "template %s is not used by any module", path)
		return nil
	})
	require.NoError(t, err)
}

func TestFragments_Sentinels(t *testing.T) {
	for _, name := range Default().Names() {
		m, _ := Default().Get(name)
		if m.Fragment == nil {
			continue
		}
		assert.Equal(t, name, m.Fragment.Module)
		assert.NotEmpty(t, m.Fragment.Sentinels())
		assert.NotEmpty(t, m.Instructions, "%s has no next steps", name)
	}
}

func initConfig(t *testing.T) string {
	t.Helper()
	eng := render.New(templates.FS)
	ctx := project.NewIdentity(t.TempDir(), "github.com/acme/orders").Context()
	text, err := eng.Render("init/config.go.tmpl", ctx)
	require.NoError(t, err)
	return text
}

func TestFragments_FullScenario(t *testing.T) {
	text := initConfig(t)
	reg := Default()

	for _, name := range []string{ES, Session, Saga, Task, Projection} {
		m, err := reg.Get(name)
		require.NoError(t, err)
		res := patch.Apply(text, m.Fragment, patch.Options{Format: true, Path: ConfigArtifact})
		require.False(t, res.Partial(), "%s: %v", name, res.Instructions)
		require.True(t, res.Changed, name)
		text = res.Text
	}

	model := patch.Parse(text)
	want := []string{
		"ServiceName", "ServerPort", "DataDir", "LogLevel",
		"NATSURL", "StreamName", "ClusterName", "ProjectionLevel",
		"SessionLevel", "SagaLevel", "TaskLevel",
		"RedisAddr", "RedisPassword", "RedisDB",
	}
	assert.Equal(t, want, model.Region(patch.StructRegion).Names())
	assert.Equal(t, want, model.Region(patch.DefaultsRegion).Names())

	for _, env := range []string{"NATS_URL", "SESSION_LEVEL", "SAGA_LEVEL", "TASK_LEVEL", "PROJECTION_LEVEL", "REDIS_DB"} {
		assert.Equal(t, 1, strings.Count(text, `"`+env+`"`), env)
	}
	assert.Regexp(t, regexp.MustCompile(`RedisDB:\s+getEnvAsInt\("REDIS_DB", 0\)`), text)

	// a second pass is a byte-identical no-op
	for _, name := range []string{ES, Session, Saga, Task, Projection} {
		m, _ := reg.Get(name)
		res := patch.Apply(text, m.Fragment, patch.Options{Format: true})
		assert.False(t, res.Changed, name)
		assert.Equal(t, text, res.Text)
	}
}

func TestFragments_TaskWithoutSaga(t *testing.T) {
	text := initConfig(t)
	reg := Default()
	for _, name := range []string{Session, Task} {
		m, _ := reg.Get(name)
		text = patch.Apply(text, m.Fragment, patch.Options{Format: true}).Text
	}
	names := patch.Parse(text).Region(patch.StructRegion).Names()
	idx := func(n string) int {
		for i, v := range names {
			if v == n {
				return i
			}
		}
		return -1
	}
	assert.Equal(t, idx("SessionLevel")+1, idx("TaskLevel"))
}

func TestModule_Installed(t *testing.T) {
	text := initConfig(t)
	reg := Default()
	es, _ := reg.Get(ES)
	session, _ := reg.Get(Session)
	initMod, _ := reg.Get(Init)

	model := patch.Parse(text)
	assert.False(t, es.Installed(model))
	assert.False(t, initMod.Installed(model))
	assert.False(t, es.Installed(nil))

	text = patch.Apply(text, es.Fragment, patch.Options{Format: true}).Text
	model = patch.Parse(text)
	assert.True(t, es.Installed(model))
	assert.False(t, session.Installed(model))
}
