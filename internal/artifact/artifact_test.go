package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/patch"
)

const config = `package config

type Config struct {
	ServerPort string
}

func Load() (*Config, error) {
	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
	}
	return config, nil
}
`

var esFragment = &patch.Fragment{
	Module: "es",
	Struct: patch.Part{
		Sentinel: "NATSURL",
		Anchors:  []patch.Anchor{patch.End()},
		Lines:    []string{"NATSURL string"},
	},
	Defaults: patch.Part{
		Sentinel: "NATSURL",
		Anchors:  []patch.Anchor{patch.End()},
		Lines:    []string{`NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),`},
	},
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "pkg", "config", "config.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(config), 0o640))
	return root
}

func tick(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestPatch_WritesAndBacksUp(t *testing.T) {
	root := newProject(t)
	s := New()

	res, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Partial())

	text, err := s.Read(root)
	require.NoError(t, err)
	assert.Contains(t, text, "NATS_URL")
	assert.Equal(t, res.Text, text)

	info, err := os.Stat(filepath.Join(root, "pkg", "config", "config.go"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm(), "permissions are preserved")

	backups, err := s.Backups(root)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, config, string(old))
}

func TestPatch_NoChangeLeavesFileAlone(t *testing.T) {
	root := newProject(t)
	s := New()

	_, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)
	path := filepath.Join(root, "pkg", "config", "config.go")
	before, err := os.Stat(path)
	require.NoError(t, err)

	res, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	backups, _ := s.Backups(root)
	assert.Len(t, backups, 1, "an unchanged artifact is not backed up")
}

func TestPatch_MissingArtifactIsSoft(t *testing.T) {
	s := New()
	root := t.TempDir()

	res, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.Partial())
	require.NotEmpty(t, res.Instructions)
	assert.Contains(t, res.Instructions[0], "pkg/config/config.go does not exist")
	assert.Contains(t, strings.Join(res.Instructions, "\n"), "NATSURL string")
	assert.False(t, s.Exists(root))
}

func TestPatch_LockContention(t *testing.T) {
	root := newProject(t)
	lockPath := filepath.Join(root, StateDir, LockFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))

	held := flock.New(lockPath)
	require.NoError(t, held.Lock())
	t.Cleanup(func() { _ = held.Unlock() })

	s := New(WithLockTimeout(150 * time.Millisecond))
	start := time.Now()
	_, err := s.Patch(context.Background(), root, esFragment)
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeArtifactLocked, generrors.GetCode(err))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	text, err := s.Read(root)
	require.NoError(t, err)
	assert.Equal(t, config, text, "nothing is written without the lock")

	require.NoError(t, held.Unlock())
	_, err = s.Patch(context.Background(), root, esFragment)
	assert.NoError(t, err)
}

func TestBackups_Pruned(t *testing.T) {
	root := newProject(t)
	s := New(WithBackups(2))
	s.clock = tick(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	for i := 0; i < 4; i++ {
		_, err := s.backup(root, []byte{byte('a' + i)})
		require.NoError(t, err)
	}

	backups, err := s.Backups(root)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	newest, _ := os.ReadFile(backups[0])
	assert.Equal(t, "d", string(newest))
	older, _ := os.ReadFile(backups[1])
	assert.Equal(t, "c", string(older))
}

func TestBackups_Disabled(t *testing.T) {
	root := newProject(t)
	s := New(WithBackups(0))

	_, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)

	backups, err := s.Backups(root)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRestore(t *testing.T) {
	root := newProject(t)
	s := New()
	s.clock = tick(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	_, err := s.Patch(context.Background(), root, esFragment)
	require.NoError(t, err)

	from, err := s.Restore(context.Background(), root, "")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(from), "config.go"+BackupSuffix+".")

	text, err := s.Read(root)
	require.NoError(t, err)
	assert.Equal(t, config, text)

	// the patched text was backed up before the restore
	backups, err := s.Backups(root)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	latest, _ := os.ReadFile(backups[0])
	assert.Contains(t, string(latest), "NATS_URL")

	// restore by file name undoes the restore
	_, err = s.Restore(context.Background(), root, filepath.Base(backups[0]))
	require.NoError(t, err)
	text, _ = s.Read(root)
	assert.Contains(t, text, "NATS_URL")
}

func TestRestore_NoBackups(t *testing.T) {
	root := newProject(t)
	_, err := New().Restore(context.Background(), root, "")
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeFilesystem, generrors.GetCode(err))

	_, err = New().Restore(context.Background(), root, "config.go.bak.missing")
	require.Error(t, err)
}

func TestRead_Missing(t *testing.T) {
	_, err := New().Read(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeFilesystem, generrors.GetCode(err))
}

func TestWithPath(t *testing.T) {
	s := New(WithPath("internal/settings/settings.go"))
	assert.Equal(t, "internal/settings/settings.go", s.Path())
}
