package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// isolate points the user config at an empty directory so a developer's
// real ~/.config/microgen never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, k := range []string{
		"MICROGEN_TEMPLATE_ROOT", "MICROGEN_CACHE_SIZE", "MICROGEN_OVERWRITE",
		"MICROGEN_BACKUPS", "MICROGEN_FORMAT", "MICROGEN_LOCK_TIMEOUT", "MICROGEN_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Empty(t, cfg.Templates.Root)
	assert.Equal(t, 128, cfg.Templates.CacheSize)
	assert.Equal(t, OverwriteSkip, cfg.Generate.Overwrite)
	assert.Equal(t, 3, cfg.Patch.Backups)
	assert.True(t, cfg.Patch.Format)
	assert.Equal(t, "10s", cfg.Patch.LockTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFileOverridesUserFile(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "microgen", "config.yaml"), `
templates:
  cache_size: 16
log:
  level: info
`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), `
log:
  level: debug
patch:
  backups: 0
  format: false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Templates.CacheSize, "user value survives")
	assert.Equal(t, "debug", cfg.Log.Level, "project wins over user")
	assert.Equal(t, 0, cfg.Patch.Backups, "explicit zero honored")
	assert.False(t, cfg.Patch.Format, "explicit false honored")
	assert.Equal(t, "10s", cfg.Patch.LockTimeout, "untouched default")
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".microgen.yml"), "generate:\n  overwrite: overwrite\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.ForceOverwrite())
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "log:\n  level: info\n")

	t.Setenv("MICROGEN_LOG_LEVEL", "error")
	t.Setenv("MICROGEN_TEMPLATE_ROOT", "/srv/templates")
	t.Setenv("MICROGEN_BACKUPS", "7")
	t.Setenv("MICROGEN_FORMAT", "false")
	t.Setenv("MICROGEN_LOCK_TIMEOUT", "250ms")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/srv/templates", cfg.Templates.Root)
	assert.Equal(t, 7, cfg.Patch.Backups)
	assert.False(t, cfg.Patch.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeoutDuration())
}

func TestLoad_BadEnvValueIsConfigError(t *testing.T) {
	isolate(t)
	t.Setenv("MICROGEN_BACKUPS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeConfigInvalid, generrors.GetCode(err))
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "patch:\n  backupz: 2\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeConfigInvalid, generrors.GetCode(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "log: [unclosed\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, generrors.ErrCodeConfigInvalid, generrors.GetCode(err))
}

func TestLoad_EmptyFileIsFine(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"overwrite upper case normalized", func(c *Config) { c.Generate.Overwrite = "OVERWRITE" }, false},
		{"unknown overwrite policy", func(c *Config) { c.Generate.Overwrite = "merge" }, true},
		{"negative cache", func(c *Config) { c.Templates.CacheSize = -1 }, true},
		{"negative backups", func(c *Config) { c.Patch.Backups = -2 }, true},
		{"bad lock timeout", func(c *Config) { c.Patch.LockTimeout = "soon" }, true},
		{"zero lock timeout", func(c *Config) { c.Patch.LockTimeout = "0s" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, true},
		{"warning alias", func(c *Config) { c.Log.Level = "warning" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, generrors.ErrCodeConfigInvalid, generrors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetUserConfigPath_HonorsXDG(t *testing.T) {
	xdg := isolate(t)
	assert.Equal(t, filepath.Join(xdg, "microgen", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := NewConfig()
	cfg.Patch.Backups = 5
	cfg.Templates.Root = "/opt/tpl"
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigFile)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Patch.Backups)
	assert.Equal(t, "/opt/tpl", loaded.Templates.Root)
}

func TestLockTimeoutDuration_FallsBackOnGarbage(t *testing.T) {
	cfg := NewConfig()
	cfg.Patch.LockTimeout = "nope"
	assert.Equal(t, 10*time.Second, cfg.LockTimeoutDuration())
}

func TestTemplateCacheSize_DisabledForTemplateRoot(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 128, cfg.TemplateCacheSize())

	cfg.Templates.Root = t.TempDir()
	assert.Equal(t, 0, cfg.TemplateCacheSize())
}
