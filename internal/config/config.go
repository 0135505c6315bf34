package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/logging"
)

// Overwrite policies for generated files that already exist.
const (
	OverwriteSkip   = "skip"
	OverwriteAlways = "overwrite"
)

// ProjectConfigFile is the optional per-project settings file.
const ProjectConfigFile = ".microgen.yaml"

// Config represents the complete microgen tool configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Templates TemplatesConfig `yaml:"templates" json:"templates"`
	Generate  GenerateConfig  `yaml:"generate" json:"generate"`
	Patch     PatchConfig     `yaml:"patch" json:"patch"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// TemplatesConfig configures where template sources come from.
type TemplatesConfig struct {
	// Root is a directory holding the template tree. Empty uses the tree
	// compiled into the binary.
	Root string `yaml:"root" json:"root" env:"MICROGEN_TEMPLATE_ROOT"`

	// CacheSize is the number of raw template sources kept in memory.
	// 0 disables the cache. It only applies to the compiled-in tree: a
	// template root on disk is read on every render.
	CacheSize int `yaml:"cache_size" json:"cache_size" env:"MICROGEN_CACHE_SIZE"`
}

// GenerateConfig configures file generation.
type GenerateConfig struct {
	// Overwrite is "skip" (existing files are left alone) or "overwrite".
	Overwrite string `yaml:"overwrite" json:"overwrite" env:"MICROGEN_OVERWRITE"`
}

// PatchConfig configures edits to the generated configuration artifact.
type PatchConfig struct {
	// Backups is how many timestamped backups of the artifact to keep.
	// 0 disables backups.
	Backups int `yaml:"backups" json:"backups" env:"MICROGEN_BACKUPS"`
	// Format runs gofmt over the artifact after a successful insertion.
	Format bool `yaml:"format" json:"format" env:"MICROGEN_FORMAT"`
	// LockTimeout bounds how long to wait for the artifact lock (e.g. "10s").
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout" env:"MICROGEN_LOCK_TIMEOUT"`
}

// LogConfig configures console logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level" env:"MICROGEN_LOG_LEVEL"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Templates: TemplatesConfig{
			Root:      "", // embedded tree
			CacheSize: 128,
		},
		Generate: GenerateConfig{
			Overwrite: OverwriteSkip,
		},
		Patch: PatchConfig{
			Backups:     3,
			Format:      true,
			LockTimeout: "10s",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/microgen/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/microgen/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "microgen", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "microgen", "config.yaml")
	}
	return filepath.Join(home, ".config", "microgen", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/microgen/config.yaml)
//  3. Project config (.microgen.yaml in the project root)
//  4. Environment variables (MICROGEN_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if dir != "" {
		if err := cfg.loadFromFile(dir); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, generrors.ConfigError("invalid MICROGEN_* environment override", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads .microgen.yaml, or .microgen.yml as a fallback.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigFile)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".microgen.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML decodes path on top of the current values. Keys absent from the
// file keep their current value, so explicit zeros and false are honored.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return generrors.FilesystemError("read config", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return generrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// LockTimeoutDuration returns the parsed artifact lock timeout.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Patch.LockTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// TemplateCacheSize returns the cache size for the configured template
// source. Templates under Root are never cached, so edits to them are picked
// up by the next render.
func (c *Config) TemplateCacheSize() int {
	if c.Templates.Root != "" {
		return 0
	}
	return c.Templates.CacheSize
}

// ForceOverwrite reports whether existing generated files are rewritten.
func (c *Config) ForceOverwrite() bool {
	return c.Generate.Overwrite == OverwriteAlways
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Generate.Overwrite) {
	case OverwriteSkip, OverwriteAlways:
		c.Generate.Overwrite = strings.ToLower(c.Generate.Overwrite)
	default:
		return generrors.ConfigError(
			fmt.Sprintf("generate.overwrite must be 'skip' or 'overwrite', got %q", c.Generate.Overwrite), nil)
	}

	if c.Templates.CacheSize < 0 {
		return generrors.ConfigError(
			fmt.Sprintf("templates.cache_size must be non-negative, got %d", c.Templates.CacheSize), nil)
	}
	if c.Patch.Backups < 0 {
		return generrors.ConfigError(
			fmt.Sprintf("patch.backups must be non-negative, got %d", c.Patch.Backups), nil)
	}

	d, err := time.ParseDuration(c.Patch.LockTimeout)
	if err != nil || d <= 0 {
		return generrors.ConfigError(
			fmt.Sprintf("patch.lock_timeout must be a positive duration, got %q", c.Patch.LockTimeout), err)
	}

	if !logging.ValidLevel(c.Log.Level) {
		return generrors.ConfigError(
			fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}

	return nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, generrors.InternalError("failed to marshal config", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return generrors.FilesystemError("create config directory", filepath.Dir(path), err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return generrors.FilesystemError("write config", path, err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
