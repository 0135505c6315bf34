// Package artifact performs locked, backed-up, atomic read-modify-write
// cycles on a project's configuration artifact.
//
// Every mutation holds an exclusive file lock on
// <root>/.microgen/artifact.lock, copies the previous content into
// <root>/.microgen/backups and replaces the file with renameio, so a reader
// never observes a half-written artifact.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/patch"
)

// Layout of the per-project state directory.
const (
	StateDir  = ".microgen"
	LockFile  = "artifact.lock"
	BackupDir = "backups"
)

// Defaults used when no option overrides them.
const (
	DefaultBackups     = 3
	DefaultLockTimeout = 10 * time.Second
)

// Store patches the artifact at a fixed project-relative path.
type Store struct {
	path        string
	backups     int
	lockTimeout time.Duration
	format      bool
	logger      *slog.Logger
	clock       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPath sets the artifact path relative to the project root.
func WithPath(rel string) Option {
	return func(s *Store) { s.path = filepath.FromSlash(rel) }
}

// WithBackups sets how many backups to keep. Zero disables backups.
func WithBackups(n int) Option {
	return func(s *Store) { s.backups = n }
}

// WithLockTimeout bounds how long Patch and Restore wait for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithFormat toggles gofmt on patched text.
func WithFormat(on bool) Option {
	return func(s *Store) { s.format = on }
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store for pkg/config/config.go.
func New(opts ...Option) *Store {
	s := &Store{
		path:        filepath.FromSlash(patch.DefaultPath),
		backups:     DefaultBackups,
		lockTimeout: DefaultLockTimeout,
		format:      true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the artifact path relative to a project root.
func (s *Store) Path() string {
	return filepath.ToSlash(s.path)
}

// Read returns the artifact text of root.
func (s *Store) Read(root string) (string, error) {
	path := filepath.Join(root, s.path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", generrors.FilesystemError("read artifact", path, err)
	}
	return string(data), nil
}

// Exists reports whether root has an artifact.
func (s *Store) Exists(root string) bool {
	info, err := os.Stat(filepath.Join(root, s.path))
	return err == nil && info.Mode().IsRegular()
}

// Patch applies frag to the artifact of root under the lock.
//
// A missing artifact is not an error: the result carries manual
// instructions instead. Partial placement is reported through the result
// and never turns into an error here. The file is only rewritten when the
// patcher changed the text.
func (s *Store) Patch(ctx context.Context, root string, frag *patch.Fragment) (patch.Result, error) {
	lock := newFileLock(root)
	if err := lock.acquire(ctx, s.lockTimeout); err != nil {
		return patch.Result{}, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			s.logger.Warn("artifact unlock failed", "lock", lock.path, "error", err)
		}
	}()

	path := filepath.Join(root, s.path)
	opts := patch.Options{Format: s.format, Path: s.Path()}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		res := patch.Apply("", frag, opts)
		res.Instructions = append([]string{
			fmt.Sprintf("%s does not exist; create it (microgen init) or add the module configuration by hand", s.Path()),
		}, res.Instructions...)
		s.logger.Warn("artifact missing", "path", path, "module", fragModule(frag))
		return res, nil
	}
	if err != nil {
		return patch.Result{}, generrors.FilesystemError("stat artifact", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return patch.Result{}, generrors.FilesystemError("read artifact", path, err)
	}

	res := patch.Apply(string(data), frag, opts)
	for _, p := range res.Parts {
		s.logger.Debug("patch part",
			"module", fragModule(frag),
			"region", p.Region.String(),
			"status", p.Status.String(),
			"anchor", p.Anchor,
			"fallback", p.Fallback)
	}
	if !res.Changed {
		return res, nil
	}

	backup, err := s.backup(root, data)
	if err != nil {
		return res, err
	}
	if err := renameio.WriteFile(path, []byte(res.Text), info.Mode().Perm()); err != nil {
		return res, generrors.FilesystemError("write artifact", path, err)
	}
	s.logger.Info("artifact patched", "path", path, "module", fragModule(frag), "backup", backup)
	return res, nil
}

// Restore replaces the artifact with a backup. name may be a backup file
// name, a path or "" for the newest backup. The current content is backed
// up first so a restore can itself be undone.
func (s *Store) Restore(ctx context.Context, root, name string) (string, error) {
	lock := newFileLock(root)
	if err := lock.acquire(ctx, s.lockTimeout); err != nil {
		return "", err
	}
	defer func() { _ = lock.release() }()

	src, err := s.resolveBackup(root, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", generrors.FilesystemError("read backup", src, err)
	}

	path := filepath.Join(root, s.path)
	perm := os.FileMode(0o644)
	if current, err := os.ReadFile(path); err == nil {
		if info, err := os.Stat(path); err == nil {
			perm = info.Mode().Perm()
		}
		if _, err := s.backup(root, current); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", generrors.FilesystemError("create artifact directory", filepath.Dir(path), err)
	}
	if err := renameio.WriteFile(path, data, perm); err != nil {
		return "", generrors.FilesystemError("write artifact", path, err)
	}
	s.logger.Info("artifact restored", "path", path, "backup", src)
	return src, nil
}

func fragModule(frag *patch.Fragment) string {
	if frag == nil {
		return ""
	}
	return frag.Module
}
