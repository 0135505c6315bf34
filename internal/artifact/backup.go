package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// BackupSuffix separates the artifact name from the backup timestamp.
const BackupSuffix = ".bak"

// backupStamp sorts lexically in time order.
const backupStamp = "20060102-150405.000000"

func (s *Store) backupDir(root string) string {
	return filepath.Join(root, StateDir, BackupDir)
}

func (s *Store) backupPrefix() string {
	return filepath.Base(s.path) + BackupSuffix + "."
}

// backup copies data into a new timestamped backup and prunes old ones.
// It returns "" when backups are disabled.
func (s *Store) backup(root string, data []byte) (string, error) {
	if s.backups <= 0 {
		return "", nil
	}
	dir := s.backupDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", generrors.FilesystemError("create backup directory", dir, err)
	}

	path := filepath.Join(dir, s.backupPrefix()+s.now().Format(backupStamp))
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", generrors.FilesystemError("write backup", path, err)
	}

	if err := s.prune(root); err != nil {
		// Best effort, the backup itself succeeded.
		s.logger.Warn("backup cleanup failed", "dir", dir, "error", err)
	}
	return path, nil
}

// Backups lists the artifact backups of root, newest first.
func (s *Store) Backups(root string) ([]string, error) {
	dir := s.backupDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, generrors.FilesystemError("list backups", dir, err)
	}

	prefix := s.backupPrefix()
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		backups = append(backups, filepath.Join(dir, entry.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// prune removes backups beyond the configured count, keeping the newest.
func (s *Store) prune(root string) error {
	backups, err := s.Backups(root)
	if err != nil {
		return err
	}
	if len(backups) <= s.backups {
		return nil
	}
	var firstErr error
	for _, old := range backups[s.backups:] {
		if err := os.Remove(old); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resolveBackup accepts "", a backup file name or a path. "" selects the
// newest backup.
func (s *Store) resolveBackup(root, name string) (string, error) {
	if name == "" {
		backups, err := s.Backups(root)
		if err != nil {
			return "", err
		}
		if len(backups) == 0 {
			return "", generrors.New(generrors.ErrCodeFilesystem,
				fmt.Sprintf("no backups of %s in %s", s.path, s.backupDir(root)), os.ErrNotExist).
				WithSuggestion("Backups are written each time a module patches the configuration")
		}
		return backups[0], nil
	}
	if !strings.ContainsRune(name, filepath.Separator) && !strings.Contains(name, "/") {
		name = filepath.Join(s.backupDir(root), name)
	}
	if _, err := os.Stat(name); err != nil {
		return "", generrors.FilesystemError("open backup", name, err)
	}
	return name, nil
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
