package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.microgen/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".microgen", "logs")
	}
	return filepath.Join(home, ".microgen", "logs")
}

// DefaultLogPath returns the default debug log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "microgen.log")
}
