package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// FilesystemError classifies an OS error into a filesystem error code.
// The offending path is always attached as the "path" detail.
func FilesystemError(op, path string, err error) *GenError {
	if err == nil {
		return nil
	}

	code := ErrCodeFilesystem
	var suggestion string
	switch {
	case errors.Is(err, fs.ErrPermission):
		code = ErrCodeFilePermission
		suggestion = "Check the permissions of the project directory"
	case errors.Is(err, syscall.ENOSPC):
		code = ErrCodeDiskFull
		suggestion = "Free some disk space and re-run the command"
	case errors.Is(err, fs.ErrExist), errors.Is(err, syscall.ENOTDIR), errors.Is(err, syscall.EISDIR):
		code = ErrCodePathCollision
		suggestion = "A file and a directory share this path; move one of them away"
	}

	ge := New(code, fmt.Sprintf("%s %s: %v", op, path, err), err).WithDetail("path", path)
	if suggestion != "" {
		ge.WithSuggestion(suggestion)
	}
	return ge
}
