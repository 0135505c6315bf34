package preflight

import (
	"fmt"
	"syscall"

	"github.com/dustin/go-humanize"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// MinDiskSpaceBytes is the free space required before any module runs.
const MinDiskSpaceBytes = 10 << 20

// CheckDiskSpace checks the free space on the filesystem holding path.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		result.Status = StatusWarn
		result.Required = false
		result.Message = fmt.Sprintf("cannot read free space: %v", err)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum %s)", formatBytes(free), formatBytes(MinDiskSpaceBytes))
	if free < MinDiskSpaceBytes {
		result.Status = StatusFail
		result.Err = generrors.New(generrors.ErrCodeDiskFull, "not enough free disk space", nil).
			WithDetail("path", path).
			WithDetail("free", formatBytes(free))
		return result
	}
	result.Status = StatusPass
	return result
}

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}
