// Package version reports build information for microgen.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/Aman-CERP/microgen/pkg/version.Version=v1.2.3".
// A binary built by `go install module@version` has none of them set, so
// init falls back to the build info the toolchain embeds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"

	// GoVersion is the toolchain the binary was built with.
	GoVersion = runtime.Version()

	// source records where Version came from.
	source = SourceLdflags
)

// Where the reported version came from.
const (
	SourceLdflags   = "ldflags"
	SourceBuildInfo = "buildinfo"
	SourceDevel     = "devel"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromBuildInfo(info)
}

// fillFromBuildInfo replaces unset values with the module version and the
// vcs settings recorded by the toolchain.
func fillFromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" {
		source = SourceDevel
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
			source = SourceBuildInfo
		}
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > 7 {
					Commit = Commit[:7]
				}
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		}
	}
}

// BuildInfo is the JSON shape of `microgen version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Source    string `json:"source"`
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("microgen %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns just the version.
func Short() string {
	return Version
}

// GetInfo returns the build information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Source:    source,
	}
}
