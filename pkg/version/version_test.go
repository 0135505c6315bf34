package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restore resets the package variables after a test mutates them.
func restore(t *testing.T) {
	t.Helper()
	v, c, d, src := Version, Commit, Date, source
	t.Cleanup(func() { Version, Commit, Date, source = v, c, d, src })
}

func TestVersion_IsDevOrSemver(t *testing.T) {
	require.NotEmpty(t, Version)
	if Version == "dev" {
		return
	}
	assert.Regexp(t, regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.+-]+)?$`), Version)
}

func TestString(t *testing.T) {
	str := String()
	assert.Contains(t, str, "microgen "+Version)
	assert.Contains(t, str, "commit: "+Commit)
	assert.Contains(t, str, "go: "+runtime.Version())
	assert.Equal(t, Version, Short())
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, Date, info.Date)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	for _, key := range []string{"version", "commit", "date", "go_version", "os", "arch", "source"} {
		assert.Contains(t, parsed, key)
	}
}

func TestFillFromBuildInfo(t *testing.T) {
	tests := []struct {
		name                    string
		version, commit, date   string
		info                    debug.BuildInfo
		wantVersion, wantCommit string
		wantDate, wantSource    string
	}{
		{
			name: "go install build",
			version: "dev", commit: "unknown", date: "unknown",
			info: debug.BuildInfo{
				Main: debug.Module{Version: "v0.4.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				},
			},
			wantVersion: "v0.4.0", wantCommit: "0123456", wantDate: "2026-01-02T03:04:05Z",
			wantSource: SourceBuildInfo,
		},
		{
			name: "local build keeps dev",
			version: "dev", commit: "unknown", date: "unknown",
			info:        debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			wantVersion: "dev", wantCommit: "unknown", wantDate: "unknown",
			wantSource: SourceDevel,
		},
		{
			name: "ldflags win",
			version: "1.0.0", commit: "abc1234", date: "yesterday",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.4.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}},
			},
			wantVersion: "1.0.0", wantCommit: "abc1234", wantDate: "yesterday",
			wantSource: SourceLdflags,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore(t)
			Version, Commit, Date, source = tt.version, tt.commit, tt.date, SourceLdflags

			fillFromBuildInfo(&tt.info)

			assert.Equal(t, tt.wantVersion, Version)
			assert.Equal(t, tt.wantCommit, Commit)
			assert.Equal(t, tt.wantDate, Date)
			assert.Equal(t, tt.wantSource, GetInfo().Source)
		})
	}
}
