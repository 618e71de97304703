package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func stamp(t *testing.T, version, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldDate, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = oldVersion, oldCommit, oldDate, oldRead
	})
	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestStringUsesLinkerValues(t *testing.T) {
	stamp(t, "1.2.3", "abc123", "2026-10-01", &debug.BuildInfo{
		Main:     debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}},
	})

	got := String()
	require.Contains(t, got, "hark 1.2.3")
	require.Contains(t, got, "commit=abc123")
	require.Contains(t, got, "date=2026-10-01")
	require.Contains(t, got, "go=go")
}

func TestCurrentFallsBackToBuildInfo(t *testing.T) {
	stamp(t, "dev", "none", "unknown", &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
		},
	})

	info := Current()
	require.Equal(t, "v0.4.0", info.Version)
	require.Equal(t, "0123456789ab", info.Commit)
	require.Equal(t, "2026-09-30T12:00:00Z", info.Date)
}

func TestCurrentKeepsDevForLocalBuilds(t *testing.T) {
	stamp(t, "dev", "none", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	require.Equal(t, "dev", Current().Version)

	stamp(t, "dev", "none", "unknown", nil)
	info := Current()
	require.Equal(t, Info{Version: "dev", Commit: "none", Date: "unknown", Go: info.Go}, info)
}
