package version

import (
	"runtime"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	orig, commit, built := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = orig, commit, built })

	Version, GitCommit, BuildTime = "dev", "abc123", "2026-01-02"
	if got, want := GetFullVersion(), "mochibot/dev (commit: abc123, built: 2026-01-02)"; got != want {
		t.Fatalf("GetFullVersion() = %q, want %q", got, want)
	}

	Version = "v1.4.0"
	if got, want := GetFullVersion(), "mochibot/v1.4.0"; got != want {
		t.Fatalf("GetFullVersion() = %q, want %q", got, want)
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version || info.Commit != GitCommit {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("expected go version %q, got %q", runtime.Version(), info.GoVersion)
	}
}
