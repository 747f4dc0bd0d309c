// Package version exposes the build metadata stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is injected at build time via -ldflags.
	Version = "dev"
	// BuildTime is injected at build time via -ldflags.
	BuildTime = "unknown"
	// GitCommit is injected at build time via -ldflags.
	GitCommit = "unknown"
)

const appName = "mochibot"

// Info is the build metadata reported by the ops gateway.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the short semantic version.
func GetVersion() string {
	return Version
}

// GetInfo returns the full build metadata.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// GetFullVersion returns a user-facing build string. Dev builds carry the
// commit and build time since there is no tag to go by.
func GetFullVersion() string {
	if Version == "dev" {
		return fmt.Sprintf("%s/%s (commit: %s, built: %s)", appName, Version, GitCommit, BuildTime)
	}
	return fmt.Sprintf("%s/%s", appName, Version)
}
