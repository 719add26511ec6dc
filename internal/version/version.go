// Package version holds skelgen's build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X skelgen/internal/version.Version=1.0.0 -X skelgen/internal/version.Commit=abc123"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

func init() {
	if Commit != "unknown" {
		return
	}
	info, ok := readBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		}
	}
}

// Info returns the version with a short commit, e.g. "0.3.0 (1a2b3c4)".
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return fmt.Sprintf("skelgen version %s\nCommit: %s\nBuilt: %s\nGo: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
