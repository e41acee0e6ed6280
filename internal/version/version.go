// Package version reports the dotrewrite build.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/dotrewrite/internal/version.Version=v1.0.0".
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Current returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Current() string {
	if Version != "unknown" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("dotrewrite %s (commit %s, built %s)", Current(), GitCommit, BuildTime)
}
