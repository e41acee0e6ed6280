package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_PrefersLdflags(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", Current())
}

func TestCurrent_FallsBackToModuleVersion(t *testing.T) {
	origVersion, origRead := Version, readBuildInfo
	t.Cleanup(func() { Version, readBuildInfo = origVersion, origRead })
	Version = "unknown"

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}}, true
	}
	assert.Equal(t, "v0.4.0", Current())

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}
	assert.Equal(t, "unknown", Current())
}

func TestString(t *testing.T) {
	assert.Contains(t, String(), "dotrewrite ")
	assert.Contains(t, String(), "commit "+GitCommit)
}
