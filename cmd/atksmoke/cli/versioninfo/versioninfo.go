// Package versioninfo holds build metadata stamped in via -ldflags.
package versioninfo

import (
	"fmt"
	"runtime"
)

// Version is overridden at release build time.
var Version = "dev"

// Commit is the short git SHA of the build, when stamped.
var Commit = "none"

// String returns the full human-readable version line.
func String() string {
	return fmt.Sprintf("atksmoke %s (%s) %s %s/%s", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
