package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/aspect-build/prctl/internal/version.Version=0.1.0
//	  -X github.com/aspect-build/prctl/internal/version.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// commit falls back to the VCS revision stamped by the go tool when
// GitCommit was not set at link time.
func commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return GitCommit
}

// String returns a human-readable version string.
func String(binaryName string) string {
	return fmt.Sprintf("%s %s (commit=%s, go=%s, %s/%s)",
		binaryName, Version, commit(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
