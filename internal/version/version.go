// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/docmigrate/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release of the binary.
var Version = "dev"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("docmigrate %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
