// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies the client to the grant service.
func UserAgent() string {
	return "grants/" + Version
}

// String is the one-line build description printed by `grants version`.
func String() string {
	return fmt.Sprintf("grants %s (commit %s, built %s)", Version, Commit, Date)
}
