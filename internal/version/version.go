// Package version exposes build metadata stamped via ldflags:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.3"
package version

//nolint:revive // Set at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
