// Package version holds build-time version information, injected via
// -ldflags at release build time.
package version

// Version is the semantic version of this build.
var Version = "dev"

// Commit is the short git commit hash of this build.
var Commit = "unknown"
