package main

import "spoold/internal/cli"

// Version information, set via ldflags during build
var (
	// version is the semantic version (e.g., "1.2.3")
	version = "dev"
	// commit is the git commit hash (short form)
	commit = "unknown"
	// date is the build timestamp (RFC3339 or similar)
	date = "unknown"
	// builtBy identifies the builder (e.g., "goreleaser")
	builtBy = "unknown"
)

func main() {
	// Inject version information into CLI package
	cli.SetVersionInfo(version, commit, date, builtBy)
	cli.Execute()
}
