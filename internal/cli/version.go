package cli

import (
	"github.com/spf13/cobra"
)

// Version information - defaults are overridden by ldflags during build
var (
	// Version is the current semantic version (set via ldflags)
	Version = "dev"
	// Commit is the git commit hash (set via ldflags)
	Commit = "unknown"
	// Date is the build date (set via ldflags)
	Date = "unknown"
	// BuiltBy is the builder identifier (set via ldflags)
	BuiltBy = "unknown"
)

// SetVersionInfo sets the version information from build-time ldflags.
// This is called by main() before Execute().
func SetVersionInfo(version, commit, date, builtBy string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if date != "" {
		Date = date
	}
	if builtBy != "" {
		BuiltBy = builtBy
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display the version, release date, and other build information for spoold.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("spoold version %s\n", Version)

			if Commit != "unknown" {
				cmd.Printf("commit: %s\n", Commit)
			}
			if Date != "unknown" {
				cmd.Printf("built at: %s\n", Date)
			}
			if BuiltBy != "unknown" {
				cmd.Printf("built by: %s\n", BuiltBy)
			}
		},
	}
}
