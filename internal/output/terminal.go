package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY returns true if the file descriptor refers to a terminal. Returns
// false for pipes, redirected output and non-interactive environments.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SupportsColor returns true if the current terminal supports color output.
//
// Color support is disabled when:
//   - stdout is not a TTY (piped to a file or another process)
//   - NO_COLOR is set (per no-color.org)
//   - TERM is "dumb"
func SupportsColor() bool {
	if !IsTTY(os.Stdout) {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
