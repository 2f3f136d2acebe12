package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colors should be used on stdout,
// following the informal CLI conventions: NO_COLOR (https://no-color.org)
// beats everything, CLICOLOR_FORCE=1 overrides TTY detection, CLICOLOR=0
// opts out, and otherwise color tracks whether stdout is a terminal.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case envFlag("CLICOLOR_FORCE") == "1":
		return true
	case envFlag("CLICOLOR") == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func envFlag(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
