package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether order tables written to stdout get ANSI
// colors.
func ShouldUseColor() bool {
	return colorFor(os.Stdout)
}

// colorFor applies NO_COLOR (any value wins), then CLICOLOR_FORCE=1, then
// CLICOLOR=0, and finally falls back to whether f is a terminal.
func colorFor(f *os.File) bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case envIs("CLICOLOR_FORCE", "1"):
		return true
	case envIs("CLICOLOR", "0"):
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func envIs(key, want string) bool {
	return strings.TrimSpace(os.Getenv(key)) == want
}
