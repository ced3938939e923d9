package ui

import "golang.org/x/term"

// IsTTY reports whether fd refers to an interactive terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the terminal width in columns, falling back to 80
// when it cannot be determined.
func TermWidth(fd uintptr) int {
	w, _, err := term.GetSize(int(fd))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
