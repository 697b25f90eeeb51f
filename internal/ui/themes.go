// Package ui provides theme and color support for the command-line output.
// It is a leaf package: the CLI, the usage text and the error handler read
// the current theme from here instead of hard-coding escape codes.
package ui

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// Theme defines a color scheme for terminal output.
// Each field contains an ANSI escape code for the corresponding category.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary is the accent color for flags, headings and values.
	Primary string
	// Muted is used for defaults and secondary information.
	Muted string
	// Success marks accepted frames.
	Success string
	// Warning marks raised statistics signals and section titles.
	Warning string
	// Error marks failures.
	Error string
	// Bold is the escape code for bold text.
	Bold string
	// Reset clears all formatting.
	Reset string
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Primary: "\033[38;5;39m",  // Bright blue
		Muted:   "\033[38;5;245m", // Grey
		Success: "\033[38;5;82m",  // Bright green
		Warning: "\033[38;5;220m", // Yellow
		Error:   "\033[38;5;196m", // Red
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Primary: "\033[38;5;27m",  // Dark blue
		Muted:   "\033[38;5;240m", // Dark grey
		Success: "\033[38;5;28m",  // Dark green
		Warning: "\033[38;5;130m", // Orange
		Error:   "\033[38;5;124m", // Dark red
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// NoColorTheme disables all color output.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name: "dark", "light" or "none".
// Unknown names select the dark theme.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme picks the theme for output written to out. Colors are disabled
// when noColor is set, when NO_COLOR is present in the environment
// (https://no-color.org/), or when out is not a terminal.
//
// Parameters:
//   - noColor: If true, disables all color output regardless of environment.
//   - out: The file the CLI writes to, usually os.Stdout.
func InitTheme(noColor bool, out *os.File) {
	if noColor || !IsTerminal(out) {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of the terminal attached to f, or fallback
// when it cannot be determined.
func TerminalWidth(f *os.File, fallback int) int {
	if !IsTerminal(f) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
