package ui

import "github.com/agbru/fractalcalc/internal/domain"

// Colors adapts the current theme to the apperrors.ColorProvider interface.
type Colors struct{}

// Yellow returns the warning color of the current theme.
func (Colors) Yellow() string { return CurrentTheme().Warning }

// Reset returns the reset escape code of the current theme.
func (Colors) Reset() string { return CurrentTheme().Reset }

// StateColor returns the color used for element counts in state s.
func StateColor(s domain.State) string {
	t := CurrentTheme()
	switch s {
	case domain.GoodPath:
		return t.Success
	case domain.TooLong:
		return t.Primary
	case domain.TooShort:
		return t.Muted
	case domain.ActiveNew, domain.Active:
		return t.Warning
	}
	return t.Reset
}

// Paint wraps text in color and a reset, or returns it unchanged when the
// current theme has no colors.
func Paint(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + CurrentTheme().Reset
}
