package ui

import (
	"fmt"

	"github.com/alfredjeanlab/freightdesk/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorError  = 167 // red
)

var noColor = !ShouldUseColor()

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderError returns s in red.
func RenderError(s string) string { return paint(colorError, s) }

// RenderStatus colors a normalized status bucket.
func RenderStatus(status string) string {
	switch status {
	case model.StatusAvailable:
		return paint(colorAccent, status)
	case model.StatusAssigned, model.StatusInTransit:
		return paint(colorWarn, status)
	case model.StatusCompleted:
		return paint(colorOK, status)
	case model.ErrorMarker:
		return paint(colorError, status)
	}
	return status
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ForceColor enables color output globally regardless of the terminal.
func ForceColor() {
	noColor = false
}
