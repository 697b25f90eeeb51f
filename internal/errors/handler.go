package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleCalculationError formats and prints error messages related to a
// failed render run. Timeouts, cancellations and bad configuration get their
// own exit codes; a failed frame is reported with its index.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: The duration of the run before it failed.
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var (
		cfgErr  ConfigError
		calcErr CalculationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Failure. Invalid configuration: %v\n", cfgErr)
		return ExitErrorConfig
	case errors.As(err, &calcErr):
		fmt.Fprintf(out, "Status: Failure in frame %d%s. The calculation failed: %v\n", calcErr.Frame, msgSuffix, calcErr.Cause)
		return ExitErrorGeneric
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}

// HandleRejection reports a run whose last frame raised a statistics signal
// against the baseline captured on the reference frame.
//
// Returns:
//   - int: ExitErrorRejected.
func HandleRejection(frame, referenceFrame int, out io.Writer, colors ColorProvider) int {
	if colors == nil {
		colors = DefaultColorProvider{}
	}
	label := "Rejected"
	if y := colors.Yellow(); y != "" {
		label = y + label + colors.Reset()
	}
	fmt.Fprintf(out, "\nGlobal Status: %s. Frame %d deviates from the baseline of frame %d.\n", label, frame, referenceFrame)
	return ExitErrorRejected
}
