// Command fractalcalc renders escape-time path density fractals, either once
// from the command line or on demand through its HTTP API.
package main

import (
	"context"
	"os"

	"github.com/agbru/fractalcalc/internal/app"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
