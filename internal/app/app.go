package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agbru/fractalcalc/internal/calibration"
	"github.com/agbru/fractalcalc/internal/cli"
	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/server"
	"github.com/agbru/fractalcalc/internal/ui"
)

// progressLogThreshold is the progress step at which the debug log reports
// a running frame.
const progressLogThreshold = 0.25

// Application represents the fractalcalc application instance.
// It encapsulates the configuration and provides methods to run
// the application in its modes (completion, server, render).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Presets provides the fractal definitions.
	Presets *fractal.Factory
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
	// Logger receives structured logs. Its level follows -log-level.
	Logger *logging.ZerologAdapter
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	presets := fractal.GlobalFactory()

	// args[0] is program name, args[1:] are the actual arguments
	programName := "fractalcalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, presets)
	if err != nil {
		return nil, err
	}
	cfg = applyAdaptiveWorkers(cfg)

	base := logging.NewLogger(errWriter, "app").Zerolog().Level(logging.ParseLevel(cfg.LogLevel))

	return &Application{
		Config:    cfg,
		Presets:   presets,
		ErrWriter: errWriter,
		Logger:    logging.NewZerologAdapter(base),
	}, nil
}

// applyAdaptiveWorkers replaces the "one per CPU" worker default with the
// hardware estimate. Explicit worker counts are kept.
func applyAdaptiveWorkers(cfg config.AppConfig) config.AppConfig {
	if cfg.Workers == 0 {
		cfg.Workers = calibration.EstimateWorkers()
	}
	return cfg
}

// Run executes the application based on the configured mode.
// It dispatches to the appropriate handler (completion, server or render).
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Handle completion script generation
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Initialize CLI theme (respects -no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor, os.Stdout)

	// Server mode
	if a.Config.ServerMode {
		return a.runServer()
	}

	return a.runRender(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Presets.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	srv := server.NewServer(a.Presets, a.Config, server.WithLogger(a.Logger))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runRender orchestrates the frames of a command-line run.
func (a *Application) runRender(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	def, err := a.Presets.Get(a.Config.Fractal)
	if err != nil {
		return apperrors.HandleCalculationError(apperrors.NewConfigError("%v", err), 0, a.ErrWriter, ui.Colors{})
	}
	m, err := orchestration.NewMachine(a.Config, def)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, ui.Colors{})
	}
	m.Progress().Register(machine.NewLoggingObserver(a.Logger.Zerolog(), progressLogThreshold))

	v := GetVersionInfo()
	a.Logger.Debug("render starting",
		logging.String("version", v.Version),
		logging.String("commit", v.Commit),
		logging.String("fractal", a.Config.Fractal),
		logging.Int("workers", a.Config.Workers),
		logging.Int("chunks", a.Config.Chunks),
	)

	// Skip verbose output in quiet and JSON modes
	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(a.Config, out)
	}

	start := time.Now()
	reports, err := orchestration.ExecuteFrames(ctx, m, a.Config, out,
		orchestration.NewStatsLogSink(m.Stats(), a.Logger),
		orchestration.NewRenderSink(a.Logger, a.Config.Palette, a.Config.SaveImages),
	)
	if err != nil {
		// Frames finished before a timeout or interrupt are still reported
		// on stderr.
		if apperrors.IsContextError(err) && len(reports) > 0 && !a.Config.JSONOutput {
			orchestration.AnalyzeFrames(reports, a.Config, a.ErrWriter)
		}
		return apperrors.HandleCalculationError(err, time.Since(start), a.ErrWriter, ui.Colors{})
	}

	return orchestration.AnalyzeFrames(reports, a.Config, out)
}

// IsHelpError checks if the error is a help flag error (-help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
