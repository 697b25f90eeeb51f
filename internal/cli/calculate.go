package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/ui"
)

// PrintExecutionConfig displays the current execution configuration to the user.
// It shows the fractal, the plane region, the iteration bounds and the
// environment the frames are calculated on.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	t := ui.CurrentTheme()
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Rendering %s%s%s at %s%dx%d%s with a timeout of %s%s%s.\n",
		t.Primary, cfg.Fractal, t.Reset, t.Primary, cfg.Width, cfg.Height, t.Reset, t.Warning, cfg.Timeout, t.Reset)
	writeOut(out, "Area: centre (%s%g, %g%s), size %s%g%s, multiplier %s%s%s.\n",
		t.Primary, cfg.CenterRe, cfg.CenterIm, t.Reset, t.Primary, cfg.Size, t.Reset, t.Primary, cfg.Multiplier, t.Reset)
	writeOut(out, "Iterations: min %s%d%s, max %s%d%s, boundary %g.\n",
		t.Primary, cfg.IterationMin, t.Reset, t.Primary, cfg.IterationMax, t.Reset, cfg.Boundary)

	workers := "one per CPU"
	if cfg.Workers > 0 {
		workers = fmt.Sprintf("%d", cfg.Workers)
	}
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s, %s%d%s chunks per axis, workers: %s.\n",
		t.Primary, runtime.NumCPU(), t.Reset, t.Primary, runtime.Version(), t.Reset, t.Primary, cfg.Chunks, t.Reset, workers)
}

// PrintExecutionMode displays how many frames will be calculated.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionMode(cfg config.AppConfig, out io.Writer) {
	var modeDesc string
	if n := cfg.FrameCount(); n > 1 {
		modeDesc = fmt.Sprintf("%d frames, statistics baseline at frame %d", n, cfg.ReferenceFrame)
	} else {
		modeDesc = "single frame"
	}
	writeOut(out, "Execution mode: %s.\n", modeDesc)
	writeOut(out, "\n--- Starting Execution ---\n")
}

// writeOut writes a formatted string to the output writer.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
