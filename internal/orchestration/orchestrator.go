// Package orchestration drives a machine through the frames of a run and
// reports the outcome. It owns the frame loop: the statistics controller is
// cleaned before and updated after every frame, frame sinks are notified, and
// cancellation is honoured between frames only.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/agbru/fractalcalc/internal/area"
	"github.com/agbru/fractalcalc/internal/cli"
	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/domain"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/stats"
	"github.com/agbru/fractalcalc/internal/ui"
	"github.com/agbru/fractalcalc/pkg/models"
)

// ProgressBufferMultiplier defines the buffer size of the progress channel
// in chunks per frame. A larger buffer reduces dropped updates when the UI is
// slow to consume them.
const ProgressBufferMultiplier = 2

// FrameReport couples a calculated frame with its summary, taken right after
// the statistics controller ran for it.
type FrameReport struct {
	Frame   *machine.Frame
	Summary models.FrameSummary
}

// NewMachine builds the area, domain, statistics controller and machine for
// a validated configuration.
//
// Parameters:
//   - cfg: The application configuration.
//   - def: The fractal preset providing the recurrence.
//
// Returns:
//   - *machine.Machine: The engine, ready for ExecuteFrames.
//   - error: A ConfigError when the geometry is degenerate.
func NewMachine(cfg config.AppConfig, def fractal.Definition) (*machine.Machine, error) {
	a, err := area.New(cfg.ToAreaConfig())
	if err != nil {
		return nil, err
	}
	d, err := domain.New(a, cfg.Chunks)
	if err != nil {
		return nil, err
	}
	return machine.New(a, d, def.Math, stats.New(cfg.ReferenceFrame), cfg.ToMachineConfig())
}

// ExecuteFrames calculates cfg.FrameCount() frames on m.
//
// For every frame the statistics counters are cleaned, the frame is
// calculated, the controller is updated with the frame index and every sink
// is notified in order. ctx is checked before each frame; a started frame is
// always completed.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - m: The machine to drive.
//   - cfg: The application configuration.
//   - out: The io.Writer for progress display. Nothing is written in quiet or
//     JSON mode.
//   - sinks: Notified after every frame.
//
// Returns:
//   - []FrameReport: One report per completed frame.
//   - error: The context error, a CalculationError or a sink error.
func ExecuteFrames(ctx context.Context, m *machine.Machine, cfg config.AppConfig, out io.Writer, sinks ...FrameSink) ([]FrameReport, error) {
	frames := cfg.FrameCount()
	st := m.Stats()

	if !cfg.Quiet && !cfg.JSONOutput {
		chunks := m.Domain().Chunks()
		progressChan := make(chan machine.ProgressUpdate, chunks*chunks*ProgressBufferMultiplier)
		observer := machine.NewChannelObserver(progressChan)
		m.Progress().Register(observer)

		var displayWg sync.WaitGroup
		displayWg.Add(1)
		go cli.DisplayProgress(&displayWg, progressChan, frames, out)
		defer func() {
			m.Progress().Unregister(observer)
			close(progressChan)
			displayWg.Wait()
		}()
	}

	reports := make([]FrameReport, 0, frames)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		st.Clean()
		f, err := m.Calculate(ctx)
		if err != nil {
			return reports, err
		}
		st.Update(f.Index)

		report := FrameReport{Frame: f, Summary: Summarize(cfg.Fractal, m, f)}
		for _, sink := range sinks {
			if err := sink.FrameDone(ctx, report); err != nil {
				return reports, apperrors.WrapError(err, "frame %d sink", f.Index)
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Summarize converts a frame and the current state of the machine's
// statistics controller into its JSON summary.
func Summarize(fractalName string, m *machine.Machine, f *machine.Frame) models.FrameSummary {
	st := m.Stats()
	states := make(map[string]int, len(domain.States()))
	for _, s := range domain.States() {
		states[s.String()] = f.Counts.Of(s)
	}

	summary := models.FrameSummary{
		Fractal:     fractalName,
		Frame:       f.Index,
		Width:       m.Area().Width,
		Height:      m.Area().Height,
		Duration:    cli.FormatExecutionDuration(f.Duration),
		DurationMs:  f.Duration.Milliseconds(),
		Paths:       f.Data.Len(),
		PathPoints:  f.Data.Points(),
		PixelsTotal: f.Pixels.Total(),
		PixelsMax:   f.Pixels.Max(),
		PixelsBest:  f.Pixels.BestChunksValue(m.Domain().Chunks(), machine.BestChunks),
		States:      states,
		StatsPhase:  st.Phase.String(),
	}
	if st.Phase == stats.PhaseCaptured && f.Index > st.ReferenceFrame {
		sig := st.Signals
		summary.Signals = &models.SignalsSummary{
			Accepted:                  sig.Accepted(),
			NotEnoughPixelsTotalValue: sig.NotEnoughPixelsTotalValue,
			TooManyPixelsTotalValue:   sig.TooManyPixelsTotalValue,
			LessPixelsTotalValue:      sig.LessPixelsTotalValue,
			NotEnoughPixelsBestValue:  sig.NotEnoughPixelsBestValue,
			LessPixelsBestValue:       sig.LessPixelsBestValue,
			TooManyPathsTotal:         sig.TooManyPathsTotal,
			NotEnoughLongElements:     sig.NotEnoughLongElements,

			AveragePathLength:                        sig.AveragePathLength,
			DomainElementsToNewCalculationPathPoints: sig.DomainElementsToNewCalculationPathPoints,
		}
	}
	return summary
}

// Summaries extracts the summaries of reports.
func Summaries(reports []FrameReport) []models.FrameSummary {
	out := make([]models.FrameSummary, len(reports))
	for i, r := range reports {
		out[i] = r.Summary
	}
	return out
}

// Accepted reports whether the last frame of a run raised no statistics
// signal. Frames compared before the baseline exists are accepted.
func Accepted(summaries []models.FrameSummary) bool {
	if len(summaries) == 0 {
		return false
	}
	last := summaries[len(summaries)-1]
	return last.Signals == nil || last.Signals.Accepted
}

// AnalyzeFrames prints the outcome of a run and derives the exit code.
//
// In JSON mode the summaries are encoded as an array; in quiet mode one line
// per frame is printed; otherwise a table is shown, followed by the details
// of the last frame when cfg.Details is set. The summaries are also written
// to cfg.OutputFile when it is set.
//
// Parameters:
//   - reports: The reports of the completed frames.
//   - cfg: The application configuration.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: ExitSuccess, ExitErrorRejected when the last frame raised a
//     statistics signal, or ExitErrorGeneric when nothing could be reported.
func AnalyzeFrames(reports []FrameReport, cfg config.AppConfig, out io.Writer) int {
	if len(reports) == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No frame was calculated.\n")
		return apperrors.ExitErrorGeneric
	}
	summaries := Summaries(reports)
	accepted := Accepted(summaries)

	switch {
	case cfg.JSONOutput:
		if err := cli.WriteJSON(out, summaries); err != nil {
			fmt.Fprintf(out, "Error encoding JSON output: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
	case cfg.Quiet:
		cli.DisplayQuietSummaries(out, summaries)
	default:
		printFrameTable(summaries, cfg.ReferenceFrame, out)
	}

	if cfg.OutputFile != "" {
		if err := cli.WriteSummariesToFile(cfg.OutputFile, summaries); err != nil {
			fmt.Fprintf(out, "Error writing output file: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		if !cfg.Quiet && !cfg.JSONOutput {
			t := ui.CurrentTheme()
			fmt.Fprintf(out, "\n%s✓ Summaries saved to: %s%s%s\n", t.Success, t.Primary, cfg.OutputFile, t.Reset)
		}
	}

	if cfg.Quiet || cfg.JSONOutput {
		if !accepted {
			return apperrors.ExitErrorRejected
		}
		return apperrors.ExitSuccess
	}

	last := summaries[len(summaries)-1]
	code := apperrors.ExitSuccess
	if !accepted {
		code = apperrors.HandleRejection(last.Frame, cfg.ReferenceFrame, out, ui.Colors{})
	} else {
		fmt.Fprintf(out, "\nGlobal Status: %s. %d frame(s) calculated.\n",
			ui.Paint(ui.CurrentTheme().Success, "Success"), len(summaries))
	}
	if cfg.Details {
		cli.DisplayFrameDetails(last, out)
	}
	return code
}

// printFrameTable writes one aligned row per frame.
func printFrameTable(summaries []models.FrameSummary, referenceFrame int, out io.Writer) {
	t := ui.CurrentTheme()
	fmt.Fprintf(out, "\n--- Frame Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sFrame\tDuration\tPaths\tPoints\tPixels\tBest chunks\tGood paths\tStatus%s\n", t.Bold, t.Reset)

	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			s.Frame, ui.Paint(t.Warning, s.Duration), s.Paths, s.PathPoints,
			s.PixelsTotal, s.PixelsBest, s.States[domain.GoodPath.String()], frameStatus(s, referenceFrame, t))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

func frameStatus(s models.FrameSummary, referenceFrame int, t ui.Theme) string {
	switch {
	case s.Signals != nil && s.Signals.Accepted:
		return ui.Paint(t.Success, "✅ Accepted")
	case s.Signals != nil:
		return ui.Paint(t.Warning, "⚠ Rejected")
	case s.Frame == referenceFrame:
		return ui.Paint(t.Primary, "Baseline")
	}
	return ui.Paint(t.Muted, "Warm-up")
}
