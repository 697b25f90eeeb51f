// The cli package provides functions for building a command-line interface (CLI)
// for the fractal calculator. It handles the asynchronous display of chunk
// progress and formats frame summaries for a clear and readable presentation.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/agbru/fractalcalc/internal/domain"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/ui"
	"github.com/agbru/fractalcalc/pkg/models"
	"github.com/briandowns/spinner"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is the part of a terminal spinner DisplayProgress drives.
type Spinner interface {
	// Start starts the spinner animation.
	Start()
	// Stop stops the spinner animation.
	Stop()
	// UpdateSuffix updates the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner wraps briandowns/spinner to implement Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

// newSpinner is replaced in tests.
var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, options...)
	return &realSpinner{s}
}

// ProgressState tracks the chunk progress of every frame of a run.
type ProgressState struct {
	progresses []float64
	numFrames  int
}

// NewProgressState creates a state tracking numFrames frames.
//
// Parameters:
//   - numFrames: The number of frames of the run.
//
// Returns:
//   - *ProgressState: A pointer to the new progress state object.
func NewProgressState(numFrames int) *ProgressState {
	return &ProgressState{
		progresses: make([]float64, numFrames),
		numFrames:  numFrames,
	}
}

// Update records the completed chunk fraction of one frame. Out of range
// frames are ignored.
//
// Parameters:
//   - frame: The frame index (0 to numFrames-1).
//   - value: The progress value (0.0 to 1.0).
func (ps *ProgressState) Update(frame int, value float64) {
	if frame >= 0 && frame < len(ps.progresses) {
		ps.progresses[frame] = value
	}
}

// CalculateAverage computes the progress of the whole run.
//
// Returns:
//   - float64: The average progress (0.0 to 1.0).
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numFrames == 0 {
		return 0.0
	}
	var totalProgress float64
	for _, p := range ps.progresses {
		totalProgress += min(max(p, 0), 1)
	}
	return totalProgress / float64(ps.numFrames)
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress manages the asynchronous display of a spinner and progress
// bar while frames are calculated. It is designed to run in a dedicated
// goroutine and returns when progressChan is closed.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving chunk progress updates.
//   - numFrames: The number of frames of the run.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan machine.ProgressUpdate, numFrames int, out io.Writer) {
	defer wg.Done()
	if numFrames <= 0 {
		for range progressChan { // Drain the channel
		}
		return
	}

	state := NewProgressWithETA(numFrames)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := "Progress"
	if numFrames > 1 {
		label = fmt.Sprintf("Progress (%d frames)", numFrames)
	}

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				if !spinnerStopped {
					s.Stop()
					spinnerStopped = true
				}
				// The final line stays on screen.
				avg := state.CalculateAverage()
				fmt.Fprintf(out, "%s: %6.2f%% [%s]\n", label, avg*100, progressBar(avg, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.Frame, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(" " + label + ": " + FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth))
		}
	}
}

// DisplayFrameDetails prints the element states and statistics signals of a
// frame summary.
//
// Parameters:
//   - s: The frame summary.
//   - out: The io.Writer for the output.
func DisplayFrameDetails(s models.FrameSummary, out io.Writer) {
	t := ui.CurrentTheme()
	fmt.Fprintf(out, "\n%s--- Frame %d details ---%s\n", t.Bold, s.Frame, t.Reset)
	fmt.Fprintf(out, "Calculation time : %s\n", ui.Paint(t.Success, s.Duration))
	fmt.Fprintf(out, "Paths recorded   : %s (%s points)\n",
		ui.Paint(t.Primary, formatNumber(int64(s.Paths))), formatNumber(int64(s.PathPoints)))
	fmt.Fprintf(out, "Histogram        : total %s, max %d, best chunks %s\n",
		formatNumber(int64(s.PixelsTotal)), s.PixelsMax, formatNumber(int64(s.PixelsBest)))

	fmt.Fprintf(out, "Element states   :")
	for _, st := range domain.States() {
		fmt.Fprintf(out, " %s=%s", st, ui.Paint(ui.StateColor(st), formatNumber(int64(s.States[st.String()]))))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Statistics       : baseline %s\n", s.StatsPhase)
	if s.Signals == nil {
		return
	}
	sig := s.Signals
	raised := []struct {
		name string
		on   bool
	}{
		{"not enough pixels total value", sig.NotEnoughPixelsTotalValue},
		{"too many pixels total value", sig.TooManyPixelsTotalValue},
		{"less pixels total value", sig.LessPixelsTotalValue},
		{"not enough pixels best value", sig.NotEnoughPixelsBestValue},
		{"less pixels best value", sig.LessPixelsBestValue},
		{"too many paths total", sig.TooManyPathsTotal},
		{"not enough long elements", sig.NotEnoughLongElements},
	}
	for _, r := range raised {
		if r.on {
			fmt.Fprintf(out, "  %s\n", ui.Paint(t.Warning, "signal: "+r.name))
		}
	}
	fmt.Fprintf(out, "Average path     : %.2f points\n", sig.AveragePathLength)
	fmt.Fprintf(out, "Elements/points  : %.4f\n", sig.DomainElementsToNewCalculationPathPoints)
}

// formatNumber inserts thousand separators.
func formatNumber(n int64) string {
	return formatNumberString(fmt.Sprintf("%d", n))
}

// formatNumberString inserts thousand separators into a numeric string.
//
// Parameters:
//   - s: The numeric string to format.
//
// Returns:
//   - string: The formatted string with comma separators.
func formatNumberString(s string) string {
	if len(s) == 0 {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix = "-"
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var builder strings.Builder
	builder.Grow(len(prefix) + n + (n-1)/3)
	builder.WriteString(prefix)

	firstGroupLen := n % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(s[:firstGroupLen])
	for i := firstGroupLen; i < n; i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}
