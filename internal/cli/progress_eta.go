package cli

import (
	"fmt"
	"time"
)

// maxETA caps the estimate shown while the rate is still unreliable.
const maxETA = 24 * time.Hour

// ProgressWithETA extends ProgressState with a smoothed progress rate used to
// estimate the remaining time of the run.
type ProgressWithETA struct {
	*ProgressState
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	// progressRate is the smoothed progress per second.
	progressRate float64
}

// NewProgressWithETA creates a tracker for numFrames frames.
func NewProgressWithETA(numFrames int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numFrames),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records the progress of one frame and refreshes the rate.
//
// Parameters:
//   - frame: The frame index.
//   - value: The completed chunk fraction of that frame.
//
// Returns:
//   - float64: The average progress of the run.
//   - time.Duration: The estimated remaining time, 0 while unknown.
func (p *ProgressWithETA) UpdateWithETA(frame int, value float64) (float64, time.Duration) {
	p.Update(frame, value)
	progress := p.CalculateAverage()

	now := time.Now()
	elapsed := now.Sub(p.lastUpdate).Seconds()
	if elapsed > 0 && progress > p.lastProgress {
		rate := (progress - p.lastProgress) / elapsed
		if p.progressRate == 0 {
			p.progressRate = rate
		} else {
			// Exponential moving average.
			p.progressRate = 0.3*rate + 0.7*p.progressRate
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}
	return progress, p.GetETA()
}

// GetETA returns the estimated remaining time, or 0 when no rate is known.
func (p *ProgressWithETA) GetETA() time.Duration {
	if p.progressRate <= 0 {
		return 0
	}
	remaining := 1.0 - p.CalculateAverage()
	if remaining <= 0 {
		return 0
	}
	seconds := remaining / p.progressRate
	if seconds > maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA renders an estimate for the progress line.
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m := int(eta.Minutes())
		s := int(eta.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(eta.Hours())
	m := int(eta.Minutes()) % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}

// FormatProgressBarWithETA renders percentage, bar and estimate on one line.
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
