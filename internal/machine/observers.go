package machine

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards progress updates to a channel, for the CLI
// display and the websocket stream.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer that sends updates to a channel.
// The channel should have sufficient buffer capacity to avoid dropping
// updates.
//
// Parameters:
//   - ch: The channel to send progress updates to. If nil, updates are discarded.
//
// Returns:
//   - *ChannelObserver: A new observer that forwards to the channel.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver with a non-blocking send.
func (o *ChannelObserver) Update(frame int, progress float64) {
	if o.channel == nil {
		return
	}
	if progress > 1.0 {
		progress = 1.0
	}

	select {
	case o.channel <- ProgressUpdate{Frame: frame, Value: progress}:
	default:
		// Channel full, drop update (consumer catches up on the next one)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs progress updates using zerolog, throttled by a
// threshold to avoid log spam.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates an observer that logs progress.
// It only logs when progress changes by at least the threshold amount.
//
// Parameters:
//   - logger: The zerolog logger to use.
//   - threshold: Minimum progress change to trigger a log (e.g., 0.1 for 10%).
//
// Returns:
//   - *LoggingObserver: A new observer that logs to zerolog.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		lastLog:   make(map[int]float64),
	}
}

// Update implements ProgressObserver by logging significant progress changes.
func (o *LoggingObserver) Update(frame int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	lastProgress := o.lastLog[frame]

	shouldLog := progress >= 1.0 ||
		lastProgress == 0 && progress > 0 ||
		progress-lastProgress >= o.threshold

	if shouldLog {
		o.logger.Debug().
			Int("frame", frame).
			Float64("progress", progress).
			Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
			Msg("frame progress")
		o.lastLog[frame] = progress
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer (Prometheus)
// ─────────────────────────────────────────────────────────────────────────────

// MetricsObserver exports frame progress to a Prometheus gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver creates an observer that updates the frame progress
// gauge.
//
// Returns:
//   - *MetricsObserver: A new observer that exports to Prometheus.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		gauge: frameProgress,
	}
}

// Update implements ProgressObserver by setting the gauge for frame.
func (o *MetricsObserver) Update(frame int, progress float64) {
	o.gauge.WithLabelValues(strconv.Itoa(frame)).Set(progress)
}

// ResetMetrics clears the progress of every frame.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}
