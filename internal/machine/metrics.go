package machine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agbru/fractalcalc/internal/domain"
)

// Prometheus metrics for the engine. Registered once globally.
var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractalcalc_frames_total",
		Help: "Total number of calculated frames",
	})
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fractalcalc_frame_duration_seconds",
		Help:    "Wall-clock duration of one frame calculation",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
	pathsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractalcalc_paths_recorded_total",
		Help: "Total number of recorded escape paths",
	})
	elementsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fractalcalc_domain_elements",
			Help: "Domain elements per state after the last frame",
		},
		[]string{"state"},
	)
	frameProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fractalcalc_frame_progress",
			Help: "Chunk progress of the running frame (0.0 to 1.0)",
		},
		[]string{"frame"},
	)
)

func recordFrameMetrics(seconds float64, paths int, counts domain.StateCounts) {
	framesTotal.Inc()
	frameDuration.Observe(seconds)
	pathsRecorded.Add(float64(paths))
	for _, s := range domain.States() {
		elementsByState.WithLabelValues(s.String()).Set(float64(counts.Of(s)))
	}
}
