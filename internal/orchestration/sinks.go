package orchestration

import (
	"context"
	"fmt"

	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/stats"
)

// FrameSink is notified after every frame of a run. Rendering and image
// saving are external concerns: a sink only learns that a frame is ready.
type FrameSink interface {
	FrameDone(ctx context.Context, r FrameReport) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, r FrameReport) error

// FrameDone implements FrameSink.
func (f FrameSinkFunc) FrameDone(ctx context.Context, r FrameReport) error { return f(ctx, r) }

// RenderSink announces every frame to the render hook, and to the save hook
// when images are saved.
type RenderSink struct {
	logger  logging.Logger
	palette string
	save    bool
}

// NewRenderSink creates a sink for the given palette.
//
// Parameters:
//   - logger: Receives the hook notifications.
//   - palette: The palette name handed to the render hook.
//   - save: If true, the save hook is notified as well.
//
// Returns:
//   - *RenderSink: The sink.
func NewRenderSink(logger logging.Logger, palette string, save bool) *RenderSink {
	return &RenderSink{logger: logger, palette: palette, save: save}
}

// FrameDone implements FrameSink.
func (s *RenderSink) FrameDone(_ context.Context, r FrameReport) error {
	s.logger.Debug("render hook",
		logging.String("fractal", r.Summary.Fractal),
		logging.Int("frame", r.Summary.Frame),
		logging.String("palette", s.palette),
		logging.Int("pixels_max", int(r.Summary.PixelsMax)),
	)
	if s.save {
		s.logger.Info("save hook",
			logging.Int("frame", r.Summary.Frame),
			logging.String("file", ImageName(r.Summary.Fractal, r.Summary.Frame)),
		)
	}
	return nil
}

// ImageName is the file name the save hook is given for a frame.
func ImageName(fractalName string, frame int) string {
	return fmt.Sprintf("%s-%03d.png", fractalName, frame)
}

// StatsLogSink writes the statistics controller's counters and signals after
// every frame.
type StatsLogSink struct {
	stats  *stats.Stats
	logger logging.Logger
}

// NewStatsLogSink creates a sink logging st.
func NewStatsLogSink(st *stats.Stats, logger logging.Logger) *StatsLogSink {
	return &StatsLogSink{stats: st, logger: logger}
}

// FrameDone implements FrameSink.
func (s *StatsLogSink) FrameDone(_ context.Context, r FrameReport) error {
	s.logger.Debug("frame done",
		logging.Int("frame", r.Summary.Frame),
		logging.String("duration", r.Summary.Duration),
		logging.Int("paths", r.Summary.Paths),
		logging.String("stats_phase", r.Summary.StatsPhase),
	)
	s.stats.Log(s.logger)
	return nil
}
