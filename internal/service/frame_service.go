// Package service renders fractal frames on behalf of the HTTP server. It
// centralizes request limits, machine construction and progress fan-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/agbru/fractalcalc/internal/cli"
	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/pkg/models"
)

var (
	// ErrLimitExceeded is returned when a request asks for more work than
	// the service accepts.
	ErrLimitExceeded = errors.New("render limit exceeded")
)

// Limits bounds the work a single render request may ask for.
type Limits struct {
	// MaxPixels bounds Width*Height.
	MaxPixels int
	// MaxIterations bounds IterationMax.
	MaxIterations int
	// MaxFrames bounds the frame count.
	MaxFrames int
}

// DefaultLimits returns limits that keep a request within seconds on a
// desktop machine.
func DefaultLimits() Limits {
	return Limits{
		MaxPixels:     1920 * 1080,
		MaxIterations: 20000,
		MaxFrames:     10,
	}
}

// check returns ErrLimitExceeded, joined with a ValidationError naming the
// offending value, when cfg asks for more than l allows.
func (l Limits) check(cfg config.AppConfig) error {
	var verr error
	switch {
	case l.MaxPixels > 0 && cfg.Width*cfg.Height > l.MaxPixels:
		verr = apperrors.NewValidationError("pixels", fmt.Sprintf("more than %d", l.MaxPixels), cfg.Width*cfg.Height)
	case l.MaxIterations > 0 && cfg.IterationMax > l.MaxIterations:
		verr = apperrors.NewValidationError("max", fmt.Sprintf("more than %d", l.MaxIterations), cfg.IterationMax)
	case l.MaxFrames > 0 && cfg.FrameCount() > l.MaxFrames:
		verr = apperrors.NewValidationError("frames", fmt.Sprintf("more than %d", l.MaxFrames), cfg.FrameCount())
	default:
		return nil
	}
	return fmt.Errorf("%w: %w", ErrLimitExceeded, verr)
}

// Service defines the interface for frame rendering services.
// This abstraction enables dependency injection and easier testing/mocking.
type Service interface {
	// Render calculates the frames described by a validated configuration.
	Render(ctx context.Context, cfg config.AppConfig) (models.RenderResponse, error)
	// Fractals describes the registered presets.
	Fractals() []models.FractalInfo
	// Progress is the subject every render reports chunk progress to.
	Progress() *machine.ProgressSubject
	// Limits returns the request limits.
	Limits() Limits
}

// FrameService is the default Service implementation.
type FrameService struct {
	presets  config.Presets
	limits   Limits
	logger   logging.Logger
	progress *machine.ProgressSubject
	metrics  *machine.MetricsObserver
}

// Ensure FrameService implements Service interface.
var _ Service = (*FrameService)(nil)

// NewFrameService creates a new FrameService.
//
// Parameters:
//   - presets: The fractal presets requests are resolved against.
//   - limits: The request limits.
//   - logger: Receives the render hook notifications.
func NewFrameService(presets config.Presets, limits Limits, logger logging.Logger) *FrameService {
	return &FrameService{
		presets:  presets,
		limits:   limits,
		logger:   logger,
		progress: machine.NewProgressSubject(),
		metrics:  machine.NewMetricsObserver(),
	}
}

// relay forwards the progress of one machine to the service-wide subject.
type relay struct {
	subject *machine.ProgressSubject
}

func (r relay) Update(frame int, progress float64) { r.subject.Notify(frame, progress) }

// Render checks the limits, builds a machine for cfg and calculates its
// frames. The frame loop honours ctx between frames.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - cfg: A validated configuration.
//
// Returns:
//   - models.RenderResponse: The frame summaries.
//   - error: ErrLimitExceeded, a ConfigError or a calculation error.
func (s *FrameService) Render(ctx context.Context, cfg config.AppConfig) (models.RenderResponse, error) {
	if err := s.limits.check(cfg); err != nil {
		return models.RenderResponse{}, err
	}
	def, err := s.presets.Get(cfg.Fractal)
	if err != nil {
		return models.RenderResponse{}, err
	}
	m, err := orchestration.NewMachine(cfg, def)
	if err != nil {
		return models.RenderResponse{}, err
	}
	m.Progress().Register(relay{subject: s.progress})
	m.Progress().Register(s.metrics)

	cfg.Quiet = true
	start := time.Now()
	reports, err := orchestration.ExecuteFrames(ctx, m, cfg, io.Discard,
		orchestration.NewRenderSink(s.logger, cfg.Palette, cfg.SaveImages))
	if err != nil {
		return models.RenderResponse{}, err
	}

	summaries := orchestration.Summaries(reports)
	return models.RenderResponse{
		Fractal:  cfg.Fractal,
		Frames:   summaries,
		Accepted: orchestration.Accepted(summaries),
		Duration: cli.FormatExecutionDuration(time.Since(start)),
	}, nil
}

// Fractals describes every registered preset, sorted by name.
func (s *FrameService) Fractals() []models.FractalInfo {
	names := s.presets.List()
	out := make([]models.FractalInfo, 0, len(names))
	for _, name := range names {
		def, err := s.presets.Get(name)
		if err != nil {
			continue
		}
		out = append(out, models.FractalInfo{
			Name:         def.Name,
			Description:  def.Description,
			IterationMin: def.IterationMin,
			IterationMax: def.IterationMax,
			AreaSize:     def.AreaSize,
			TargetRe:     def.TargetRe,
			TargetIm:     def.TargetIm,
			Multiplier:   def.Multiplier.String(),
			Repeat:       def.Repeat,
			Palette:      def.Palette,
		})
	}
	return out
}

// Progress returns the subject all renders report to.
func (s *FrameService) Progress() *machine.ProgressSubject { return s.progress }

// Limits returns the request limits.
func (s *FrameService) Limits() Limits { return s.limits }
