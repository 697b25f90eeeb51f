package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
)

func renderConfig() config.AppConfig {
	return config.AppConfig{
		Fractal:        "collatz",
		IterationMin:   2,
		IterationMax:   40,
		Size:           6,
		Width:          20,
		Height:         12,
		Multiplier:     "none",
		Chunks:         4,
		Workers:        2,
		Seed:           3,
		Boundary:       4,
		Frames:         3,
		Repeat:         true,
		ReferenceFrame: 1,
		Palette:        "default",
		Timeout:        time.Minute,
	}
}

func newService(limits Limits) *FrameService {
	return NewFrameService(fractal.NewFactory(), limits, logging.NewLogger(io.Discard, "service"))
}

type countingObserver struct {
	mu      sync.Mutex
	updates int
}

func (o *countingObserver) Update(int, float64) {
	o.mu.Lock()
	o.updates++
	o.mu.Unlock()
}

func TestNewFrameService(t *testing.T) {
	t.Parallel()
	svc := newService(DefaultLimits())
	if svc.Progress() == nil || svc.Limits() != DefaultLimits() {
		t.Fatal("service not initialized")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	svc := newService(DefaultLimits())
	obs := &countingObserver{}
	svc.Progress().Register(obs)

	resp, err := svc.Render(context.Background(), renderConfig())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if resp.Fractal != "collatz" || len(resp.Frames) != 3 || !resp.Accepted {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Frames[2].Signals == nil {
		t.Error("third frame should be compared to the baseline")
	}
	// 16 chunks per frame, 3 frames.
	if obs.updates != 48 {
		t.Errorf("progress updates = %d, want 48", obs.updates)
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		limits Limits
		mutate func(c *config.AppConfig)
		check  func(err error) bool
	}{
		{"Too many pixels", Limits{MaxPixels: 100}, nil,
			func(err error) bool {
				var valErr apperrors.ValidationError
				return errors.Is(err, ErrLimitExceeded) && errors.As(err, &valErr) && valErr.Value == 240
			}},
		{"Too many iterations", Limits{MaxIterations: 10}, nil,
			func(err error) bool { return errors.Is(err, ErrLimitExceeded) }},
		{"Too many frames", Limits{MaxFrames: 2}, nil,
			func(err error) bool { return errors.Is(err, ErrLimitExceeded) }},
		{"Unknown fractal", DefaultLimits(), func(c *config.AppConfig) { c.Fractal = "julia" },
			func(err error) bool { return err != nil }},
		{"Degenerate geometry", DefaultLimits(), func(c *config.AppConfig) { c.Chunks = 50 },
			func(err error) bool {
				var cfgErr apperrors.ConfigError
				return errors.As(err, &cfgErr)
			}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := renderConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := newService(tt.limits).Render(context.Background(), cfg)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRender_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newService(DefaultLimits()).Render(ctx, renderConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFractals(t *testing.T) {
	t.Parallel()
	infos := newService(DefaultLimits()).Fractals()
	if len(infos) != 4 {
		t.Fatalf("expected 4 presets, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Name == "glorious-head" && (info.Multiplier != "square5" || info.IterationMax != 2500) {
			t.Errorf("glorious-head described wrongly: %+v", info)
		}
	}
}
