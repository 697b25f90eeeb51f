package orchestration

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/domain"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/stats"
	"github.com/agbru/fractalcalc/internal/testutil"
	"github.com/agbru/fractalcalc/pkg/models"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Fractal:        "mandelbrot",
		IterationMin:   2,
		IterationMax:   60,
		CenterRe:       -0.5,
		Size:           4,
		Width:          24,
		Height:         16,
		Multiplier:     "none",
		Chunks:         4,
		Workers:        2,
		Seed:           1,
		Boundary:       4,
		Frames:         3,
		Repeat:         true,
		ReferenceFrame: stats.DefaultReferenceFrame,
		Timeout:        time.Minute,
		Quiet:          true,
	}
}

func testMachine(t *testing.T, cfg config.AppConfig) *machine.Machine {
	t.Helper()
	def, err := fractal.NewFactory().Get(cfg.Fractal)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewMachine(cfg, def)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func TestNewMachine(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	m := testMachine(t, cfg)
	if m.Domain().Chunks() != 4 || m.Area().Width != 24 || m.Stats().ReferenceFrame != 1 {
		t.Errorf("machine not built from the configuration")
	}

	cfg.Chunks = 30
	def, _ := fractal.NewFactory().Get("mandelbrot")
	_, err := NewMachine(cfg, def)
	var cfgErr apperrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError for a grid smaller than the chunks, got %v", err)
	}
}

// TestExecuteFrames_FrameLoop runs three identical frames: the first warms
// up, the second captures the baseline and the third is compared to it.
func TestExecuteFrames_FrameLoop(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	m := testMachine(t, cfg)

	var seen []int
	sink := FrameSinkFunc(func(_ context.Context, r FrameReport) error {
		seen = append(seen, r.Summary.Frame)
		return nil
	})
	reports, err := ExecuteFrames(context.Background(), m, cfg, &bytes.Buffer{}, sink)
	if err != nil {
		t.Fatalf("ExecuteFrames: %v", err)
	}
	if len(reports) != 3 || len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Fatalf("reports=%d sink calls=%v", len(reports), seen)
	}

	first, base, last := reports[0].Summary, reports[1].Summary, reports[2].Summary
	if first.StatsPhase != "pending" || first.Signals != nil {
		t.Errorf("frame 0 should precede the baseline: %+v", first)
	}
	if base.StatsPhase != "captured" || base.Signals != nil {
		t.Errorf("frame 1 should capture the baseline: %+v", base)
	}
	if last.Signals == nil || !last.Signals.Accepted {
		t.Errorf("an identical frame must be accepted: %+v", last.Signals)
	}
	if last.Paths != base.Paths || last.PixelsTotal != base.PixelsTotal {
		t.Errorf("frames differ: %d/%d paths", base.Paths, last.Paths)
	}

	total := 0
	for _, n := range last.States {
		total += n
	}
	if total != cfg.Width*cfg.Height {
		t.Errorf("state counts cover %d elements, want %d", total, cfg.Width*cfg.Height)
	}
	if last.States[domain.ActiveNew.String()] != 0 {
		t.Error("no element may stay active after a frame")
	}
	if !Accepted(Summaries(reports)) {
		t.Error("run should be accepted")
	}
}

func TestExecuteFrames_SingleFrameWithoutRepeat(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Repeat = false
	reports, err := ExecuteFrames(context.Background(), testMachine(t, cfg), cfg, &bytes.Buffer{})
	if err != nil || len(reports) != 1 {
		t.Fatalf("reports=%d err=%v", len(reports), err)
	}
}

func TestExecuteFrames_Cancellation(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	t.Run("BeforeFirstFrame", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		reports, err := ExecuteFrames(ctx, testMachine(t, cfg), cfg, &bytes.Buffer{})
		if !errors.Is(err, context.Canceled) || len(reports) != 0 {
			t.Errorf("reports=%d err=%v", len(reports), err)
		}
	})

	t.Run("BetweenFrames", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stop := FrameSinkFunc(func(context.Context, FrameReport) error {
			cancel()
			return nil
		})
		reports, err := ExecuteFrames(ctx, testMachine(t, cfg), cfg, &bytes.Buffer{}, stop)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(reports) != 1 {
			t.Errorf("the started frame must complete: got %d reports", len(reports))
		}
	})
}

func TestExecuteFrames_SinkError(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	boom := errors.New("disk full")
	failing := FrameSinkFunc(func(context.Context, FrameReport) error { return boom })
	_, err := ExecuteFrames(context.Background(), testMachine(t, cfg), cfg, &bytes.Buffer{}, failing)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "frame 0 sink") {
		t.Errorf("expected wrapped sink error, got %v", err)
	}
}

func TestExecuteFrames_ProgressDisplay(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Quiet = false
	cfg.Repeat = false
	m := testMachine(t, cfg)

	var out bytes.Buffer
	if _, err := ExecuteFrames(context.Background(), m, cfg, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(testutil.StripAnsiCodes(out.String()), "Progress:") {
		t.Errorf("progress line missing: %q", out.String())
	}
	if m.Progress().ObserverCount() != 0 {
		t.Error("progress observer must be unregistered after the run")
	}
}

func TestSinks(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Repeat = false
	m := testMachine(t, cfg)

	var logs bytes.Buffer
	logger := logging.NewLogger(&logs, "orchestration")
	sinks := []FrameSink{
		NewRenderSink(logger, "default", true),
		NewStatsLogSink(m.Stats(), logger),
	}
	if _, err := ExecuteFrames(context.Background(), m, cfg, &bytes.Buffer{}, sinks...); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"render hook", "save hook", "mandelbrot-000.png", "frame done", "frame counters"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q:\n%s", want, logs.String())
		}
	}
}

func TestAnalyzeFrames(t *testing.T) {
	t.Parallel()
	accepted := models.FrameSummary{Frame: 2, Duration: "1ms", StatsPhase: "captured",
		States: map[string]int{}, Signals: &models.SignalsSummary{Accepted: true}}
	rejected := accepted
	rejected.Signals = &models.SignalsSummary{TooManyPathsTotal: true}
	warmup := models.FrameSummary{Frame: 0, Duration: "1ms", StatsPhase: "pending", States: map[string]int{}}

	tests := []struct {
		name     string
		reports  []FrameReport
		mutate   func(c *config.AppConfig)
		wantCode int
		contains string
	}{
		{"Empty", nil, nil, apperrors.ExitErrorGeneric, "No frame was calculated"},
		{"Single frame", []FrameReport{{Summary: warmup}}, nil, apperrors.ExitSuccess, "Warm-up"},
		{"Accepted", []FrameReport{{Summary: warmup}, {Summary: accepted}}, nil, apperrors.ExitSuccess, "Accepted"},
		{"Rejected", []FrameReport{{Summary: warmup}, {Summary: rejected}}, nil, apperrors.ExitErrorRejected, "Global Status: Rejected"},
		{"Quiet", []FrameReport{{Summary: accepted}}, func(c *config.AppConfig) { c.Quiet = true }, apperrors.ExitSuccess, "2 0 0 0"},
		{"JSON rejected", []FrameReport{{Summary: rejected}}, func(c *config.AppConfig) { c.JSONOutput = true }, apperrors.ExitErrorRejected, `"too_many_paths_total": true`},
		{"Details", []FrameReport{{Summary: rejected}}, func(c *config.AppConfig) { c.Details = true }, apperrors.ExitErrorRejected, "signal: too many paths total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Quiet = false
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			var out bytes.Buffer
			code := AnalyzeFrames(tt.reports, cfg, &out)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if got := testutil.StripAnsiCodes(out.String()); !strings.Contains(got, tt.contains) {
				t.Errorf("output missing %q:\n%s", tt.contains, got)
			}
		})
	}
}

func TestImageName(t *testing.T) {
	t.Parallel()
	if got := ImageName("nebula-side", 7); got != "nebula-side-007.png" {
		t.Errorf("ImageName = %q", got)
	}
}
