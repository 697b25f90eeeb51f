package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/agbru/fractalcalc/internal/calibration"
	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/pkg/models"
)

// smallRun is a collatz run that completes in milliseconds.
var smallRun = []string{
	"fractalcalc",
	"-fractal", "collatz",
	"-width", "20", "-height", "12",
	"-chunks", "4", "-workers", "2",
	"-min", "2", "-max", "40",
	"-repeat", "-frames", "3",
	"-log-level", "disabled",
}

func args(extra ...string) []string {
	return append(append([]string{}, smallRun...), extra...)
}

// TestNew tests the New function for creating Application instances.
func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Valid args create application", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New(args(), &errBuf)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		if app.Config.Fractal != "collatz" || app.Config.Width != 20 || app.Config.Workers != 2 {
			t.Errorf("unexpected config: %+v", app.Config)
		}
		if app.Presets == nil || app.Logger == nil {
			t.Error("Presets and Logger should be set")
		}
	})

	t.Run("Invalid args return error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New([]string{"fractalcalc", "-invalid-flag"}, &errBuf)
		if err == nil {
			t.Error("New() should return error for invalid args")
		}
		if app != nil {
			t.Error("New() should return nil application on error")
		}
	})

	t.Run("Help flag returns error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New([]string{"fractalcalc", "-h"}, &errBuf)
		if !IsHelpError(err) {
			t.Errorf("expected flag.ErrHelp, got %v", err)
		}
	})

	t.Run("Empty args use defaults", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New(nil, &errBuf)
		if err != nil {
			t.Fatalf("New(nil) returned unexpected error: %v", err)
		}
		if app.Config.Fractal != config.DefaultFractal {
			t.Errorf("Fractal = %q, want %q", app.Config.Fractal, config.DefaultFractal)
		}
	})
}

func TestApplyAdaptiveWorkers(t *testing.T) {
	t.Parallel()
	cfg := applyAdaptiveWorkers(config.AppConfig{})
	if cfg.Workers != calibration.EstimateWorkers() {
		t.Errorf("Workers = %d, want the estimate %d", cfg.Workers, calibration.EstimateWorkers())
	}
	cfg = applyAdaptiveWorkers(config.AppConfig{Workers: 3})
	if cfg.Workers != 3 {
		t.Errorf("explicit worker count overwritten: %d", cfg.Workers)
	}
}

func TestRun_Completion(t *testing.T) {
	t.Parallel()
	var out, errBuf bytes.Buffer
	app, err := New([]string{"fractalcalc", "-completion", "bash"}, &errBuf)
	if err != nil {
		t.Fatal(err)
	}
	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "_fractalcalc_completions") {
		t.Error("bash completion script not written")
	}
}

func TestRun_Quiet(t *testing.T) {
	t.Parallel()
	var out, errBuf bytes.Buffer
	app, err := New(args("-q"), &errBuf)
	if err != nil {
		t.Fatal(err)
	}
	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr %s", code, errBuf.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one line per frame, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "0 ") || !strings.HasPrefix(lines[2], "2 ") {
		t.Errorf("frames out of order: %q", lines)
	}
}

func TestRun_JSONAndOutputFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "frames.json")
	var out, errBuf bytes.Buffer
	app, err := New(args("-json", "-o", path), &errBuf)
	if err != nil {
		t.Fatal(err)
	}
	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr %s", code, errBuf.String())
	}

	var printed []models.FrameSummary
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if len(printed) != 3 {
		t.Fatalf("got %d summaries, want 3", len(printed))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var saved []models.FrameSummary
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(printed, saved); diff != "" {
		t.Errorf("saved summaries differ from printed ones (-printed +saved):\n%s", diff)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		extra    []string
		expected int
	}{
		{"Timeout", context.Background(), []string{"-q", "-timeout", "1ns"}, apperrors.ExitErrorTimeout},
		{"Canceled", canceled, []string{"-q"}, apperrors.ExitErrorCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out, errBuf bytes.Buffer
			app, err := New(args(tt.extra...), &errBuf)
			if err != nil {
				t.Fatal(err)
			}
			if code := app.Run(tt.ctx, &out); code != tt.expected {
				t.Errorf("exit code = %d, want %d (stderr %s)", code, tt.expected, errBuf.String())
			}
			if !strings.Contains(errBuf.String(), "Status:") {
				t.Errorf("failure not reported: %q", errBuf.String())
			}
		})
	}
}

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()
	ctx, lc := SetupLifecycle(context.Background(), 20*time.Millisecond)
	defer lc.Cleanup()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled after the timeout")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}

	ctx, lc = SetupLifecycle(context.Background(), time.Hour)
	lc.Cleanup()
	if ctx.Err() == nil {
		t.Error("Cleanup should cancel the context")
	}
	(&Lifecycle{}).Cleanup()
}
