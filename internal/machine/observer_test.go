package machine

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────────────────────
// ProgressSubject Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestProgressSubject_RegisterUnregister(t *testing.T) {
	t.Parallel()

	subject := NewProgressSubject()
	subject.Register(nil)
	if subject.ObserverCount() != 0 {
		t.Errorf("registering nil should not add observer, got %d", subject.ObserverCount())
	}

	// Pointer identity matters for Unregister; empty structs may share an
	// address, so use recording observers.
	o1 := &recordingObserver{}
	o2 := &recordingObserver{}
	subject.Register(o1)
	subject.Register(o2)
	if subject.ObserverCount() != 2 {
		t.Fatalf("expected 2 observers, got %d", subject.ObserverCount())
	}

	subject.Unregister(nil)
	subject.Unregister(o1)
	subject.Unregister(o1)
	if subject.ObserverCount() != 1 {
		t.Errorf("expected 1 observer after unregister, got %d", subject.ObserverCount())
	}

	subject.Notify(3, 0.5)
	if len(o1.updates) != 0 || len(o2.updates) != 1 {
		t.Errorf("updates = %d / %d, want 0 / 1", len(o1.updates), len(o2.updates))
	}
	if o2.updates[0] != (ProgressUpdate{Frame: 3, Value: 0.5}) {
		t.Errorf("unexpected update: %+v", o2.updates[0])
	}
}

func TestProgressSubject_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	subject := NewProgressSubject()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			subject.Register(NewChannelObserver(nil))
		}()
		go func(idx int) {
			defer wg.Done()
			subject.Notify(idx, float64(idx)/10.0)
		}(i)
	}
	wg.Wait()

	if subject.ObserverCount() != 10 {
		t.Errorf("expected 10 observers, got %d", subject.ObserverCount())
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Observer Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestChannelObserver(t *testing.T) {
	t.Parallel()

	ch := make(chan ProgressUpdate, 1)
	o := NewChannelObserver(ch)
	o.Update(2, 1.5)
	o.Update(2, 0.7) // dropped, channel full

	got := <-ch
	if got.Frame != 2 || got.Value != 1.0 {
		t.Errorf("got %+v, want frame 2 clamped to 1.0", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra update %+v", extra)
	default:
	}

	NewChannelObserver(nil).Update(0, 0.5)
}

func TestLoggingObserver_Throttles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLoggingObserver(logger, 0.25)

	for _, p := range []float64{0.1, 0.2, 0.3, 0.36, 0.5, 1.0} {
		o.Update(0, p)
	}
	lines := strings.Count(buf.String(), "frame progress")
	// 0.1 (first), 0.36 (+0.26), 1.0 (final)
	if lines != 3 {
		t.Errorf("logged %d lines, want 3:\n%s", lines, buf.String())
	}
	if NewLoggingObserver(logger, 0).threshold != 0.1 {
		t.Error("zero threshold should default to 0.1")
	}
}

func TestMetricsObserver(t *testing.T) {
	o := NewMetricsObserver()
	o.ResetMetrics()
	o.Update(7, 0.25)
	if got := testutil.ToFloat64(frameProgress.WithLabelValues("7")); got != 0.25 {
		t.Errorf("gauge = %v, want 0.25", got)
	}
	o.ResetMetrics()
	if n := testutil.CollectAndCount(frameProgress); n != 0 {
		t.Errorf("gauge series after reset = %d, want 0", n)
	}
}
