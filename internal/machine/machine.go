// Package machine runs the escape-path algorithm over a domain, one frame at
// a time. A frame fans the domain's chunks out to a bounded pool of workers,
// waits for all of them, then applies their private results on a single
// goroutine: element states, the path collection, the pixel histogram and
// the statistics counters.
package machine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/fractalcalc/internal/area"
	"github.com/agbru/fractalcalc/internal/domain"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/result"
	"github.com/agbru/fractalcalc/internal/stats"
)

// DefaultBoundary is the squared magnitude past which a sample has escaped.
const DefaultBoundary = 4.0

// BestChunks is how many of the densest histogram chunks make up the
// PixelsValueBest counter.
const BestChunks = 4

// Config holds the per-run parameters of the engine.
type Config struct {
	IterationMin int
	IterationMax int
	// Boundary is the squared-magnitude escape threshold. Zero means
	// DefaultBoundary.
	Boundary float64
	// Workers bounds the number of chunks calculated concurrently. Zero or
	// less means GOMAXPROCS.
	Workers int
	// Seed makes the chunk order reproducible. Each frame mixes in its index.
	Seed       uint64
	Multiplier domain.Multiplier
}

// Frame is the outcome of one Calculate call.
type Frame struct {
	Index    int
	Data     *result.Data
	Pixels   *result.Pixels
	Counts   domain.StateCounts
	Duration time.Duration
}

// Machine calculates frames for one area, domain and fractal.
type Machine struct {
	cfg     Config
	math    fractal.Math
	area    area.Area
	domain  *domain.Domain
	stats   *stats.Stats
	subject *ProgressSubject
	frame   int
}

// New validates cfg and builds a Machine.
//
// Parameters:
//   - a: The plane region and resolution.
//   - d: The domain built for a.
//   - math: The fractal recurrence.
//   - st: The statistics controller the counters accumulate into.
//   - cfg: The engine parameters.
//
// Returns:
//   - *Machine: The engine, ready for Calculate.
//   - error: A ConfigError when cfg is degenerate.
func New(a area.Area, d *domain.Domain, math fractal.Math, st *stats.Stats, cfg Config) (*Machine, error) {
	if math == nil {
		return nil, apperrors.NewConfigError("machine requires a fractal math")
	}
	if d == nil || d.Width() != a.Width || d.Height() != a.Height {
		return nil, apperrors.NewConfigError("domain does not match the area resolution")
	}
	if cfg.IterationMin < 0 {
		return nil, apperrors.NewConfigError("iteration min must not be negative, got %d", cfg.IterationMin)
	}
	if cfg.IterationMax <= cfg.IterationMin {
		return nil, apperrors.NewConfigError("iteration max (%d) must exceed iteration min (%d)", cfg.IterationMax, cfg.IterationMin)
	}
	if cfg.Boundary == 0 {
		cfg.Boundary = DefaultBoundary
	}
	if !(cfg.Boundary > 0) {
		return nil, apperrors.NewConfigError("boundary must be positive, got %v", cfg.Boundary)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if st == nil {
		st = stats.New(stats.DefaultReferenceFrame)
	}
	return &Machine{
		cfg:     cfg,
		math:    math,
		area:    a,
		domain:  d,
		stats:   st,
		subject: NewProgressSubject(),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (m *Machine) Config() Config { return m.cfg }

// Area returns the area being rendered.
func (m *Machine) Area() area.Area { return m.area }

// Domain returns the sample grid.
func (m *Machine) Domain() *domain.Domain { return m.domain }

// Stats returns the statistics controller.
func (m *Machine) Stats() *stats.Stats { return m.stats }

// Progress returns the subject notified after every finished chunk.
func (m *Machine) Progress() *ProgressSubject { return m.subject }

// chunkResult is the private output of one worker task.
type chunkResult struct {
	outcomes []domain.Outcome
	data     *result.Data
	counters stats.Counters
}

// Calculate runs one frame to completion. The context carries tracing only;
// a started frame is never abandoned.
//
// Returns:
//   - *Frame: The paths and histogram of the frame.
//   - error: A CalculationError if a worker failed.
func (m *Machine) Calculate(ctx context.Context) (*Frame, error) {
	frame := m.frame
	ctx, span := otel.Tracer("machine").Start(ctx, "machine.Calculate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("frame", frame),
			attribute.Int("width", m.area.Width),
			attribute.Int("height", m.area.Height),
			attribute.Int("workers", m.cfg.Workers),
		),
	)
	defer span.End()

	start := time.Now()
	m.domain.ResetForFrame()

	rng := rand.New(rand.NewPCG(m.cfg.Seed, uint64(frame)))
	order := m.domain.ShuffledCalculationOrder(rng)
	results := make([]chunkResult, len(order))

	var done atomic.Int64
	total := float64(len(order))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i, c := range order {
		g.Go(func() error {
			res, err := m.calculateChunk(c)
			if err != nil {
				return err
			}
			results[i] = res
			m.subject.Notify(frame, float64(done.Add(1))/total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, apperrors.NewCalculationError(frame, err)
	}

	// Single-threaded from here on.
	data := result.NewData()
	outcomes := make([]domain.Outcome, 0, m.domain.Width()*m.domain.Height())
	for i := range results {
		outcomes = append(outcomes, results[i].outcomes...)
		data.Merge(results[i].data)
		m.stats.NewElementsTooLong += results[i].counters.NewElementsTooLong
		m.stats.NewElementsTooShort += results[i].counters.NewElementsTooShort
		m.stats.NewElementsLong += results[i].counters.NewElementsLong
	}
	m.domain.Apply(outcomes)
	span.AddEvent("chunks merged", trace.WithAttributes(attribute.Int("elements", len(outcomes))))

	pixels := result.Translate(data, m.area)
	m.stats.PathsTotalAmount += data.Len()
	m.stats.PathsNewPointsAmount += data.Points()
	m.stats.PixelsValueTotal += int(pixels.Total())
	m.stats.PixelsValueBest += int(pixels.BestChunksValue(m.domain.Chunks(), BestChunks))

	m.domain.MaskFullUpdate()
	counts := m.domain.Counts()
	elapsed := time.Since(start)
	recordFrameMetrics(elapsed.Seconds(), data.Len(), counts)
	span.SetAttributes(attribute.Int("paths", data.Len()))

	m.frame++
	return &Frame{
		Index:    frame,
		Data:     data,
		Pixels:   pixels,
		Counts:   counts,
		Duration: elapsed,
	}, nil
}

// calculateChunk runs every active element of chunk c. It reads the domain
// and writes only the returned value.
func (m *Machine) calculateChunk(c domain.ChunkCoord) (res chunkResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunk (%d, %d): %v", c.X, c.Y, r)
		}
	}()

	xFrom, xTo, yFrom, yTo := m.domain.ChunkBounds(c)
	elements := m.domain.MakeChunk(xFrom, xTo, yFrom, yTo)
	res = chunkResult{
		outcomes: make([]domain.Outcome, 0, len(elements)),
		data:     result.NewData(),
	}
	subs := m.cfg.Multiplier.SubSamples()
	for _, e := range elements {
		if !e.State.IsActive() {
			continue
		}
		res.outcomes = append(res.outcomes, m.calculateElement(e, subs, &res))
	}
	return res, nil
}

// calculateElement classifies e from its own origin, then runs its
// sub-samples. Sub-samples contribute paths and counters, and the element's
// value is the mean over the centre and every sub-sample.
func (m *Machine) calculateElement(e *domain.Element, subs [][2]float64, res *chunkResult) domain.Outcome {
	x, y := e.Pos()
	re, im := e.Origin()
	iterator, length := m.calculatePath(re, im, res)

	values := make([]int, 0, len(subs)+1)
	values = append(values, domain.StaticValue(iterator, m.cfg.IterationMax))
	for _, off := range subs {
		sre, sim := m.area.ToPlaneOffset(x, y, off[0], off[1])
		sit, _ := m.calculatePath(sre, sim, res)
		values = append(values, domain.StaticValue(sit, m.cfg.IterationMax))
	}

	return domain.Outcome{
		X:        x,
		Y:        y,
		State:    domain.StateFromPathLength(iterator, length, m.cfg.IterationMin, m.cfg.IterationMax),
		Iterator: iterator,
		Length:   length,
		Value:    domain.MeanValue(values),
	}
}

// calculatePath runs the escape-path algorithm for one origin.
//
// The probe pass only counts: iterator is every step taken, length the
// steps that landed inside the area. Most origins either hit the iteration
// budget or escape almost at once, so the path is recorded in a second pass,
// for exactly iterator steps, only when the probe proved it worth keeping.
func (m *Machine) calculatePath(re, im float64, res *chunkResult) (iterator, length int) {
	maxIt := m.cfg.IterationMax
	var mem fractal.Mem

	fractal.Seed(m.math, &mem, re, im)
	for mem.Quadrance() < m.cfg.Boundary && iterator < maxIt {
		m.math.Advance(&mem, re, im)
		if m.area.Contains(mem.Re, mem.Im) {
			length++
		}
		iterator++
	}

	switch domain.StateFromPathLength(iterator, length, m.cfg.IterationMin, maxIt) {
	case domain.TooLong:
		res.counters.NewElementsTooLong++
	case domain.TooShort:
		res.counters.NewElementsTooShort++
	case domain.GoodPath:
		res.counters.NewElementsLong++

		fractal.Seed(m.math, &mem, re, im)
		path := make(result.Path, 0, length)
		for i := 0; i < iterator; i++ {
			m.math.Advance(&mem, re, im)
			if m.area.Contains(mem.Re, mem.Im) {
				path = append(path, result.Point{Re: mem.Re, Im: mem.Im})
			}
		}
		res.data.AddPath(path)
	}
	return iterator, length
}
