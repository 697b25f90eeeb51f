// Package stats tracks per-frame counters and compares them against a
// baseline captured at a reference frame. The resulting signals tell the
// orchestration layer whether a frame sampled roughly as densely as the
// reference; the package itself never halts or retries a calculation.
package stats

import (
	"github.com/agbru/fractalcalc/internal/logging"
)

// DefaultReferenceFrame is the frame index at which the baseline is captured.
const DefaultReferenceFrame = 1

// ToleranceFactor is the fraction of a baseline value a later frame may
// deviate by before a signal is raised.
const ToleranceFactor = 0.5

// Phase is the state of the baseline.
type Phase int

const (
	// PhasePending means the reference frame has not been reached yet.
	PhasePending Phase = iota
	// PhaseCaptured means the baseline is frozen and later frames are compared.
	PhaseCaptured
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	if p == PhaseCaptured {
		return "captured"
	}
	return "pending"
}

// Counters are accumulated by the machine during one frame.
type Counters struct {
	NewElementsTooLong   int
	NewElementsTooShort  int
	NewElementsLong      int
	PathsTotalAmount     int
	PathsNewPointsAmount int
	PixelsValueTotal     int
	PixelsValueBest      int
}

// Measure is the baseline, written once at the reference frame.
type Measure struct {
	NewElementsLong   int
	PathsTotalAmount  int
	PixelsValueTotal  int
	PixelsValueBest   int
	AveragePathLength float64
}

// Tolerance holds the allowed deviation per compared counter.
type Tolerance struct {
	NewElementsLong  float64
	PathsTotalAmount float64
	PixelsValueTotal float64
	PixelsValueBest  float64
}

// Signals is the outcome of comparing a frame against the baseline.
//
// The NotEnough and TooMany signals use a dead-band: they are raised only
// when the deviation is on their side of the baseline and strictly exceeds
// the tolerance. The Less signals are plain comparisons.
type Signals struct {
	NotEnoughPixelsTotalValue bool
	TooManyPixelsTotalValue   bool
	LessPixelsTotalValue      bool
	NotEnoughPixelsBestValue  bool
	LessPixelsBestValue       bool
	TooManyPathsTotal         bool
	NotEnoughLongElements     bool

	AveragePathLength                        float64
	DomainElementsToNewCalculationPathPoints float64
}

// Accepted reports whether no shortfall or excess signal is raised.
func (s Signals) Accepted() bool {
	return !s.NotEnoughPixelsTotalValue &&
		!s.TooManyPixelsTotalValue &&
		!s.NotEnoughPixelsBestValue &&
		!s.TooManyPathsTotal &&
		!s.NotEnoughLongElements
}

// Stats is the controller: current counters, the baseline and the signals of
// the last compared frame. It is updated by a single goroutine after each
// frame barrier.
type Stats struct {
	Counters

	ReferenceFrame int
	Phase          Phase
	Measure        Measure
	Tolerance      Tolerance
	Signals        Signals
}

// New returns a controller that captures its baseline at referenceFrame.
func New(referenceFrame int) *Stats {
	return &Stats{ReferenceFrame: referenceFrame}
}

// Update runs the controller for the frame whose counters are currently
// accumulated. At the reference frame the baseline is captured; on every
// later frame the signals are recomputed. Earlier frames are ignored.
func (s *Stats) Update(frame int) {
	switch {
	case frame == s.ReferenceFrame && s.Phase == PhasePending:
		s.capture()
	case frame > s.ReferenceFrame && s.Phase == PhaseCaptured:
		s.compare()
	}
}

func (s *Stats) capture() {
	s.Measure = Measure{
		NewElementsLong:   s.NewElementsLong,
		PathsTotalAmount:  s.PathsTotalAmount,
		PixelsValueTotal:  s.PixelsValueTotal,
		PixelsValueBest:   s.PixelsValueBest,
		AveragePathLength: ratio(s.PixelsValueTotal, s.PathsTotalAmount),
	}
	s.Tolerance = Tolerance{
		NewElementsLong:  float64(s.Measure.NewElementsLong) * ToleranceFactor,
		PathsTotalAmount: float64(s.Measure.PathsTotalAmount) * ToleranceFactor,
		PixelsValueTotal: float64(s.Measure.PixelsValueTotal) * ToleranceFactor,
		PixelsValueBest:  float64(s.Measure.PixelsValueBest) * ToleranceFactor,
	}
	s.Phase = PhaseCaptured
}

func (s *Stats) compare() {
	m, tol := s.Measure, s.Tolerance
	newElements := s.NewElementsLong + s.NewElementsTooShort + s.NewElementsTooLong
	s.Signals = Signals{
		NotEnoughPixelsTotalValue: shortfall(s.PixelsValueTotal, m.PixelsValueTotal, tol.PixelsValueTotal),
		TooManyPixelsTotalValue:   excess(s.PixelsValueTotal, m.PixelsValueTotal, tol.PixelsValueTotal),
		LessPixelsTotalValue:      s.PixelsValueTotal < m.PixelsValueTotal,
		NotEnoughPixelsBestValue:  shortfall(s.PixelsValueBest, m.PixelsValueBest, tol.PixelsValueBest),
		LessPixelsBestValue:       s.PixelsValueBest < m.PixelsValueBest,
		TooManyPathsTotal:         excess(s.PathsTotalAmount, m.PathsTotalAmount, tol.PathsTotalAmount),
		NotEnoughLongElements:     shortfall(s.NewElementsLong, m.NewElementsLong, tol.NewElementsLong),

		AveragePathLength:                        ratio(s.PixelsValueTotal, s.PathsTotalAmount),
		DomainElementsToNewCalculationPathPoints: ratio(s.PathsNewPointsAmount, newElements),
	}
}

// Clean zeroes the per-frame counters. The baseline, tolerance and signals
// are kept.
func (s *Stats) Clean() {
	s.Counters = Counters{}
}

// Log writes the counters and, once captured, the baseline and signals.
func (s *Stats) Log(logger logging.Logger) {
	logger.Debug("frame counters",
		logging.Int("new_elements_too_long", s.NewElementsTooLong),
		logging.Int("new_elements_too_short", s.NewElementsTooShort),
		logging.Int("new_elements_long", s.NewElementsLong),
		logging.Int("paths_total_amount", s.PathsTotalAmount),
		logging.Int("paths_new_points_amount", s.PathsNewPointsAmount),
		logging.Int("pixels_value_total", s.PixelsValueTotal),
		logging.Int("pixels_value_best", s.PixelsValueBest),
	)
	if s.Phase != PhaseCaptured {
		return
	}
	logger.Info("frame signals",
		logging.Int("measure_pixels_value_total", s.Measure.PixelsValueTotal),
		logging.Int("measure_paths_total_amount", s.Measure.PathsTotalAmount),
		logging.Float64("measure_average_path_length", s.Measure.AveragePathLength),
		logging.Bool("not_enough_pixels_total_value", s.Signals.NotEnoughPixelsTotalValue),
		logging.Bool("too_many_pixels_total_value", s.Signals.TooManyPixelsTotalValue),
		logging.Bool("less_pixels_total_value", s.Signals.LessPixelsTotalValue),
		logging.Bool("not_enough_pixels_best_value", s.Signals.NotEnoughPixelsBestValue),
		logging.Bool("less_pixels_best_value", s.Signals.LessPixelsBestValue),
		logging.Bool("too_many_paths_total", s.Signals.TooManyPathsTotal),
		logging.Bool("not_enough_long_elements", s.Signals.NotEnoughLongElements),
		logging.Float64("average_path_length", s.Signals.AveragePathLength),
		logging.Float64("elements_to_path_points", s.Signals.DomainElementsToNewCalculationPathPoints),
	)
}

func shortfall(current, measure int, tolerance float64) bool {
	return current < measure && float64(measure-current) > tolerance
}

func excess(current, measure int, tolerance float64) bool {
	return current > measure && float64(current-measure) > tolerance
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
