/*
Package models defines the JSON data transfer objects shared by the
command-line output and the HTTP API.

These models are used for:
  - **JSON Output**: `-json` prints one FrameSummary per calculated frame.
  - **HTTP API**: `/render` answers with a RenderResponse, `/fractals` with
    FractalInfo entries.
*/
package models

// SignalsSummary is the outcome of comparing a frame against the statistics
// baseline. It is only present once a baseline has been captured and a later
// frame was compared to it.
type SignalsSummary struct {
	Accepted                  bool `json:"accepted"`
	NotEnoughPixelsTotalValue bool `json:"not_enough_pixels_total_value"`
	TooManyPixelsTotalValue   bool `json:"too_many_pixels_total_value"`
	LessPixelsTotalValue      bool `json:"less_pixels_total_value"`
	NotEnoughPixelsBestValue  bool `json:"not_enough_pixels_best_value"`
	LessPixelsBestValue       bool `json:"less_pixels_best_value"`
	TooManyPathsTotal         bool `json:"too_many_paths_total"`
	NotEnoughLongElements     bool `json:"not_enough_long_elements"`

	AveragePathLength                        float64 `json:"average_path_length"`
	DomainElementsToNewCalculationPathPoints float64 `json:"domain_elements_to_new_calculation_path_points"`
}

// FrameSummary describes one calculated frame.
type FrameSummary struct {
	Fractal string `json:"fractal"`
	Frame   int    `json:"frame"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	// Duration is the formatted calculation time.
	Duration   string `json:"duration"`
	DurationMs int64  `json:"duration_ms"`

	Paths       int    `json:"paths"`
	PathPoints  int    `json:"path_points"`
	PixelsTotal uint64 `json:"pixels_total"`
	PixelsMax   uint32 `json:"pixels_max"`
	PixelsBest  uint64 `json:"pixels_best"`

	// States counts the domain elements per state after the frame.
	States map[string]int `json:"states"`
	// StatsPhase is "pending" until the baseline frame, "captured" after.
	StatsPhase string          `json:"stats_phase"`
	Signals    *SignalsSummary `json:"signals,omitempty"`
}

// FractalInfo describes a registered fractal preset.
type FractalInfo struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	IterationMin int     `json:"iteration_min"`
	IterationMax int     `json:"iteration_max"`
	AreaSize     float64 `json:"area_size"`
	TargetRe     float64 `json:"target_re"`
	TargetIm     float64 `json:"target_im"`
	Multiplier   string  `json:"multiplier"`
	Repeat       bool    `json:"repeat"`
	Palette      string  `json:"palette"`
}

// RenderResponse is the body of a successful /render request.
type RenderResponse struct {
	Fractal  string         `json:"fractal"`
	Frames   []FrameSummary `json:"frames"`
	Accepted bool           `json:"accepted"`
	Duration string         `json:"duration"`
}
