// Package config provides the configuration management for the fractalcalc
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, fills unset values from the chosen
// fractal preset and validates the result.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/agbru/fractalcalc/internal/area"
	"github.com/agbru/fractalcalc/internal/calibration"
	"github.com/agbru/fractalcalc/internal/domain"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/stats"
)

const (
	// EnvPrefix is the prefix for all environment variables used by fractalcalc.
	// Environment variables provide an alternative to CLI flags for configuration,
	// following the 12-Factor App methodology.
	EnvPrefix = "FRACTAL_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultFractal is the preset rendered when none is named.
	DefaultFractal = "mandelbrot"
	// DefaultTimeout is the default timeout for the whole run.
	DefaultTimeout = 10 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultFrames is the number of frames calculated with -repeat.
	DefaultFrames = 3
	// DefaultSeed seeds the chunk order.
	DefaultSeed uint64 = 1
	// DefaultPalette names the colour palette handed to the render hook.
	DefaultPalette = fractal.PaletteDefault
	// DefaultLogLevel is the zerolog level name.
	DefaultLogLevel = "info"
)

// CompletionShells lists the shells a completion script can be generated for.
var CompletionShells = []string{"bash", "zsh", "fish"}

// Presets is the source of fractal definitions the configuration draws its
// defaults from. *fractal.Factory implements it.
type Presets interface {
	List() []string
	Get(name string) (fractal.Definition, error)
}

// AppConfig aggregates the application's configuration parameters, parsed from
// command-line flags and environment variables.
type AppConfig struct {
	// Fractal names the preset to render.
	Fractal string
	// IterationMin is the in-area path length a trajectory must exceed to be
	// recorded.
	IterationMin int
	// IterationMax is the iteration budget per sample.
	IterationMax int
	// CenterRe and CenterIm locate the centre of the rendered region.
	CenterRe float64
	CenterIm float64
	// Size is the span of the real axis.
	Size float64
	// Width and Height are the resolution in pixels.
	Width  int
	Height int
	// Multiplier names the oversampling mode (none, square3, ...).
	Multiplier string
	// Chunks is the number of chunks per axis.
	Chunks int
	// Workers bounds concurrent chunk calculation; 0 means one per CPU.
	Workers int
	// Seed makes the chunk order reproducible.
	Seed uint64
	// Boundary is the squared-magnitude escape threshold.
	Boundary float64
	// Frames is the number of frames calculated when Repeat is set.
	Frames int
	// Repeat, if true, calculates Frames frames instead of one.
	Repeat bool
	// ReferenceFrame is the frame whose counters become the statistics baseline.
	ReferenceFrame int
	// SaveImages, if true, notifies the save hook after every frame.
	SaveImages bool
	// Palette names the colour palette handed to the render hook.
	Palette string
	// Timeout bounds the whole run.
	Timeout time.Duration
	// JSONOutput, if true, prints frame summaries as JSON.
	JSONOutput bool
	// Quiet suppresses progress display and banners.
	Quiet bool
	// NoColor disables colored output. Also respects NO_COLOR.
	NoColor bool
	// ServerMode, if true, starts the HTTP server instead of rendering once.
	ServerMode bool
	// Port is the server port.
	Port string
	// LogLevel is the zerolog level (debug, info, warn, error, disabled).
	LogLevel string
	// Details, if true, prints per-state element counts and statistics.
	Details bool
	// OutputFile, if specified, saves the frame summaries to this file path.
	OutputFile string
	// Completion, if set, generates shell completion script for the specified shell.
	Completion string
}

// ToAreaConfig converts the configuration into the area parameters.
func (c AppConfig) ToAreaConfig() area.Config {
	return area.Config{
		CenterRe: c.CenterRe,
		CenterIm: c.CenterIm,
		Size:     c.Size,
		Width:    c.Width,
		Height:   c.Height,
	}
}

// ToMachineConfig converts the configuration into the engine parameters.
// The multiplier must have been validated.
func (c AppConfig) ToMachineConfig() machine.Config {
	m, _ := domain.ParseMultiplier(c.Multiplier)
	return machine.Config{
		IterationMin: c.IterationMin,
		IterationMax: c.IterationMax,
		Boundary:     c.Boundary,
		Workers:      c.Workers,
		Seed:         c.Seed,
		Multiplier:   m,
	}
}

// FrameCount returns how many frames the run calculates.
func (c AppConfig) FrameCount() int {
	if c.Repeat {
		return c.Frames
	}
	return 1
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Parameters:
//   - availableFractals: The valid preset names.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(availableFractals []string) error {
	if !slices.Contains(availableFractals, c.Fractal) {
		return apperrors.NewConfigError("unrecognized fractal: '%s'. Valid fractals are: [%s]", c.Fractal, strings.Join(availableFractals, ", "))
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.IterationMin < 0 {
		return apperrors.NewConfigError("iteration min cannot be negative: %d", c.IterationMin)
	}
	if c.IterationMax <= c.IterationMin {
		return apperrors.NewConfigError("iteration max (%d) must be greater than iteration min (%d)", c.IterationMax, c.IterationMin)
	}
	if !(c.Size > 0) || math.IsInf(c.Size, 0) {
		return apperrors.NewConfigError("area size must be a positive number: %v", c.Size)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return apperrors.NewConfigError("resolution must be positive: %dx%d", c.Width, c.Height)
	}
	if c.Chunks <= 0 {
		return apperrors.NewConfigError("chunk count must be positive: %d", c.Chunks)
	}
	if c.Width < c.Chunks || c.Height < c.Chunks {
		return apperrors.NewConfigError("resolution %dx%d is smaller than %d chunks per axis", c.Width, c.Height, c.Chunks)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}
	if c.Frames <= 0 {
		return apperrors.NewConfigError("frame count must be positive: %d", c.Frames)
	}
	if c.ReferenceFrame < 0 {
		return apperrors.NewConfigError("reference frame cannot be negative: %d", c.ReferenceFrame)
	}
	if !(c.Boundary > 0) {
		return apperrors.NewConfigError("escape boundary must be positive: %v", c.Boundary)
	}
	if _, err := domain.ParseMultiplier(c.Multiplier); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.Completion != "" && !slices.Contains(CompletionShells, c.Completion) {
		return apperrors.NewConfigError("unsupported completion shell: '%s'. Valid shells are: [%s]", c.Completion, strings.Join(CompletionShells, ", "))
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. Values neither given as a flag nor set in the environment are
// taken from the selected fractal preset.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//   - presets: The fractal definitions to validate against and draw defaults from.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, presets Presets) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	available := presets.List()
	fractalHelp := fmt.Sprintf("Fractal preset to render, one of [%s].", strings.Join(available, ", "))
	multiplierHelp := fmt.Sprintf("Oversampling mode, one of [%s] (default: from preset).", strings.Join(domain.MultiplierNames(), ", "))

	config := AppConfig{}
	fs.StringVar(&config.Fractal, "fractal", DefaultFractal, fractalHelp)
	fs.IntVar(&config.IterationMin, "min", 0, "Minimum in-area path length for a recorded path (default: from preset).")
	fs.IntVar(&config.IterationMax, "max", 0, "Iteration budget per sample (default: from preset).")
	fs.Float64Var(&config.CenterRe, "re", 0, "Real part of the area centre (default: from preset).")
	fs.Float64Var(&config.CenterIm, "im", 0, "Imaginary part of the area centre (default: from preset).")
	fs.Float64Var(&config.Size, "size", 0, "Span of the real axis (default: from preset).")
	fs.IntVar(&config.Width, "width", 0, "Horizontal resolution in pixels (default: from preset).")
	fs.IntVar(&config.Height, "height", 0, "Vertical resolution in pixels (default: from preset).")
	fs.StringVar(&config.Multiplier, "multiplier", "", multiplierHelp)
	fs.IntVar(&config.Chunks, "chunks", domain.DefaultChunks, "Number of chunks per axis.")
	fs.IntVar(&config.Workers, "workers", 0, "Concurrent chunk workers (0 = one per CPU).")
	fs.Uint64Var(&config.Seed, "seed", DefaultSeed, "Seed of the chunk calculation order.")
	fs.Float64Var(&config.Boundary, "boundary", machine.DefaultBoundary, "Squared-magnitude escape boundary.")
	fs.IntVar(&config.Frames, "frames", DefaultFrames, "Frames to calculate with -repeat.")
	fs.BoolVar(&config.Repeat, "repeat", false, "Calculate -frames frames instead of one.")
	fs.IntVar(&config.ReferenceFrame, "reference-frame", stats.DefaultReferenceFrame, "Frame whose counters become the statistics baseline.")
	fs.BoolVar(&config.SaveImages, "save-images", false, "Notify the save hook after every frame.")
	fs.StringVar(&config.Palette, "palette", DefaultPalette, "Palette handed to the render hook.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the run.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output frame summaries in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error, disabled.")
	fs.BoolVar(&config.Details, "d", false, "Display element states and statistics signals.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the frame summaries (JSON).")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Fractal = strings.ToLower(strings.TrimSpace(config.Fractal))
	if def, err := presets.Get(config.Fractal); err == nil {
		applyPreset(&config, fs, def)
	}
	if !isExplicit(fs, "chunks", "CHUNKS") {
		config.Chunks = calibration.EstimateChunks(config.Width, config.Height)
	}
	config.Multiplier = strings.ToLower(config.Multiplier)

	if err := config.Validate(available); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}

// applyPreset fills every preset-backed value that was set neither on the
// command line nor in the environment.
func applyPreset(config *AppConfig, fs *flag.FlagSet, def fractal.Definition) {
	if !isExplicit(fs, "min", "MIN") {
		config.IterationMin = def.IterationMin
	}
	if !isExplicit(fs, "max", "MAX") {
		config.IterationMax = def.IterationMax
	}
	if !isExplicit(fs, "re", "RE") {
		config.CenterRe = def.TargetRe
	}
	if !isExplicit(fs, "im", "IM") {
		config.CenterIm = def.TargetIm
	}
	if !isExplicit(fs, "size", "SIZE") {
		config.Size = def.AreaSize
	}
	if !isExplicit(fs, "width", "WIDTH") {
		config.Width = def.Width
	}
	if !isExplicit(fs, "height", "HEIGHT") {
		config.Height = def.Height
	}
	if !isExplicit(fs, "multiplier", "MULTIPLIER") {
		config.Multiplier = def.Multiplier.String()
	}
	if !isExplicit(fs, "repeat", "REPEAT") {
		config.Repeat = def.Repeat
	}
	if !isExplicit(fs, "palette", "PALETTE") && def.Palette != "" {
		config.Palette = def.Palette
	}
}
