package fractal

import "github.com/agbru/fractalcalc/internal/domain"

// Definition is a named, ready-to-render fractal: a Math strategy together
// with the iteration bounds and viewport it looks good at.
type Definition struct {
	Name        string
	Description string
	Math        Math

	// IterationMin is the in-area path length a trajectory must exceed to be
	// recorded.
	IterationMin int
	// IterationMax is the iteration budget; samples that reach it are bounded.
	IterationMax int

	AreaSize float64
	TargetRe float64
	TargetIm float64
	Width    int
	Height   int

	Multiplier domain.Multiplier

	// Repeat presets are meant to be watched over several frames.
	Repeat bool
	// Palette names the colour palette handed to the render hook.
	Palette string
}

const (
	defaultWidth  = 1280
	defaultHeight = 720

	// PaletteDefault is the palette of quick preview presets.
	PaletteDefault = "default"
	// PaletteBlueToWhite fades from deep blue to white with density.
	PaletteBlueToWhite = "blue-to-white"
)

func nebulaSide() Definition {
	return Definition{
		Name:         "nebula-side",
		Description:  "Quadratic Buddhabrot detail off the lower antenna",
		Math:         Quadratic{},
		IterationMin: 42,
		IterationMax: 14800,
		AreaSize:     7.0,
		TargetRe:     -0.10675625916322415,
		TargetIm:     -0.8914368889277283,
		Width:        defaultWidth,
		Height:       defaultHeight,
		Multiplier:   domain.SquareAlter,
		Repeat:       true,
		Palette:      PaletteBlueToWhite,
	}
}

func gloriousHead() Definition {
	return Definition{
		Name:         "glorious-head",
		Description:  "Phoenix path density, c=0.35 p=-0.25",
		Math:         Phoenix{C: 0.35, P: -0.25, Initializer: 1.0},
		IterationMin: 8,
		IterationMax: 2500,
		AreaSize:     4.5,
		TargetRe:     -0.16884290496519,
		TargetIm:     -0.37573460559804,
		Width:        defaultWidth,
		Height:       defaultHeight,
		Multiplier:   domain.Square5,
		Repeat:       true,
		Palette:      PaletteBlueToWhite,
	}
}

func mandelbrot() Definition {
	return Definition{
		Name:         "mandelbrot",
		Description:  "Full quadratic set, quick preview settings",
		Math:         Quadratic{},
		IterationMin: 4,
		IterationMax: 800,
		AreaSize:     5.0,
		TargetRe:     -0.5,
		TargetIm:     0,
		Width:        defaultWidth,
		Height:       defaultHeight,
		Multiplier:   domain.MultiplierNone,
		Repeat:       false,
		Palette:      PaletteDefault,
	}
}

func collatz() Definition {
	return Definition{
		Name:         "collatz",
		Description:  "Complex Collatz map around the real axis",
		Math:         Collatz{},
		IterationMin: 6,
		IterationMax: 600,
		AreaSize:     6.0,
		TargetRe:     0,
		TargetIm:     0,
		Width:        defaultWidth,
		Height:       defaultHeight,
		Multiplier:   domain.MultiplierNone,
		Repeat:       false,
		Palette:      PaletteDefault,
	}
}
