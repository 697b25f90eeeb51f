// Package area maps between the pixel grid of a frame and the region of the
// complex plane it samples.
//
// The mapping is affine per axis. The real axis grows with the pixel column,
// the imaginary axis grows with the pixel row. Pixel coordinates address the
// centre of a cell, so ToPixel(ToPlane(x, y)) always lands back on (x, y).
package area

import (
	"fmt"
	"math"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
)

// Area is an immutable description of one frame's plane region and its
// resolution. The zero value is not usable; build it with New.
type Area struct {
	// CenterRe and CenterIm are the plane coordinates of the region's centre.
	CenterRe, CenterIm float64
	// SizeRe is the span of the region along the real axis.
	SizeRe float64
	// SizeIm is the span along the imaginary axis, derived from the aspect ratio.
	SizeIm float64
	// Width and Height are the pixel resolution.
	Width, Height int
	// ScaleX and ScaleY are the plane distances covered by one pixel.
	ScaleX, ScaleY float64

	left, bottom   float64
	halfRe, halfIm float64
}

// Config holds the parameters needed to build an Area.
type Config struct {
	CenterRe, CenterIm float64
	Size               float64
	Width, Height      int
}

// New validates cfg and returns the corresponding Area.
//
// Returns:
//   - Area: the plane/pixel mapping.
//   - error: a ConfigError when the span or the resolution is degenerate.
func New(cfg Config) (Area, error) {
	if !(cfg.Size > 0) || math.IsInf(cfg.Size, 0) {
		return Area{}, apperrors.NewConfigError("area size must be a positive finite number, got %v", cfg.Size)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Area{}, apperrors.NewConfigError("resolution must be positive, got %dx%d", cfg.Width, cfg.Height)
	}

	sizeIm := cfg.Size * float64(cfg.Height) / float64(cfg.Width)
	a := Area{
		CenterRe: cfg.CenterRe,
		CenterIm: cfg.CenterIm,
		SizeRe:   cfg.Size,
		SizeIm:   sizeIm,
		Width:    cfg.Width,
		Height:   cfg.Height,
		ScaleX:   cfg.Size / float64(cfg.Width),
		ScaleY:   sizeIm / float64(cfg.Height),
		halfRe:   cfg.Size / 2,
		halfIm:   sizeIm / 2,
	}
	a.left = a.CenterRe - a.halfRe
	a.bottom = a.CenterIm - a.halfIm
	return a, nil
}

// ToPlane returns the plane coordinates of the centre of pixel (px, py).
// Values outside the grid extrapolate linearly.
func (a Area) ToPlane(px, py int) (re, im float64) {
	re = a.left + (float64(px)+0.5)*a.ScaleX
	im = a.bottom + (float64(py)+0.5)*a.ScaleY
	return re, im
}

// ToPlaneOffset is ToPlane with a sub-pixel offset in cell units, used for
// oversampling. An offset of (0, 0) is the cell centre.
func (a Area) ToPlaneOffset(px, py int, dx, dy float64) (re, im float64) {
	re = a.left + (float64(px)+0.5+dx)*a.ScaleX
	im = a.bottom + (float64(py)+0.5+dy)*a.ScaleY
	return re, im
}

// ToPixel returns the pixel cell containing (re, im). ok is false when the
// point is not representable on the grid.
func (a Area) ToPixel(re, im float64) (px, py int, ok bool) {
	fx := math.Floor((re - a.left) / a.ScaleX)
	fy := math.Floor((im - a.bottom) / a.ScaleY)
	// NaN fails both comparisons.
	if !(fx >= 0 && fx < float64(a.Width)) || !(fy >= 0 && fy < float64(a.Height)) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Contains reports whether (re, im) lies inside the configured span around
// the centre. It works in plane space and does not consult the pixel grid.
func (a Area) Contains(re, im float64) bool {
	return math.Abs(re-a.CenterRe) < a.halfRe && math.Abs(im-a.CenterIm) < a.halfIm
}

// String implements fmt.Stringer.
func (a Area) String() string {
	return fmt.Sprintf("area[center=(%g, %g) size=%gx%g res=%dx%d]",
		a.CenterRe, a.CenterIm, a.SizeRe, a.SizeIm, a.Width, a.Height)
}
