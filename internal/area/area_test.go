package area

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
)

func mustArea(t *testing.T, cfg Config) Area {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v) failed: %v", cfg, err)
	}
	return a
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{Size: 4, Width: 40, Height: 20}, false},
		{"Zero size", Config{Size: 0, Width: 40, Height: 20}, true},
		{"Negative size", Config{Size: -1, Width: 40, Height: 20}, true},
		{"Zero width", Config{Size: 4, Width: 0, Height: 20}, true},
		{"Negative height", Config{Size: 4, Width: 40, Height: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr apperrors.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestScale(t *testing.T) {
	t.Parallel()

	a := mustArea(t, Config{CenterRe: -0.5, Size: 4, Width: 400, Height: 200})
	if a.ScaleX != 0.01 || a.ScaleY != 0.01 {
		t.Errorf("scale = (%v, %v), want (0.01, 0.01)", a.ScaleX, a.ScaleY)
	}
	if a.SizeIm != 2 {
		t.Errorf("SizeIm = %v, want 2", a.SizeIm)
	}
}

func TestToPlane_CornersAndCenter(t *testing.T) {
	t.Parallel()

	a := mustArea(t, Config{Size: 4, Width: 4, Height: 4})
	re, im := a.ToPlane(0, 0)
	if re != -1.5 || im != -1.5 {
		t.Errorf("ToPlane(0,0) = (%v, %v), want (-1.5, -1.5)", re, im)
	}
	re, im = a.ToPlane(3, 3)
	if re != 1.5 || im != 1.5 {
		t.Errorf("ToPlane(3,3) = (%v, %v), want (1.5, 1.5)", re, im)
	}
	re, im = a.ToPlaneOffset(1, 1, 0.5, 0.5)
	if re != 0 || im != 0 {
		t.Errorf("ToPlaneOffset(1,1,+.5,+.5) = (%v, %v), want (0, 0)", re, im)
	}
}

func TestToPixel_OutsideGrid(t *testing.T) {
	t.Parallel()

	a := mustArea(t, Config{Size: 2, Width: 10, Height: 10})
	tests := []struct {
		re, im float64
		ok     bool
	}{
		{0, 0, true},
		{-0.999, -0.999, true},
		{1.05, 0, false},
		{0, -1.0001, false},
		{5, 5, false},
	}
	for _, tt := range tests {
		if _, _, ok := a.ToPixel(tt.re, tt.im); ok != tt.ok {
			t.Errorf("ToPixel(%v, %v) ok = %v, want %v", tt.re, tt.im, ok, tt.ok)
		}
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	a := mustArea(t, Config{CenterRe: 1, CenterIm: 1, Size: 2, Width: 20, Height: 10})
	if !a.Contains(1, 1) {
		t.Error("centre should be contained")
	}
	if !a.Contains(1.99, 1.49) {
		t.Error("point near the corner should be contained")
	}
	if a.Contains(2, 1) {
		t.Error("boundary on the real axis is exclusive")
	}
	if a.Contains(1, 1.51) {
		t.Error("imaginary half-span is 0.5")
	}
}

// TestRoundTrip_PropertyBased checks that every pixel maps to the plane and
// back onto itself, and that its plane point is inside the area.
func TestRoundTrip_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	a := mustArea(t, Config{CenterRe: -0.10675625916322415, CenterIm: -0.8914368889277283, Size: 7, Width: 128, Height: 72})

	properties.Property("pixel -> plane -> pixel is the identity", prop.ForAll(
		func(px, py int) bool {
			re, im := a.ToPlane(px, py)
			x, y, ok := a.ToPixel(re, im)
			return ok && x == px && y == py && a.Contains(re, im)
		},
		gen.IntRange(0, a.Width-1),
		gen.IntRange(0, a.Height-1),
	))

	properties.TestingRun(t)
}
