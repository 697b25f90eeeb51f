package domain

import (
	"fmt"
	"strings"
)

// Multiplier is the oversampling factor of the domain: how many extra
// sub-pixel origins each element contributes besides its own cell centre.
type Multiplier int

const (
	// MultiplierNone samples only the cell centre.
	MultiplierNone Multiplier = iota
	// Square3 samples a 3×3 grid inside every cell.
	Square3
	// Square5 samples a 5×5 grid inside every cell.
	Square5
	// Square11 samples an 11×11 grid inside every cell.
	Square11
	// SquareAlter samples the four quarter-offset points of every cell.
	SquareAlter
)

var multiplierNames = map[Multiplier]string{
	MultiplierNone: "none",
	Square3:        "square3",
	Square5:        "square5",
	Square11:       "square11",
	SquareAlter:    "square-alter",
}

// String implements fmt.Stringer.
func (m Multiplier) String() string {
	if name, ok := multiplierNames[m]; ok {
		return name
	}
	return fmt.Sprintf("multiplier(%d)", int(m))
}

// MultiplierNames lists the accepted names in ascending factor order.
func MultiplierNames() []string {
	return []string{"none", "square3", "square5", "square11", "square-alter"}
}

// ParseMultiplier converts a configuration value into a Multiplier.
func ParseMultiplier(s string) (Multiplier, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range multiplierNames {
		if name == key {
			return m, nil
		}
	}
	return MultiplierNone, fmt.Errorf("unknown resolution multiplier %q (valid: %s)", s, strings.Join(MultiplierNames(), ", "))
}

// SubSamples returns the extra sample offsets of one cell, in cell units
// relative to its centre. The centre itself is never included.
func (m Multiplier) SubSamples() [][2]float64 {
	switch m {
	case Square3:
		return squareGrid(3)
	case Square5:
		return squareGrid(5)
	case Square11:
		return squareGrid(11)
	case SquareAlter:
		return [][2]float64{{-0.25, -0.25}, {0.25, -0.25}, {-0.25, 0.25}, {0.25, 0.25}}
	}
	return nil
}

// squareGrid lays a k×k lattice over the cell (k odd) and drops the centre.
func squareGrid(k int) [][2]float64 {
	offsets := make([][2]float64, 0, k*k-1)
	half := k / 2
	for j := -half; j <= half; j++ {
		for i := -half; i <= half; i++ {
			if i == 0 && j == 0 {
				continue
			}
			offsets = append(offsets, [2]float64{float64(i) / float64(k), float64(j) / float64(k)})
		}
	}
	return offsets
}
