// Package fractal defines the iteration state carried through one sample's
// escape-time sequence and the Math strategies that advance it. A Math
// implementation is the only thing that distinguishes one fractal family
// from another; the engine never looks inside it.
package fractal

// Mem is the mutable iteration state of one sample point.
//
// Every family shares this layout: the current value plus a two-deep history.
// Families of order one leave the history slots untouched, second-order
// recurrences such as Phoenix read and shift them on every step.
type Mem struct {
	Re, Im                 float64
	PrevRe, PrevIm         float64
	PrevPrevRe, PrevPrevIm float64
}

// Square replaces the current value z with z².
func (m *Mem) Square() {
	re := m.Re*m.Re - m.Im*m.Im
	m.Im = 2 * m.Re * m.Im
	m.Re = re
}

// Plus adds (re, im) to the current value.
func (m *Mem) Plus(re, im float64) {
	m.Re += re
	m.Im += im
}

// Quadrance returns |z|², the squared magnitude compared against the escape
// boundary.
func (m *Mem) Quadrance() float64 {
	return m.Re*m.Re + m.Im*m.Im
}

// Reset starts a new sequence at (re, im) with an empty history.
func (m *Mem) Reset(re, im float64) {
	*m = Mem{Re: re, Im: im}
}
