package fractal

import (
	"math"
	"math/cmplx"
)

// Math advances an iteration state by exactly one step of a fractal's
// recurrence, given the fixed origin of the sample. Implementations must be
// deterministic and must not touch anything but m; the engine calls Advance
// concurrently from several workers on distinct Mem values.
type Math interface {
	Advance(m *Mem, originRe, originIm float64)
}

// Seeder is implemented by families that need more than the origin to start
// a sequence, typically to prime the history of a second-order recurrence.
// Families without it start at the origin with an empty history.
type Seeder interface {
	Seed(m *Mem, originRe, originIm float64)
}

// Seed initialises m for a new sequence at the given origin using f's Seeder
// when it has one.
func Seed(f Math, m *Mem, originRe, originIm float64) {
	if s, ok := f.(Seeder); ok {
		s.Seed(m, originRe, originIm)
		return
	}
	m.Reset(originRe, originIm)
}

// Quadratic is the classic z = z² + c recurrence.
type Quadratic struct{}

// Advance implements Math.
func (Quadratic) Advance(m *Mem, originRe, originIm float64) {
	m.Square()
	m.Plus(originRe, originIm)
}

// Phoenix is the second-order recurrence
//
//	z' = z² + c + p·z₋₂ + origin
//
// where c is real. The history holds the two previous values taken before
// the origin is added.
type Phoenix struct {
	C float64
	P float64
	// Initializer primes both history slots on Seed.
	Initializer float64
}

// Advance implements Math.
func (f Phoenix) Advance(m *Mem, originRe, originIm float64) {
	m.Square()

	m.Re += f.C
	m.Re += f.P * m.PrevPrevRe
	m.Im += f.P * m.PrevPrevIm

	m.PrevPrevRe = m.PrevRe
	m.PrevPrevIm = m.PrevIm
	m.PrevRe = m.Re
	m.PrevIm = m.Im

	m.Plus(originRe, originIm)
}

// Seed implements Seeder.
func (f Phoenix) Seed(m *Mem, originRe, originIm float64) {
	*m = Mem{
		Re:         originRe,
		Im:         originIm,
		PrevRe:     f.Initializer,
		PrevIm:     f.Initializer,
		PrevPrevRe: f.Initializer,
		PrevPrevIm: f.Initializer,
	}
}

// Collatz is the complex extension of the Collatz map,
//
//	z' = (2 + 7z − (2 + 5z)·cos(πz)) / 4 + origin.
type Collatz struct{}

// Advance implements Math.
func (Collatz) Advance(m *Mem, originRe, originIm float64) {
	z := complex(m.Re, m.Im)
	z = (2 + 7*z - (2+5*z)*cmplx.Cos(math.Pi*z)) / 4
	m.Re = real(z) + originRe
	m.Im = imag(z) + originIm
}
