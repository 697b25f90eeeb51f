// Package domain holds the grid of sample points the engine iterates from,
// one Element per pixel, together with the chunk partitioning that spreads a
// frame's work across workers.
package domain

import (
	"fmt"
	"math/rand/v2"

	"github.com/agbru/fractalcalc/internal/area"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
)

// DefaultChunks is the number of chunks per axis.
const DefaultChunks = 20

// Element is one sample point of the domain.
type Element struct {
	x, y               int
	originRe, originIm float64

	State    State
	Iterator int
	Length   int
	Value    int
}

// Pos returns the pixel the element belongs to.
func (e *Element) Pos() (x, y int) { return e.x, e.y }

// Origin returns the plane coordinates the element iterates from.
func (e *Element) Origin() (re, im float64) { return e.originRe, e.originIm }

// MeanValue is the truncated integer mean of values, 0 when there are none.
// Every value weighs the same regardless of its position.
func MeanValue(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum / len(values)
}

// StaticValue is the escape value recorded for an element given its iterator
// and the iteration budget: 0 for bounded samples, 1 for samples that never
// left the start, the iterator otherwise.
func StaticValue(iterator, iterationMax int) int {
	switch {
	case iterator >= iterationMax:
		return 0
	case iterator < 1:
		return 1
	}
	return iterator
}

// ChunkCoord addresses one chunk of the N×N partition.
type ChunkCoord struct {
	X, Y int
}

// Outcome is a worker's private result for one element, applied to the
// domain after the frame barrier.
type Outcome struct {
	X, Y     int
	State    State
	Iterator int
	Length   int
	Value    int
}

// Domain is the width×height grid of elements.
type Domain struct {
	width, height int
	chunks        int
	elements      []Element
	mask          []State
	frames        int
}

// New builds the domain for a, with one element per pixel centred on it.
// chunks is the number of chunks per axis; it must not exceed either
// dimension, so that every chunk holds at least one element.
func New(a area.Area, chunks int) (*Domain, error) {
	if chunks <= 0 {
		return nil, apperrors.NewConfigError("chunk count must be positive, got %d", chunks)
	}
	if a.Width < chunks || a.Height < chunks {
		return nil, apperrors.NewConfigError("resolution %dx%d is smaller than %d chunks per axis", a.Width, a.Height, chunks)
	}
	d := &Domain{
		width:    a.Width,
		height:   a.Height,
		chunks:   chunks,
		elements: make([]Element, a.Width*a.Height),
		mask:     make([]State, a.Width*a.Height),
	}
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			re, im := a.ToPlane(x, y)
			d.elements[y*a.Width+x] = Element{x: x, y: y, originRe: re, originIm: im, State: ActiveNew}
		}
	}
	return d, nil
}

// Width returns the number of columns.
func (d *Domain) Width() int { return d.width }

// Height returns the number of rows.
func (d *Domain) Height() int { return d.height }

// Chunks returns the number of chunks per axis.
func (d *Domain) Chunks() int { return d.chunks }

// Element returns the element at (x, y). It panics outside the grid.
func (d *Domain) Element(x, y int) *Element {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		panic(fmt.Sprintf("domain: element (%d, %d) outside %dx%d", x, y, d.width, d.height))
	}
	return &d.elements[y*d.width+x]
}

// ChunkBounds returns the half-open pixel range [xFrom, xTo) × [yFrom, yTo)
// covered by c.
func (d *Domain) ChunkBounds(c ChunkCoord) (xFrom, xTo, yFrom, yTo int) {
	xFrom = c.X * d.width / d.chunks
	xTo = (c.X + 1) * d.width / d.chunks
	yFrom = c.Y * d.height / d.chunks
	yTo = (c.Y + 1) * d.height / d.chunks
	return
}

// ChunkCoords lists every chunk in row-major order.
func (d *Domain) ChunkCoords() []ChunkCoord {
	coords := make([]ChunkCoord, 0, d.chunks*d.chunks)
	for y := 0; y < d.chunks; y++ {
		for x := 0; x < d.chunks; x++ {
			coords = append(coords, ChunkCoord{X: x, Y: y})
		}
	}
	return coords
}

// ShuffledCalculationOrder returns every chunk in a random order drawn from
// rng, so that workers do not start on neighbouring, similarly expensive
// chunks.
func (d *Domain) ShuffledCalculationOrder(rng *rand.Rand) []ChunkCoord {
	coords := d.ChunkCoords()
	rng.Shuffle(len(coords), func(i, j int) {
		coords[i], coords[j] = coords[j], coords[i]
	})
	return coords
}

// MakeChunk returns the elements of the pixel range [xFrom, xTo) × [yFrom,
// yTo) in row-major order. Workers only read them; results travel back as
// Outcome values.
func (d *Domain) MakeChunk(xFrom, xTo, yFrom, yTo int) []*Element {
	if xTo <= xFrom || yTo <= yFrom {
		return nil
	}
	chunk := make([]*Element, 0, (xTo-xFrom)*(yTo-yFrom))
	for y := yFrom; y < yTo; y++ {
		for x := xFrom; x < xTo; x++ {
			chunk = append(chunk, &d.elements[y*d.width+x])
		}
	}
	return chunk
}

// ResetForFrame marks every element active for the next frame: ActiveNew
// before the first frame, Active after.
func (d *Domain) ResetForFrame() {
	state := Active
	if d.frames == 0 {
		state = ActiveNew
	}
	for i := range d.elements {
		d.elements[i].State = state
	}
}

// Apply writes worker outcomes back into the domain and closes the frame.
// It must run on a single goroutine after every worker has returned.
func (d *Domain) Apply(outcomes []Outcome) {
	for _, o := range outcomes {
		e := &d.elements[o.Y*d.width+o.X]
		e.State = o.State
		e.Iterator = o.Iterator
		e.Length = o.Length
		e.Value = o.Value
	}
	d.frames++
}

// Frames returns how many frames have been applied.
func (d *Domain) Frames() int { return d.frames }

// MaskFullUpdate projects every element's state onto the mask.
func (d *Domain) MaskFullUpdate() {
	for i := range d.elements {
		d.mask[i] = d.elements[i].State
	}
}

// Mask returns a copy of the state mask, row-major, as of the last
// MaskFullUpdate.
func (d *Domain) Mask() []State {
	out := make([]State, len(d.mask))
	copy(out, d.mask)
	return out
}

// Counts tallies the elements per state.
func (d *Domain) Counts() StateCounts {
	var c StateCounts
	for i := range d.elements {
		if s := d.elements[i].State; s >= 0 && s < numStates {
			c[s]++
		}
	}
	return c
}
