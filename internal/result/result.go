// Package result accumulates the trajectories recorded by the engine and
// turns them into a per-pixel visit histogram.
package result

import (
	"cmp"
	"image/color"
	"slices"

	"github.com/agbru/fractalcalc/internal/area"
)

// Point is one complex value of a trajectory.
type Point struct {
	Re, Im float64
}

// Path is a recorded in-area trajectory, in iteration order.
type Path []Point

// Data collects the paths of one frame. It is not safe for concurrent use;
// workers fill private Data values that are merged after the frame barrier.
type Data struct {
	paths  []Path
	points int
}

// NewData returns an empty collection.
func NewData() *Data {
	return &Data{}
}

// AddPath appends p. Empty paths are ignored.
func (d *Data) AddPath(p Path) {
	if len(p) == 0 {
		return
	}
	d.paths = append(d.paths, p)
	d.points += len(p)
}

// Merge moves every path of o into d, leaving o empty.
func (d *Data) Merge(o *Data) {
	if o == nil || len(o.paths) == 0 {
		return
	}
	d.paths = append(d.paths, o.paths...)
	d.points += o.points
	o.paths = nil
	o.points = 0
}

// Paths returns the recorded paths. The slice is shared with d.
func (d *Data) Paths() []Path { return d.paths }

// Len returns the number of paths.
func (d *Data) Len() int { return len(d.paths) }

// Points returns the total number of points across all paths.
func (d *Data) Points() int { return d.points }

// Pixels is a width×height visit histogram.
type Pixels struct {
	width, height int
	values        []uint32
}

// NewPixels returns a zeroed histogram.
func NewPixels(width, height int) *Pixels {
	return &Pixels{width: width, height: height, values: make([]uint32, width*height)}
}

// Width returns the number of columns.
func (p *Pixels) Width() int { return p.width }

// Height returns the number of rows.
func (p *Pixels) Height() int { return p.height }

// At returns the count at (x, y).
func (p *Pixels) At(x, y int) uint32 { return p.values[y*p.width+x] }

// Inc adds one visit to (x, y).
func (p *Pixels) Inc(x, y int) { p.values[y*p.width+x]++ }

// Values returns the row-major counts. The slice is shared with p.
func (p *Pixels) Values() []uint32 { return p.values }

// Total returns the sum of every count.
func (p *Pixels) Total() uint64 {
	var sum uint64
	for _, v := range p.values {
		sum += uint64(v)
	}
	return sum
}

// Max returns the highest count.
func (p *Pixels) Max() uint32 {
	var m uint32
	for _, v := range p.values {
		if v > m {
			m = v
		}
	}
	return m
}

// BestChunksValue splits the histogram into chunks×chunks regions, using the
// same bounds as the domain partition, and returns the summed counts of the
// best densest regions.
func (p *Pixels) BestChunksValue(chunks, best int) uint64 {
	if chunks <= 0 || best <= 0 || p.width < chunks || p.height < chunks {
		return 0
	}
	sums := make([]uint64, 0, chunks*chunks)
	for cy := 0; cy < chunks; cy++ {
		yFrom, yTo := cy*p.height/chunks, (cy+1)*p.height/chunks
		for cx := 0; cx < chunks; cx++ {
			xFrom, xTo := cx*p.width/chunks, (cx+1)*p.width/chunks
			var s uint64
			for y := yFrom; y < yTo; y++ {
				row := p.values[y*p.width : (y+1)*p.width]
				for x := xFrom; x < xTo; x++ {
					s += uint64(row[x])
				}
			}
			sums = append(sums, s)
		}
	}
	slices.SortFunc(sums, func(a, b uint64) int { return cmp.Compare(b, a) })
	if best > len(sums) {
		best = len(sums)
	}
	var total uint64
	for _, s := range sums[:best] {
		total += s
	}
	return total
}

// Translate projects every point of data onto a's pixel grid and counts the
// visits. Points outside the area are skipped.
func Translate(data *Data, a area.Area) *Pixels {
	px := NewPixels(a.Width, a.Height)
	if data == nil {
		return px
	}
	for _, path := range data.paths {
		for _, pt := range path {
			if x, y, ok := a.ToPixel(pt.Re, pt.Im); ok {
				px.Inc(x, y)
			}
		}
	}
	return px
}

// Palette maps a normalised pixel value in [0, 1] to a colour. Colouring
// happens outside the engine; nothing here implements it.
type Palette interface {
	Color(v float64) color.RGBA
}
