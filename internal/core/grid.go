package core

import (
	"fmt"
	"strings"
)

// Dims describes a regular 2D or 3D grid. D <= 1 means 2D.
type Dims struct {
	W, H, D int
}

// Coord is a grid coordinate. Z is 0 on 2D grids.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z,omitempty" yaml:"z,omitempty"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Depth returns the number of z layers (1 for 2D grids).
func (d Dims) Depth() int {
	if d.D <= 1 {
		return 1
	}
	return d.D
}

// Is3D reports whether the grid has more than one z layer.
func (d Dims) Is3D() bool { return d.D > 1 }

// Cells returns the total number of cells.
func (d Dims) Cells() int { return d.W * d.H * d.Depth() }

// Index returns the flattened row-major index for c.
func (d Dims) Index(c Coord) int { return c.Z*d.W*d.H + c.Y*d.W + c.X }

// Coord is the inverse of Index.
func (d Dims) Coord(i int) Coord {
	plane := d.W * d.H
	z := i / plane
	rem := i - z*plane
	return Coord{X: rem % d.W, Y: rem / d.W, Z: z}
}

// Contains reports whether c lies inside the grid.
func (d Dims) Contains(c Coord) bool {
	return c.X >= 0 && c.X < d.W && c.Y >= 0 && c.Y < d.H && c.Z >= 0 && c.Z < d.Depth()
}

// Neighborhood returns the number of offsets in a cube of half-width r,
// excluding the centre.
func (d Dims) Neighborhood(r int) int {
	side := 2*r + 1
	n := side * side
	if d.Is3D() {
		n *= side
	}
	return n - 1
}

// Edge names one face of the domain.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
	EdgeFront
	EdgeBack
)

var edgeNames = [...]string{"top", "bottom", "left", "right", "front", "back"}

func (e Edge) String() string {
	if int(e) < len(edgeNames) {
		return edgeNames[e]
	}
	return fmt.Sprintf("edge(%d)", e)
}

// ParseEdge maps a case-insensitive edge name to an Edge.
func ParseEdge(s string) (Edge, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range edgeNames {
		if n == name {
			return Edge(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown edge %q", ErrConfiguration, s)
}

// EdgeSet is a bitmask of edges.
type EdgeSet uint8

// Has reports whether e is in the set.
func (s EdgeSet) Has(e Edge) bool { return s&(1<<e) != 0 }

// With returns the set plus e.
func (s EdgeSet) With(e Edge) EdgeSet { return s | 1<<e }

// Edges lists the faces that exist for d: four in 2D, six in 3D.
func (d Dims) Edges() []Edge {
	if d.Is3D() {
		return []Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight, EdgeFront, EdgeBack}
	}
	return []Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight}
}

// AllEdges returns the set of every face of d.
func (d Dims) AllEdges() EdgeSet {
	var s EdgeSet
	for _, e := range d.Edges() {
		s = s.With(e)
	}
	return s
}

// EdgesOf returns the faces c lies on.
func (d Dims) EdgesOf(c Coord) EdgeSet {
	var s EdgeSet
	if c.Y == 0 {
		s = s.With(EdgeTop)
	}
	if c.Y == d.H-1 {
		s = s.With(EdgeBottom)
	}
	if c.X == 0 {
		s = s.With(EdgeLeft)
	}
	if c.X == d.W-1 {
		s = s.With(EdgeRight)
	}
	if d.Is3D() {
		if c.Z == 0 {
			s = s.With(EdgeFront)
		}
		if c.Z == d.D-1 {
			s = s.With(EdgeBack)
		}
	}
	return s
}

var (
	axis2D = []Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
	axis3D = []Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
)

// AxisOffsets returns the 4 (2D) or 6 (3D) axis-aligned neighbour offsets.
func (d Dims) AxisOffsets() []Coord {
	if d.Is3D() {
		return axis3D
	}
	return axis2D
}

// ByteGrid stores a grid of byte-sized cell values in row-major order.
type ByteGrid struct {
	Dims
	data []uint8
}

// NewByteGrid allocates a grid with the given dimensions.
func NewByteGrid(d Dims) *ByteGrid {
	if d.W <= 0 {
		d.W = 1
	}
	if d.H <= 0 {
		d.H = 1
	}
	return &ByteGrid{Dims: d, data: make([]uint8, d.Cells())}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *ByteGrid) Cells() []uint8 { return g.data }

// At returns the value stored at c.
func (g *ByteGrid) At(c Coord) uint8 { return g.data[g.Index(c)] }

// Layer returns the z-th slice of the grid.
func (g *ByteGrid) Layer(z int) []uint8 {
	plane := g.W * g.H
	return g.data[z*plane : (z+1)*plane]
}
