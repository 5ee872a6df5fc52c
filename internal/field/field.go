// Package field solves Laplace's equation on a regular 2D or 3D grid with
// Dirichlet boundaries, using red-black successive over-relaxation.
package field

import (
	"fmt"
	"math"

	"lightning/internal/core"
)

var (
	// ErrInvalidDimension reports a grid with no interior cells.
	ErrInvalidDimension = fmt.Errorf("%w: invalid dimension", core.ErrConfiguration)
	// ErrInvalidSOR reports an over-relaxation coefficient outside (0,2).
	ErrInvalidSOR = fmt.Errorf("%w: sor coefficient outside (0,2)", core.ErrConfiguration)
	// ErrInvalidSweeps reports a non-positive sweep count, tolerance or cap.
	ErrInvalidSweeps = fmt.Errorf("%w: invalid sweep budget", core.ErrConfiguration)
)

// Strengths holds one Dirichlet value per domain face. Front and Back only
// apply to 3D grids.
type Strengths struct {
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
	Front  float64 `yaml:"front" json:"front"`
	Back   float64 `yaml:"back" json:"back"`
}

// Uniform returns strengths with every face set to v.
func Uniform(v float64) Strengths {
	return Strengths{Top: v, Bottom: v, Left: v, Right: v, Front: v, Back: v}
}

// Of returns the strength of face e.
func (s Strengths) Of(e core.Edge) float64 {
	switch e {
	case core.EdgeTop:
		return s.Top
	case core.EdgeBottom:
		return s.Bottom
	case core.EdgeLeft:
		return s.Left
	case core.EdgeRight:
		return s.Right
	case core.EdgeFront:
		return s.Front
	case core.EdgeBack:
		return s.Back
	}
	return 0
}

// Profile shapes the strength along an edge.
type Profile string

const (
	ProfileUniform Profile = "uniform"
	// ProfileSine scales each edge cell by |sin(2*pi*i/n)| of its position along the edge.
	ProfileSine Profile = "sine"
)

// Boundary configures the domain faces.
type Boundary struct {
	Strengths Strengths
	Profile   Profile
}

// Corner cells take the value of the last face listed here that contains them.
var edgeOrder = []core.Edge{core.EdgeFront, core.EdgeBack, core.EdgeTop, core.EdgeBottom, core.EdgeLeft, core.EdgeRight}

// Field owns the potential grid and its boundary mask.
type Field struct {
	dims    core.Dims
	values  []float64
	fixed   []bool
	delta   float64
	sweeps  int
	sweeper Sweeper
}

// Option customizes a Field.
type Option func(*Field)

// WithSweeper selects the phase backend. The default is SerialSweeper.
func WithSweeper(s Sweeper) Option {
	return func(f *Field) {
		if s != nil {
			f.sweeper = s
		}
	}
}

// New allocates a field, fixes every domain-edge cell to its face strength and
// sets interior cells to interior.
func New(dims core.Dims, b Boundary, interior float64, opts ...Option) (*Field, error) {
	if dims.W <= 2 || dims.H <= 2 || dims.D < 0 || dims.D == 2 {
		return nil, fmt.Errorf("%w: %dx%dx%d has no interior", ErrInvalidDimension, dims.W, dims.H, dims.D)
	}
	profile := b.Profile
	if profile == "" {
		profile = ProfileUniform
	}
	if profile != ProfileUniform && profile != ProfileSine {
		return nil, &core.ConfigError{Key: "profile", Value: b.Profile, Reason: "expected uniform or sine"}
	}

	f := &Field{
		dims:    dims,
		values:  make([]float64, dims.Cells()),
		fixed:   make([]bool, dims.Cells()),
		delta:   math.Inf(1),
		sweeper: SerialSweeper{},
	}
	for _, opt := range opts {
		opt(f)
	}

	for i := range f.values {
		c := dims.Coord(i)
		edges := dims.EdgesOf(c)
		if edges == 0 {
			f.values[i] = interior
			continue
		}
		f.fixed[i] = true
		for _, e := range edgeOrder {
			if edges.Has(e) {
				f.values[i] = b.Strengths.Of(e) * profileScale(profile, dims, e, c)
			}
		}
	}
	return f, nil
}

func profileScale(p Profile, d core.Dims, e core.Edge, c core.Coord) float64 {
	if p != ProfileSine {
		return 1
	}
	pos, n := c.X, d.W
	if e == core.EdgeLeft || e == core.EdgeRight {
		pos, n = c.Y, d.H
	}
	return math.Abs(math.Sin(2 * math.Pi * float64(pos) / float64(n)))
}

// Dims returns the grid dimensions.
func (f *Field) Dims() core.Dims { return f.dims }

// IsBoundary reports whether c is a fixed cell.
func (f *Field) IsBoundary(c core.Coord) bool {
	return f.dims.Contains(c) && f.fixed[f.dims.Index(c)]
}

// At returns the current potential at c.
func (f *Field) At(c core.Coord) float64 { return f.values[f.dims.Index(c)] }

// MarkConductive grounds c: it joins the boundary mask with potential 0. It is
// a no-op for cells that are already boundary and reports whether anything
// changed. It must not be called while a sweep is running.
func (f *Field) MarkConductive(c core.Coord) bool {
	if !f.dims.Contains(c) {
		return false
	}
	i := f.dims.Index(c)
	if f.fixed[i] {
		return false
	}
	f.fixed[i] = true
	f.values[i] = 0
	return true
}

// Fix pins c to v, overriding any previous value.
func (f *Field) Fix(c core.Coord, v float64) bool {
	if !f.dims.Contains(c) {
		return false
	}
	i := f.dims.Index(c)
	f.fixed[i] = true
	f.values[i] = v
	return true
}

// Relax performs sweeps red-black SOR passes with coefficient omega and
// returns the largest per-cell change of the last pass.
func (f *Field) Relax(sweeps int, omega float64) (float64, error) {
	if !(omega > 0 && omega < 2) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSOR, omega)
	}
	if sweeps <= 0 {
		return 0, fmt.Errorf("%w: sweeps=%d", ErrInvalidSweeps, sweeps)
	}
	buf := Buffer{Dims: f.dims, Values: f.values, Fixed: f.fixed}
	for n := 0; n < sweeps; n++ {
		red := f.sweeper.Phase(buf, 0, omega)
		black := f.sweeper.Phase(buf, 1, omega)
		f.delta = math.Max(red, black)
		f.sweeps++
	}
	return f.delta, nil
}

// MaxAbsoluteDelta returns the largest change made by the most recent sweep,
// or +Inf before the first one.
func (f *Field) MaxAbsoluteDelta() float64 { return f.delta }

// Sweeps returns the total number of sweeps performed.
func (f *Field) Sweeps() int { return f.sweeps }

// Convergence describes how a Solve call ended. CapReached marks a degraded
// result: the sweep budget ran out before the tolerance was met.
type Convergence struct {
	Sweeps     int     `json:"sweeps"`
	Delta      float64 `json:"delta"`
	CapReached bool    `json:"cap_reached"`
}

// Solve relaxes until MaxAbsoluteDelta drops below tolerance or maxSweeps
// passes have run.
func (f *Field) Solve(tolerance float64, maxSweeps int, omega float64) (Convergence, error) {
	if !(tolerance > 0) {
		return Convergence{}, fmt.Errorf("%w: tolerance=%v", ErrInvalidSweeps, tolerance)
	}
	if maxSweeps <= 0 {
		return Convergence{}, fmt.Errorf("%w: max sweeps=%d", ErrInvalidSweeps, maxSweeps)
	}
	for n := 1; n <= maxSweeps; n++ {
		d, err := f.Relax(1, omega)
		if err != nil {
			return Convergence{}, err
		}
		if d < tolerance {
			return Convergence{Sweeps: n, Delta: d}, nil
		}
	}
	return Convergence{Sweeps: maxSweeps, Delta: f.delta, CapReached: true}, nil
}

// Snapshot returns a copy of the current values.
func (f *Field) Snapshot() Snapshot {
	return Snapshot{Dims: f.dims, Values: append([]float64(nil), f.values...)}
}
