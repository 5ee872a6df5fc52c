package field

import (
	"gonum.org/v1/gonum/floats"

	"lightning/internal/core"
)

// Snapshot is a read-only copy of the potential grid.
type Snapshot struct {
	Dims   core.Dims
	Values []float64
}

// At returns the potential at c.
func (s Snapshot) At(c core.Coord) float64 { return s.Values[s.Dims.Index(c)] }

// Value returns the potential at flattened index i.
func (s Snapshot) Value(i int) float64 { return s.Values[i] }

// Range returns the smallest and largest potential.
func (s Snapshot) Range() (lo, hi float64) {
	if len(s.Values) == 0 {
		return 0, 0
	}
	return floats.Min(s.Values), floats.Max(s.Values)
}

// Normalized returns the values rescaled to [0,1]. A flat field maps to 0.
func (s Snapshot) Normalized() []float64 {
	out := make([]float64, len(s.Values))
	lo, hi := s.Range()
	if hi <= lo {
		return out
	}
	copy(out, s.Values)
	floats.AddConst(-lo, out)
	floats.Scale(1/(hi-lo), out)
	return out
}
