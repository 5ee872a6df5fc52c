package growth

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"lightning/internal/core"
)

// stepCellular evaluates the whole candidate pool at once. Each candidate
// becomes conductive when its share of the pool's total weight exceeds an
// independent uniform draw; candidates are visited in index order so a seed
// fully determines the outcome.
func (e *Engine) stepCellular(pot Potential, p Params) (Result, error) {
	var res Result
	if len(e.pool) == 0 {
		return res, nil
	}

	weights := make([]float64, len(e.pool))
	for i, idx := range e.pool {
		weights[i] = e.weight(pot, e.dims.Coord(idx), p.Eta)
	}
	total := floats.Sum(weights)

	var accepted []core.Coord
	keep := e.pool[:0]
	for i, idx := range e.pool {
		prob := 1 / float64(len(e.pool))
		if total > 0 {
			prob = weights[i] / total
		}
		if prob > e.rng.Float64() {
			accepted = append(accepted, e.dims.Coord(idx))
			continue
		}
		keep = append(keep, idx)
	}
	e.pool = keep

	for _, c := range accepted {
		e.setConductive(c)
		res.NewlyConductive = append(res.NewlyConductive, c)
		if e.lands(c) {
			res.Landed = true
		}
	}
	if res.Landed {
		return res, nil
	}
	for _, c := range accepted {
		e.tagNeighbours(c)
	}
	return res, nil
}

// tagNeighbours adds the eligible empty axis neighbours of c to the
// candidate pool, keeping the pool sorted by index.
func (e *Engine) tagNeighbours(c core.Coord) {
	added := false
	for _, off := range e.dims.AxisOffsets() {
		n := core.Coord{X: c.X + off.X, Y: c.Y + off.Y, Z: c.Z + off.Z}
		if !e.eligible(n) || !e.tagCandidate(n) {
			continue
		}
		e.pool = append(e.pool, e.dims.Index(n))
		added = true
	}
	if added {
		slices.Sort(e.pool)
	}
}
