package growth

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"lightning/internal/core"
)

// drawRetries bounds how many rejected draws a single sample may take,
// relative to the neighbourhood size.
var drawRetries = 32

type sample struct {
	c core.Coord
	p float64
}

// stepRadius advances every leader once. Each leader draws up to
// SampleCount distinct eligible sites within SampleRadius, follows the most
// probable one and branches into any other within BranchTolerance of it.
func (e *Engine) stepRadius(pot Potential, p Params) (Result, error) {
	r := p.SampleRadius
	hood := e.dims.Neighborhood(r)
	if p.SampleCount > hood {
		return Result{}, fmt.Errorf("%w: %d samples requested from a neighbourhood of %d", ErrSampleExhausted, p.SampleCount, hood)
	}

	var res Result
	leaders := e.leaders
	e.leaders = nil
	sampled := make(map[int]struct{})

	for k, leader := range leaders {
		samples, err := e.drawSamples(leader, p, hood, sampled)
		if err != nil {
			e.leaders = append(e.leaders, leaders[k:]...)
			return res, err
		}
		if len(samples) == 0 {
			continue
		}

		weights := make([]float64, len(samples))
		for i, s := range samples {
			weights[i] = e.weight(pot, s.c, p.Eta)
		}
		total := floats.Sum(weights)
		for i := range samples {
			if total > 0 {
				samples[i].p = weights[i] / total
			} else {
				samples[i].p = 1 / float64(len(samples))
			}
		}
		slices.SortStableFunc(samples, func(a, b sample) int {
			switch {
			case a.p > b.p:
				return -1
			case a.p < b.p:
				return 1
			}
			return 0
		})

		top := samples[0].p
		for j, s := range samples {
			if j > 0 && top-s.p >= p.BranchTolerance {
				e.tagCandidate(s.c)
				continue
			}
			e.setConductive(s.c)
			res.NewlyConductive = append(res.NewlyConductive, s.c)
			e.leaders = append(e.leaders, s.c)
			if e.lands(s.c) {
				res.Landed = true
				return res, nil
			}
		}
	}
	return res, nil
}

// drawSamples picks distinct eligible sites around leader, redrawing
// out-of-range or ineligible draws instead of clamping them.
func (e *Engine) drawSamples(leader core.Coord, p Params, hood int, sampled map[int]struct{}) ([]sample, error) {
	r := p.SampleRadius
	avail := e.available(leader, r, sampled)
	want := min(p.SampleCount, avail)
	if want == 0 {
		return nil, nil
	}

	out := make([]sample, 0, want)
	limit := drawRetries * (hood + 1)
	for len(out) < want {
		tries := 0
		for {
			if tries >= limit {
				return nil, fmt.Errorf("%w: leader %v after %d draws", ErrSampleExhausted, leader, tries)
			}
			tries++
			c := core.Coord{
				X: leader.X + e.rng.IntRange(-r, r),
				Y: leader.Y + e.rng.IntRange(-r, r),
				Z: leader.Z,
			}
			if e.dims.Is3D() {
				c.Z += e.rng.IntRange(-r, r)
			}
			if c == leader || !e.eligible(c) {
				continue
			}
			i := e.dims.Index(c)
			if _, dup := sampled[i]; dup {
				continue
			}
			sampled[i] = struct{}{}
			out = append(out, sample{c: c})
			break
		}
	}
	return out, nil
}

// available counts eligible, not yet sampled sites in the neighbourhood of c.
func (e *Engine) available(c core.Coord, r int, sampled map[int]struct{}) int {
	zr := 0
	if e.dims.Is3D() {
		zr = r
	}
	n := 0
	for dz := -zr; dz <= zr; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				cc := core.Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
				if !e.eligible(cc) {
					continue
				}
				if _, dup := sampled[e.dims.Index(cc)]; dup {
					continue
				}
				n++
			}
		}
	}
	return n
}
