package field

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"lightning/internal/core"
)

// Buffer is the state a single red-black phase operates on. Values is
// updated in place; Fixed cells are never written.
type Buffer struct {
	Dims   core.Dims
	Values []float64
	Fixed  []bool
}

// Sweeper applies one red-black phase to a buffer: every free cell whose
// coordinate sum has the given parity moves towards the average of its axis
// neighbours by omega. It returns the largest change it made. Cells of one
// parity only read cells of the other, so any update order within a phase
// gives the same result.
type Sweeper interface {
	Phase(buf Buffer, parity int, omega float64) float64
}

// SerialSweeper updates the phase on the calling goroutine.
type SerialSweeper struct{}

// Phase implements Sweeper.
func (SerialSweeper) Phase(buf Buffer, parity int, omega float64) float64 {
	return sweepRows(buf, parity, omega, 0, interiorRows(buf.Dims))
}

// ParallelSweeper splits the interior rows into bands and updates them
// concurrently. Phase returns only after every band is done.
type ParallelSweeper struct {
	Workers int
}

// Phase implements Sweeper.
func (p ParallelSweeper) Phase(buf Buffer, parity int, omega float64) float64 {
	rows := interiorRows(buf.Dims)
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, rows))
	per := (rows + workers - 1) / workers

	deltas := make([]float64, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * per
		hi := min(lo+per, rows)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			deltas[w] = sweepRows(buf, parity, omega, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
	return floats.Max(deltas)
}

// interiorRows counts the (z, y) rows that can hold free cells.
func interiorRows(d core.Dims) int {
	rows := d.H - 2
	if d.Is3D() {
		rows *= d.D - 2
	}
	return rows
}

func sweepRows(buf Buffer, parity int, omega float64, lo, hi int) float64 {
	d := buf.Dims
	w, plane := d.W, d.W*d.H
	ny := d.H - 2
	inv := 0.25
	if d.Is3D() {
		inv = 1.0 / 6
	}
	v := buf.Values

	var maxDelta float64
	for r := lo; r < hi; r++ {
		y := 1 + r%ny
		z := 0
		if d.Is3D() {
			z = 1 + r/ny
		}
		x := 1
		if (x+y+z)&1 != parity {
			x = 2
		}
		base := z*plane + y*w
		for ; x < w-1; x += 2 {
			i := base + x
			if buf.Fixed[i] {
				continue
			}
			sum := v[i-1] + v[i+1] + v[i-w] + v[i+w]
			if d.Is3D() {
				sum += v[i-plane] + v[i+plane]
			}
			old := v[i]
			next := (1-omega)*old + omega*sum*inv
			v[i] = next
			if delta := math.Abs(next - old); delta > maxDelta {
				maxDelta = delta
			}
		}
	}
	return maxDelta
}
