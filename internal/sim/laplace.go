package sim

import (
	"lightning/internal/core"
	"lightning/internal/field"
)

// Laplace animates the relaxation of the bare field: no seeds, no growth.
// Each Step runs SweepsPerTick sweeps and Cells reports the potential
// quantized to 0..255.
type Laplace struct {
	cfg   Config
	field *field.Field
	cells []uint8
	conv  bool
	err   error
}

// NewLaplace validates cfg and builds the initial field.
func NewLaplace(cfg Config) (*Laplace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Laplace{cfg: cfg}
	if err := l.reset(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Laplace) reset() error {
	var opts []field.Option
	if l.cfg.Field.Workers > 0 {
		opts = append(opts, field.WithSweeper(field.ParallelSweeper{Workers: l.cfg.Field.Workers}))
	}
	f, err := field.New(l.cfg.Dims(), field.Boundary{Strengths: l.cfg.Field.Edges, Profile: l.cfg.Field.Profile}, l.cfg.Field.Interior, opts...)
	if err != nil {
		return err
	}
	l.field = f
	l.conv, l.err = false, nil
	l.cells = make([]uint8, l.cfg.Width*l.cfg.Height)
	l.quantize()
	return nil
}

// Name identifies the simulation.
func (l *Laplace) Name() string { return "laplace" }

// Size returns the displayed layer dimensions.
func (l *Laplace) Size() core.Size { return core.Size{W: l.cfg.Width, H: l.cfg.Height} }

// Reset rebuilds the field. The seed is unused; relaxation is deterministic.
func (l *Laplace) Reset(int64) { _ = l.reset() }

// Step relaxes the field until it converges or fails, then does nothing.
func (l *Laplace) Step() {
	if l.conv || l.err != nil {
		return
	}
	delta, err := l.field.Relax(max(1, l.cfg.Field.SweepsPerTick), l.cfg.Field.SOR)
	if err != nil {
		l.err = err
		return
	}
	l.conv = delta < l.cfg.Field.Tolerance
	l.quantize()
}

// Err returns the error that stopped the relaxation, if any.
func (l *Laplace) Err() error { return l.err }

// Converged reports whether the last sweep changed no cell by more than the
// tolerance.
func (l *Laplace) Converged() bool { return l.conv }

// Field exposes the underlying field.
func (l *Laplace) Field() *field.Field { return l.field }

// Cells exposes the quantized potential of the displayed layer.
func (l *Laplace) Cells() []uint8 { return l.cells }

func (l *Laplace) quantize() {
	d := l.cfg.Dims()
	z := d.Depth() / 2
	norm := l.field.Snapshot().Normalized()
	plane := d.W * d.H
	for i := range l.cells {
		l.cells[i] = uint8(norm[z*plane+i]*255 + 0.5)
	}
}

// Snapshot copies the raw potential. States stay empty; nothing grows.
func (l *Laplace) Snapshot() Frame {
	d := l.cfg.Dims()
	return Frame{
		Tick:      l.field.Sweeps(),
		Dims:      d,
		Potential: l.field.Snapshot().Values,
		States:    make([]uint8, d.Cells()),
	}
}

// Parameters reports the grid and field settings of the relaxation.
func (l *Laplace) Parameters() core.ParameterSnapshot {
	snap := l.cfg.Parameters()
	snap.Groups = snap.Groups[:2]
	return snap
}
