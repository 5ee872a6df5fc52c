// Package sim interleaves the potential solver with the breakdown growth
// engine and decides when a discharge run is over.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lightning/internal/core"
	"lightning/internal/field"
	"lightning/internal/growth"
	"lightning/internal/logging"
	random "lightning/pkg/core"
)

// Reason explains why a run stopped.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonLanded    Reason = "landed"
	ReasonStalled   Reason = "stalled"
	ReasonRoundCap  Reason = "round-cap"
	ReasonError     Reason = "error"
	ReasonCancelled Reason = "cancelled"
)

// TickResult describes one orchestrator tick.
type TickResult struct {
	Tick       int           `json:"tick"`
	Sweeps     int           `json:"sweeps"`
	Delta      float64       `json:"delta"`
	CapReached bool          `json:"cap_reached"`
	Growth     growth.Result `json:"growth"`
	Done       bool          `json:"done"`
	Reason     Reason        `json:"reason,omitempty"`
}

// Outcome summarizes a finished run.
type Outcome struct {
	Seed       int64         `json:"seed"`
	Reason     Reason        `json:"reason"`
	Landed     bool          `json:"landed"`
	Rounds     int           `json:"rounds"`
	Sweeps     int           `json:"sweeps"`
	PathLength int           `json:"path_length"`
	CapReached bool          `json:"cap_reached"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
}

// Frame is the read-only view handed to renderers once per tick.
type Frame struct {
	Tick      int
	Dims      core.Dims
	Potential []float64
	States    []uint8
	Path      []core.Coord
	Landed    bool
	Reason    Reason
}

// Simulation owns the field and the growth engine of one run. Every tick runs
// relax, grow and mark strictly in sequence.
type Simulation struct {
	cfg    Config
	dims   core.Dims
	name   string
	log    *slog.Logger
	field  *field.Field
	engine *growth.Engine
	rng    *random.RNG
	onTick func(TickResult) error

	tick      int
	maxRounds int
	solved    bool
	capped    bool
	reason    Reason
	err       error
	started   time.Time
	elapsed   time.Duration
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger routes run logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// WithName overrides the registry name reported by Name.
func WithName(name string) Option {
	return func(s *Simulation) {
		if name != "" {
			s.name = name
		}
	}
}

// WithTickHook calls fn after every tick of RunToCompletion. An error from fn
// stops the run.
func WithTickHook(fn func(TickResult) error) Option {
	return func(s *Simulation) { s.onTick = fn }
}

// New validates cfg and prepares a run: edges fixed, rods grounded, seeds
// planted and marked conductive.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if cfg.Growth.Policy == "" {
		cfg.Growth.Policy = growth.PolicyRadius
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{cfg: cfg, dims: cfg.Dims(), name: "lightning", log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) reset() error {
	cfg := s.cfg
	var fieldOpts []field.Option
	if cfg.Field.Workers > 0 {
		fieldOpts = append(fieldOpts, field.WithSweeper(field.ParallelSweeper{Workers: cfg.Field.Workers}))
	}
	f, err := field.New(s.dims, field.Boundary{Strengths: cfg.Field.Edges, Profile: cfg.Field.Profile}, cfg.Field.Interior, fieldOpts...)
	if err != nil {
		return err
	}

	rods := cfg.rodCells()
	for _, r := range cfg.Growth.Rods {
		v := r.Potential
		if v == 0 {
			v = cfg.Field.Edges.Bottom
		}
		for i := 1; i <= r.Height; i++ {
			f.Fix(core.Coord{X: r.X, Y: cfg.Height - 1 - i, Z: r.Z}, v)
		}
	}

	landing, err := cfg.landingEdges()
	if err != nil {
		return err
	}
	rng := random.NewRNG(cfg.Seed)
	eng, err := growth.New(s.dims, growth.Options{Policy: cfg.Growth.Policy, LandingEdges: landing, Targets: rods}, rng)
	if err != nil {
		return err
	}
	seeds := cfg.seeds()
	if err := eng.Seed(seeds...); err != nil {
		return err
	}
	for _, c := range seeds {
		f.MarkConductive(c)
	}

	s.field, s.engine, s.rng = f, eng, rng
	s.tick, s.solved, s.capped = 0, false, false
	s.reason, s.err = ReasonNone, nil
	s.started, s.elapsed = time.Time{}, 0
	s.maxRounds = cfg.Growth.MaxRounds
	if s.maxRounds == 0 {
		s.maxRounds = s.dims.Cells()
	}
	s.log.Debug("run prepared",
		"dims", fmt.Sprintf("%dx%dx%d", s.dims.W, s.dims.H, s.dims.Depth()),
		"mode", cfg.Mode, "policy", eng.Policy(), "seeds", len(seeds), "rods", len(cfg.Growth.Rods), "seed", cfg.Seed)
	return nil
}

// Config returns the configuration the run was built from.
func (s *Simulation) Config() Config { return s.cfg }

// Field exposes the potential field for read-only inspection.
func (s *Simulation) Field() *field.Field { return s.field }

// Engine exposes the growth engine for read-only inspection.
func (s *Simulation) Engine() *growth.Engine { return s.engine }

// Done reports whether the run has stopped.
func (s *Simulation) Done() bool { return s.reason != ReasonNone }

// Reason returns why the run stopped, or ReasonNone while it is running.
func (s *Simulation) Reason() Reason { return s.reason }

// Err returns the error that stopped the run, if any.
func (s *Simulation) Err() error { return s.err }

// Tick runs one round: relax the field, grow from a fresh snapshot, ground
// the new cells, then check for termination.
func (s *Simulation) Tick() (TickResult, error) {
	if s.Done() {
		return TickResult{Tick: s.tick, Done: true, Reason: s.reason}, fmt.Errorf("%w: run %s", growth.ErrAlreadyTerminated, s.reason)
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	res := TickResult{Tick: s.tick + 1}

	delta, sweeps, err := s.relax()
	res.Delta, res.Sweeps, res.CapReached = delta, sweeps, s.capped
	if err != nil {
		return s.fail(res, err)
	}

	grown, err := s.engine.Step(s.field.Snapshot(), s.cfg.Growth.Params)
	res.Growth = grown
	for _, c := range grown.NewlyConductive {
		s.field.MarkConductive(c)
	}
	s.tick++
	s.log.Log(context.Background(), logging.LevelTrace, "round",
		"tick", s.tick, "sweeps", sweeps, "delta", delta, "grown", len(grown.NewlyConductive), "leaders", len(s.engine.Leaders()))

	switch {
	case errors.Is(err, growth.ErrStalled):
		s.finish(ReasonStalled)
	case err != nil:
		return s.fail(res, err)
	case grown.Landed:
		s.finish(ReasonLanded)
	case s.tick >= s.maxRounds:
		s.finish(ReasonRoundCap)
	}
	res.Done, res.Reason = s.Done(), s.reason
	return res, nil
}

// relax brings the field up to date for the coming growth round.
func (s *Simulation) relax() (float64, int, error) {
	fc := s.cfg.Field
	if s.cfg.Mode == ModeStatic || (fc.WarmStart && !s.solved) {
		if s.solved {
			return s.field.MaxAbsoluteDelta(), 0, nil
		}
		s.solved = true
		conv, err := s.field.Solve(fc.Tolerance, fc.MaxSweeps, fc.SOR)
		if err != nil {
			return 0, 0, err
		}
		if conv.CapReached {
			s.capped = true
			s.log.Warn("field solve hit sweep cap", "sweeps", conv.Sweeps, "delta", conv.Delta, "tolerance", fc.Tolerance)
		} else {
			s.log.Debug("field solved", "sweeps", conv.Sweeps, "delta", conv.Delta)
		}
		if s.cfg.Mode == ModeStatic {
			return conv.Delta, conv.Sweeps, nil
		}
	}
	delta, err := s.field.Relax(fc.SweepsPerTick, fc.SOR)
	return delta, fc.SweepsPerTick, err
}

func (s *Simulation) finish(r Reason) {
	s.reason = r
	if !s.started.IsZero() {
		s.elapsed = time.Since(s.started)
	}
	level := slog.LevelInfo
	if r == ReasonError {
		level = slog.LevelError
	}
	s.log.Log(context.Background(), level, "run finished",
		"reason", r, "rounds", s.tick, "path", len(s.engine.Path()), "sweeps", s.field.Sweeps(), "elapsed", s.elapsed)
}

func (s *Simulation) fail(res TickResult, err error) (TickResult, error) {
	s.err = err
	s.finish(ReasonError)
	res.Done, res.Reason = true, ReasonError
	return res, err
}

// RunToCompletion ticks until the run stops. Cancellation is checked between
// ticks; the state is consistent whenever it returns.
func (s *Simulation) RunToCompletion(ctx context.Context) (Outcome, error) {
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.err = err
			s.finish(ReasonCancelled)
			return s.Outcome(), err
		}
		res, err := s.Tick()
		if err != nil {
			return s.Outcome(), err
		}
		if s.onTick == nil {
			continue
		}
		if err := s.onTick(res); err != nil {
			if s.Done() {
				s.err = err
			} else {
				_, _ = s.fail(res, err)
			}
			return s.Outcome(), err
		}
	}
	return s.Outcome(), nil
}

// Outcome summarizes the run so far.
func (s *Simulation) Outcome() Outcome {
	o := Outcome{
		Seed:       s.cfg.Seed,
		Reason:     s.reason,
		Landed:     s.engine.Landed(),
		Rounds:     s.tick,
		Sweeps:     s.field.Sweeps(),
		PathLength: len(s.engine.Path()),
		CapReached: s.capped,
		Elapsed:    s.elapsed,
	}
	if s.err != nil {
		o.Error = s.err.Error()
	}
	return o
}

// Snapshot copies the state a renderer needs.
func (s *Simulation) Snapshot() Frame {
	return Frame{
		Tick:      s.tick,
		Dims:      s.dims,
		Potential: s.field.Snapshot().Values,
		States:    s.engine.States(),
		Path:      s.engine.Path(),
		Landed:    s.engine.Landed(),
		Reason:    s.reason,
	}
}

// Name identifies the simulation.
func (s *Simulation) Name() string { return s.name }

// Size returns the displayed layer dimensions.
func (s *Simulation) Size() core.Size { return core.Size{W: s.dims.W, H: s.dims.H} }

// Reset restarts the run with a new seed.
func (s *Simulation) Reset(seed int64) {
	s.cfg.Seed = seed
	if err := s.reset(); err != nil {
		s.log.Error("reset failed", "err", err)
	}
}

// Step advances one tick; errors end the run and are kept in Err.
func (s *Simulation) Step() {
	if s.Done() {
		return
	}
	_, _ = s.Tick()
}

// Cells exposes the cell tags of the displayed layer, the middle z slice on
// 3D grids.
func (s *Simulation) Cells() []uint8 {
	return s.engine.Layer(s.dims.Depth() / 2)
}
