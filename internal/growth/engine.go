// Package growth implements the dielectric breakdown model: a discharge path
// that extends into neighbouring cells with probability proportional to the
// local potential raised to an exponent.
package growth

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"lightning/internal/core"
	random "lightning/pkg/core"
)

var (
	// ErrAlreadyTerminated is returned by Step once the discharge has landed.
	ErrAlreadyTerminated = errors.New("growth: discharge already terminated")
	// ErrSampleExhausted reports that a leader could not draw the requested
	// number of distinct candidates.
	ErrSampleExhausted = errors.New("growth: sample exhausted")
	// ErrStalled reports that no leader or candidate is left to grow from
	// before the discharge landed.
	ErrStalled = errors.New("growth: no growth sites left")
	// ErrOutOfBounds reports a seed or target outside the grid.
	ErrOutOfBounds = fmt.Errorf("%w: coordinate out of bounds", core.ErrConfiguration)
)

// State is the growth view of one cell. Transitions only go forward.
type State uint8

const (
	Empty State = iota
	Candidate
	Conductive
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Candidate:
		return "candidate"
	case Conductive:
		return "conductive"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Policy selects how candidate sites are chosen each round.
type Policy string

const (
	// PolicyRadius samples a few sites around each leader and follows the most
	// probable one, branching on near ties.
	PolicyRadius Policy = "radius"
	// PolicyCellular accepts every candidate adjacent to the path
	// independently against its share of the global weight.
	PolicyCellular Policy = "cellular"
)

// ParsePolicy maps a case-insensitive name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyRadius, PolicyCellular:
		return p, nil
	case "":
		return PolicyRadius, nil
	}
	return "", &core.ConfigError{Key: "policy", Value: s, Reason: "expected radius or cellular"}
}

// Params tunes one growth round.
type Params struct {
	Eta             float64 `yaml:"eta" json:"eta"`
	SampleCount     int     `yaml:"sample_count" json:"sample_count"`
	SampleRadius    int     `yaml:"sample_radius" json:"sample_radius"`
	BranchTolerance float64 `yaml:"branch_tolerance" json:"branch_tolerance"`
}

// DefaultParams mirrors the classic breakdown settings: linear exponent,
// three samples within two cells, branching only on near-exact ties.
func DefaultParams() Params {
	return Params{Eta: 1, SampleCount: 3, SampleRadius: 2, BranchTolerance: 1e-5}
}

// Validate rejects parameters no policy can run with.
func (p Params) Validate() error {
	if math.IsNaN(p.Eta) || p.Eta < 0 {
		return &core.ConfigError{Key: "eta", Value: fmt.Sprint(p.Eta), Reason: "must be non-negative"}
	}
	if p.SampleCount <= 0 {
		return &core.ConfigError{Key: "sample_count", Value: fmt.Sprint(p.SampleCount), Reason: "must be positive"}
	}
	if p.SampleRadius <= 0 {
		return &core.ConfigError{Key: "sample_radius", Value: fmt.Sprint(p.SampleRadius), Reason: "must be positive"}
	}
	if math.IsNaN(p.BranchTolerance) || p.BranchTolerance < 0 {
		return &core.ConfigError{Key: "branch_tolerance", Value: fmt.Sprint(p.BranchTolerance), Reason: "must be non-negative"}
	}
	return nil
}

// Result describes one growth round.
type Result struct {
	NewlyConductive []core.Coord `json:"newly_conductive"`
	Landed          bool         `json:"landed"`
}

// Potential is the read side of a potential snapshot, indexed by flattened
// cell index.
type Potential interface {
	Value(i int) float64
}

// Options configures an Engine.
type Options struct {
	Policy Policy
	// LandingEdges lists the faces that end the discharge. Zero means every
	// face except those holding a seed.
	LandingEdges core.EdgeSet
	// Targets are grounded cells that also end the discharge when reached.
	Targets []core.Coord
}

// Engine owns the discharge state of one run. It is not safe for concurrent
// use.
type Engine struct {
	dims    core.Dims
	policy  Policy
	rng     *random.RNG
	states  *core.ByteGrid
	landing core.EdgeSet
	seeded  core.EdgeSet
	targets map[int]struct{}

	leaders []core.Coord
	pool    []int
	path    []core.Coord
	rounds  int
	landed  bool
	stalled bool
}

// New creates an engine for dims. The RNG is owned by the engine from here on.
func New(dims core.Dims, opts Options, rng *random.RNG) (*Engine, error) {
	if dims.W <= 0 || dims.H <= 0 || dims.D < 0 {
		return nil, &core.ConfigError{Key: "dims", Value: fmt.Sprintf("%dx%dx%d", dims.W, dims.H, dims.D), Reason: "must be positive"}
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = random.NewRNG(0)
	}
	e := &Engine{
		dims:    dims,
		policy:  policy,
		rng:     rng,
		states:  core.NewByteGrid(dims),
		landing: opts.LandingEdges,
		targets: make(map[int]struct{}, len(opts.Targets)),
	}
	for _, t := range opts.Targets {
		if !dims.Contains(t) {
			return nil, fmt.Errorf("%w: target %v", ErrOutOfBounds, t)
		}
		e.targets[dims.Index(t)] = struct{}{}
	}
	return e, nil
}

// Seed marks coords conductive and makes them the initial frontier. Seeds do
// not land the discharge; the faces they sit on stop being landing faces.
func (e *Engine) Seed(coords ...core.Coord) error {
	if e.landed {
		return ErrAlreadyTerminated
	}
	for _, c := range coords {
		if !e.dims.Contains(c) {
			return fmt.Errorf("%w: seed %v", ErrOutOfBounds, c)
		}
	}
	for _, c := range coords {
		e.seeded |= e.dims.EdgesOf(c)
		if !e.setConductive(c) {
			continue
		}
		e.leaders = append(e.leaders, c)
	}
	if e.policy == PolicyCellular {
		for _, c := range coords {
			e.tagNeighbours(c)
		}
	}
	e.stalled = false
	return nil
}

// Step advances the discharge by one round using the given potential.
func (e *Engine) Step(pot Potential, p Params) (Result, error) {
	if e.landed {
		return Result{Landed: true}, ErrAlreadyTerminated
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if e.stalled || (len(e.path) == 0) {
		return Result{}, ErrStalled
	}
	e.rounds++

	var (
		res Result
		err error
	)
	switch e.policy {
	case PolicyCellular:
		res, err = e.stepCellular(pot, p)
	default:
		res, err = e.stepRadius(pot, p)
	}
	if err != nil {
		return res, err
	}
	if res.Landed {
		e.landed = true
		e.leaders = nil
		e.pool = nil
		return res, nil
	}
	if e.exhausted() {
		e.stalled = true
		return res, ErrStalled
	}
	return res, nil
}

func (e *Engine) exhausted() bool {
	if e.policy == PolicyCellular {
		return len(e.pool) == 0
	}
	return len(e.leaders) == 0
}

// Landed reports whether the discharge has reached a landing face or target.
func (e *Engine) Landed() bool { return e.landed }

// Rounds returns how many growth rounds have run.
func (e *Engine) Rounds() int { return e.rounds }

// Policy returns the candidate selection policy in use.
func (e *Engine) Policy() Policy { return e.policy }

// Dims returns the grid dimensions.
func (e *Engine) Dims() core.Dims { return e.dims }

// Path returns the conductive cells in the order they were acquired.
func (e *Engine) Path() []core.Coord { return append([]core.Coord(nil), e.path...) }

// Leaders returns the current frontier of the radius policy.
func (e *Engine) Leaders() []core.Coord { return append([]core.Coord(nil), e.leaders...) }

// State returns the tag of c.
func (e *Engine) State(c core.Coord) State { return State(e.states.At(c)) }

// States returns a copy of the cell tags in flattened order.
func (e *Engine) States() []uint8 { return append([]uint8(nil), e.states.Cells()...) }

// Layer copies the cell states of z slice z.
func (e *Engine) Layer(z int) []uint8 { return append([]uint8(nil), e.states.Layer(z)...) }

// LandingEdges returns the faces that currently end the discharge.
func (e *Engine) LandingEdges() core.EdgeSet {
	set := e.landing
	if set == 0 {
		set = e.dims.AllEdges()
	}
	return set &^ e.seeded
}

// eligible reports whether c may become part of the path: in bounds, not
// conductive, and not on an electrode face.
func (e *Engine) eligible(c core.Coord) bool {
	if !e.dims.Contains(c) {
		return false
	}
	if State(e.states.At(c)) == Conductive {
		return false
	}
	return e.dims.EdgesOf(c)&^e.LandingEdges() == 0
}

func (e *Engine) lands(c core.Coord) bool {
	if _, ok := e.targets[e.dims.Index(c)]; ok {
		return true
	}
	return e.dims.EdgesOf(c)&e.LandingEdges() != 0
}

func (e *Engine) setConductive(c core.Coord) bool {
	cells := e.states.Cells()
	i := e.dims.Index(c)
	if State(cells[i]) == Conductive {
		return false
	}
	cells[i] = uint8(Conductive)
	e.path = append(e.path, c)
	return true
}

func (e *Engine) tagCandidate(c core.Coord) bool {
	cells := e.states.Cells()
	i := e.dims.Index(c)
	if State(cells[i]) != Empty {
		return false
	}
	cells[i] = uint8(Candidate)
	return true
}

func (e *Engine) weight(pot Potential, c core.Coord, eta float64) float64 {
	v := pot.Value(e.dims.Index(c))
	if !(v > 0) {
		return 0
	}
	return math.Pow(v, eta)
}
