package core

import "math/rand/v2"

// XorShift128 is Marsaglia's xor128 generator: four 32-bit words of state.
// It implements rand.Source so it can back a math/rand/v2 Rand.
type XorShift128 struct {
	x, y, z, w uint32
}

// Uint32 advances the state by one step and returns the new word.
func (s *XorShift128) Uint32() uint32 {
	t := s.x ^ (s.x << 11)
	s.x, s.y, s.z = s.y, s.z, s.w
	s.w = (s.w ^ (s.w >> 19)) ^ (t ^ (t >> 8))
	return s.w
}

// Uint64 joins two consecutive steps.
func (s *XorShift128) Uint64() uint64 {
	hi := uint64(s.Uint32())
	return hi<<32 | uint64(s.Uint32())
}

// State returns the four state words.
func (s *XorShift128) State() [4]uint32 {
	return [4]uint32{s.x, s.y, s.z, s.w}
}

func newXorShift128(seed int64) *XorShift128 {
	if seed == 0 {
		return &XorShift128{x: 123456789, y: 362436069, z: 521288629, w: 88675123}
	}
	sm := uint64(seed)
	a := splitmix64(&sm)
	b := splitmix64(&sm)
	s := &XorShift128{x: uint32(a), y: uint32(a >> 32), z: uint32(b), w: uint32(b >> 32)}
	if s.x|s.y|s.z|s.w == 0 {
		s.w = 88675123
	}
	return s
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RNG is a deterministic random source owned by a single run. It is not safe
// for concurrent use.
type RNG struct {
	xs *XorShift128
	r  *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed. Seed 0 selects
// the canonical xor128 starting state.
func NewRNG(seed int64) *RNG {
	xs := newXorShift128(seed)
	return &RNG{xs: xs, r: rand.New(xs)}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.xs.Uint32()) / (1 << 32)
}

// Range returns a uniform value in [min, max).
func (r *RNG) Range(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// IntRange returns a uniform integer in [lo, hi].
func (r *RNG) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(r.Float64()*float64(hi-lo+1))
}

// State exposes the generator words, e.g. for recording a run.
func (r *RNG) State() [4]uint32 { return r.xs.State() }

// Source exposes a math/rand/v2 view that advances the same xorshift state as
// Float64.
func (r *RNG) Source() *rand.Rand { return r.r }
