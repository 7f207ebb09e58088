package layout

// DefaultSeed seeds the force engine when no "seed" parameter is given.
const DefaultSeed = 42

// LCG is a 64-bit linear congruential generator (Knuth's MMIX constants).
//
// It is a plain value owned by a single layout run, so concurrent runs never
// share state and a seed always reproduces the same sequence.
type LCG struct {
	state uint64
}

// NewLCG returns a generator seeded with seed.
func NewLCG(seed uint64) *LCG {
	return &LCG{state: seed}
}

// Uint64 advances the generator and returns the new state.
func (l *LCG) Uint64() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

// Float64 returns a value in [0, 1) built from the top 53 bits.
func (l *LCG) Float64() float64 {
	return float64(l.Uint64()>>11) / (1 << 53)
}

// Range returns a value in [lo, hi).
func (l *LCG) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*l.Float64()
}
