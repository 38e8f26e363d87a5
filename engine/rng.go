package engine

// Rand is an inline xorshift64 generator. Dealing must be bit-identical on
// every machine that replays the same StartGame move, so the engine carries
// its own generator instead of relying on math/rand's process-global state.
type Rand struct {
	s uint64
}

// NewRand returns a generator for the given seed. Seed 0 is corrected to 1
// because xorshift cannot leave the zero state.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

func (r *Rand) next() uint64 {
	x := r.s
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.s = x
	return x
}

// IntN returns a number in [0, n).
func (r *Rand) IntN(n int) int {
	return int(r.next() % uint64(n))
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		swap(i, j)
	}
}
