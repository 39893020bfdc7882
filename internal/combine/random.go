package combine

import "math/rand/v2"

// NewRand returns a PCG generator seeded from seed. Two generators built
// from the same seed produce the same stream.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// globalSource reads from the process-wide math/rand/v2 generator.
// It is safe for concurrent use but not reproducible.
type globalSource struct{}

func (globalSource) Uint64() uint64 { return rand.Uint64() }

// resolveRand returns r, or a generator over the process-wide source when r
// is nil.
func resolveRand(r *rand.Rand) *rand.Rand {
	if r == nil {
		return rand.New(globalSource{})
	}
	return r
}
