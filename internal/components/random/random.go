package random

import (
	"math/rand/v2"
	"sync"
)

// API is the interface that anything fabricating values should draw from.
//
// note: fault injection point
type API interface {
	// IntN returns a uniformly distributed int in [0, n), n must be > 0.
	IntN(n int) int
}

// IntRange returns a uniformly distributed int in [min, max].
func IntRange(r API, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}

// StandardImpl is safe for concurrent use.
type StandardImpl struct {
	mutex *sync.Mutex
	rand  *rand.Rand
}

// NewStandardImpl is seeded from the runtime's random source.
func NewStandardImpl() StandardImpl {
	return StandardImpl{
		mutex: &sync.Mutex{},
		rand:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededImpl produces the same sequence for the same seed.
func NewSeededImpl(seed uint64) StandardImpl {
	return StandardImpl{
		mutex: &sync.Mutex{},
		rand:  rand.New(rand.NewPCG(seed, seed)),
	}
}

func (s StandardImpl) IntN(n int) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.rand.IntN(n)
}
