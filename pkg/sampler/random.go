package sampler

import (
	"math/rand"
	"time"
)

// Source provides the uniform random numbers consumed by the sampler.
// It can be swapped for a deterministic implementation in tests.
type Source interface {
	Get1D() float64
	Get2D() (float64, float64)
}

// RandomSource wraps a standard Go random generator.
type RandomSource struct {
	random *rand.Rand
}

// NewRandomSource creates a source seeded with seed.
func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{random: rand.New(rand.NewSource(seed))}
}

// NewTimeSource creates a source seeded from the wall clock.
func NewTimeSource() *RandomSource {
	return NewRandomSource(time.Now().UnixNano())
}

// Get1D returns a random float64 in [0, 1).
func (r *RandomSource) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two independent random float64 values in [0, 1).
func (r *RandomSource) Get2D() (float64, float64) {
	return r.random.Float64(), r.random.Float64()
}
