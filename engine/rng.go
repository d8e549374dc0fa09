package engine

import "math/rand"

// RNG wraps math/rand.Rand with a fixed seed so a session can be replayed.
// It satisfies encounter.Source.
type RNG struct {
	seed  int64
	src   *rand.Rand
	calls int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	r.calls++
	return r.src.Float64()
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	r.calls++
	return r.src.Intn(sides) + 1
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r.calls++
	roll := r.src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Calls returns the number of draws made since creation.
func (r *RNG) Calls() int64 {
	return r.calls
}
