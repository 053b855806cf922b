package ports

import (
	"math/rand"
)

// RNG provides seeded random number generation for deterministic
// resampling. Bootstrap streams are derived per (seed, name) so results
// are reproducible regardless of goroutine scheduling.
type RNG interface {
	// Stream returns a deterministic generator for a named operation.
	// The same (name, seed) always yields the same sequence.
	Stream(name string, seed int64) *rand.Rand
}
