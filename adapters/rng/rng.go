// Package rng provides the deterministic random source used by the
// bootstrap paths.
package rng

import (
	"hash/fnv"
	"math/rand"

	"neurosync/ports"
)

type seededRNG struct{}

// New returns the default RNG adapter
func New() ports.RNG {
	return &seededRNG{}
}

// Stream derives an independent generator from the base seed and the
// operation name, so parallel consumers never share state.
func (s *seededRNG) Stream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	derived := int64(h.Sum64()) ^ seed
	return rand.New(rand.NewSource(derived))
}
