package battle

import (
	"math/rand"
	"time"
)

// RNG is the single source of randomness of a battle: hit, critical and
// variance rolls, effect chances, AI choices, escape and tie-breaks.
// *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
	Float64() float64
}

// NewRNG returns a seeded generator. A zero seed uses the wall clock.
func NewRNG(seed int64) RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// chance reports whether a roll against p in [0,1] succeeds.
// Certain outcomes do not consume a roll.
func chance(r RNG, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// rollPercent reports whether a roll against pct in [0,100] succeeds.
func rollPercent(r RNG, pct int) bool {
	if pct >= 100 {
		return true
	}
	if pct <= 0 {
		return false
	}
	return r.Intn(100) < pct
}
