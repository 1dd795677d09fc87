package domain

import (
	"math/rand"
	"sync"
)

// Rand is the source of randomness for imposter selection, word and
// starting-player choice and room code generation. It is injected so
// tests can pin outcomes with a seeded *rand.Rand, which satisfies
// this interface directly.
type Rand interface {
	Intn(n int) int
}

// lockedRand guards a *rand.Rand for concurrent use; *rand.Rand itself
// is not goroutine-safe and the engine is shared by every connection.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand returns a goroutine-safe Rand seeded with seed
func NewLockedRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
