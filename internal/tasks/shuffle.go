package tasks

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Source draws uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

// Shuffle permutes items in place with the Fisher–Yates algorithm.
func Shuffle[T any](items []T, src Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// lockedSource serializes access to a [rand.Rand], which is not safe for concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// NewSource returns a ChaCha8 generator seeded from crypto/rand. It is safe for concurrent use.
func NewSource() Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) // never returns an error since Go 1.24
	return NewSeededSource(seed)
}

// NewSeededSource returns a reproducible ChaCha8 generator.
func NewSeededSource(seed [32]byte) Source {
	return &lockedSource{r: rand.New(rand.NewChaCha8(seed))}
}
