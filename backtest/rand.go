package backtest

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies the randomness the generator consumes. Production
// uses a crypto-seeded math/rand generator; tests inject a seeded one so runs
// are reproducible.
type RandomSource interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64

	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// lockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// NewSource returns a RandomSource seeded from crypto/rand.
func NewSource() RandomSource {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSeededSource(seed)
}

// NewSeededSource returns a deterministic RandomSource for tests.
func NewSeededSource(seed int64) RandomSource {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}
