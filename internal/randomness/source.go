// Package randomness provides entropy sources for the laying mechanic.
package randomness

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source yields uniformly distributed 64-bit values.
type Source interface {
	Next() uint64
}

// Seeded is a reproducible PCG stream.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns the next value of the stream.
func (s *Seeded) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

// Crypto reads from the operating system CSPRNG.
type Crypto struct{}

// NewCrypto returns a source backed by crypto/rand.
func NewCrypto() Crypto { return Crypto{} }

// Next returns 8 bytes of system entropy.
func (Crypto) Next() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("randomness: system entropy unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Sequence replays a fixed list of values in a loop. It is meant for scripted
// scenarios where every draw must be known in advance.
type Sequence struct {
	mu     sync.Mutex
	values []uint64
	pos    int
}

// NewSequence builds a looping source. An empty list always yields zero.
func NewSequence(values ...uint64) *Sequence {
	return &Sequence{values: append([]uint64(nil), values...)}
}

// Next returns the following scripted value.
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// Uniform maps draws from src onto [0, n) without modulo bias. Draws above
// the last whole multiple of n are discarded and redrawn, which for small n
// happens with probability below n/2^64. n == 0 returns a raw draw.
func Uniform(src Source, n uint64) uint64 {
	if n == 0 {
		return src.Next()
	}
	ceiling := ^uint64(0) - (-n)%n
	for {
		if v := src.Next(); v <= ceiling {
			return v % n
		}
	}
}
