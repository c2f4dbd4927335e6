package session

import (
	"math/rand"
	"sync"
	"time"
)

// Alphabet is the symbol set used for session identifiers. 16 symbols drawn
// from 62 give far more combinations than any realistic batch size needs.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultIDLength is the identifier length used when none is configured.
const DefaultIDLength = 16

// Generator produces random session identifiers. It serializes access to its
// entropy source, so a single Generator can be shared by concurrent workers.
type Generator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	length int
}

// NewGenerator creates a Generator for identifiers of the given length. A nil
// source is seeded from the clock; tests can inject a deterministic source for
// reproducible sequences.
func NewGenerator(length int, src rand.Source) *Generator {
	if length <= 0 {
		length = DefaultIDLength
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{
		rnd:    rand.New(src),
		length: length,
	}
}

// Next returns a fresh identifier. Safe for concurrent use.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf := make([]byte, g.length)
	for i := range buf {
		buf[i] = Alphabet[g.rnd.Intn(len(Alphabet))]
	}
	return string(buf)
}

// Length returns the configured identifier length.
func (g *Generator) Length() int {
	return g.length
}
