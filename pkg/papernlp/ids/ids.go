package ids

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Generator hands out identifiers that are unique for the lifetime of a process.
type Generator interface {
	New() string
}

// ULID generates lexically sortable identifiers from a monotonic entropy source.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULID creates a ULID generator
func NewULID() *ULID {
	return &ULID{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a fresh ULID string.
// MonotonicEntropy is not safe for concurrent use, hence the lock.
func (g *ULID) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}

// Sequence is a deterministic generator for tests and dry runs.
type Sequence struct {
	Prefix string
	mu     sync.Mutex
	n      int
}

// New returns Prefix followed by an increasing counter.
func (s *Sequence) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.Prefix, s.n)
}
