// Package ident supplies identifiers and timestamps to the rest of the module.
package ident

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Provider generates ids and reads the clock
type Provider interface {
	NewID() string
	Now() time.Time
}

// System is the production provider: random UUIDs and the wall clock in UTC
type System struct{}

// NewID returns a random UUID string
func (System) NewID() string {
	return uuid.NewString()
}

// Now returns the current UTC time truncated to milliseconds
func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Sequence is a deterministic provider. Ids are "<prefix>-1", "<prefix>-2", ...
// and every call to Now advances the clock by Step.
type Sequence struct {
	Prefix string
	Start  time.Time
	Step   time.Duration

	mu    sync.Mutex
	ids   int
	ticks int
}

// NewSequence creates a Sequence starting at start
func NewSequence(prefix string, start time.Time, step time.Duration) *Sequence {
	return &Sequence{Prefix: prefix, Start: start, Step: step}
}

// NewID returns the next id in the sequence
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids++
	return fmt.Sprintf("%s-%d", s.Prefix, s.ids)
}

// Now returns the next tick of the clock
func (s *Sequence) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Start.Add(time.Duration(s.ticks) * s.Step)
	s.ticks++
	return t
}
