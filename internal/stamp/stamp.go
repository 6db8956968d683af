// Package stamp supplies record identifiers and timestamps.
//
// The domain packages take a Source instead of calling uuid.New and
// time.Now directly so tests can produce stable IDs and times.
package stamp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source generates unique identifiers and the current time.
type Source interface {
	NewID() string
	Now() time.Time
}

// System is the production Source: random UUIDv4 strings and the wall
// clock in UTC.
type System struct{}

// NewID returns a new random UUID string.
func (System) NewID() string {
	return uuid.New().String()
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Sequence is a deterministic Source. IDs are "<prefix>-0001", "<prefix>-0002"...
// and the clock starts at Start, advancing by Step on every Now call.
//
// Safe for concurrent use.
type Sequence struct {
	Prefix string
	Start  time.Time
	Step   time.Duration

	mu  sync.Mutex
	ids int
	now time.Time
	set bool
}

// NewSequence returns a Sequence starting at start and ticking one second per call.
func NewSequence(prefix string, start time.Time) *Sequence {
	return &Sequence{Prefix: prefix, Start: start.UTC(), Step: time.Second}
}

// NewID returns the next sequential ID.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids++
	return fmt.Sprintf("%s-%04d", s.Prefix, s.ids)
}

// Now returns the next tick of the fake clock.
func (s *Sequence) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		s.now = s.Start
		s.set = true
		return s.now
	}
	s.now = s.now.Add(s.Step)
	return s.now
}

// Freeze stops the clock: every later Now call returns the same instant.
func (s *Sequence) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Step = 0
}
