package mockreg

import (
	"fmt"
	"sync"
)

// Sequence constrains the order in which expectations are matched. It may be
// shared by the registries of several mocks.
type Sequence struct {
	sync.Mutex
	ids  []ID
	next int
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return new(Sequence)
}

func (s *Sequence) add(id ID) int {
	s.Lock()
	defer s.Unlock()
	s.ids = append(s.ids, id)
	return len(s.ids) - 1
}

func (s *Sequence) check(id ID, pos int) error {
	s.Lock()
	defer s.Unlock()
	if pos == s.next {
		return nil
	}
	detail := fmt.Sprintf("position %d called, but sequence is at position %d", pos, s.next)
	if s.next < len(s.ids) {
		detail += fmt.Sprintf(" (%s)", s.ids[s.next])
	}
	return &DispatchError{ID: id, Err: ErrSequenceViolation, Detail: detail}
}

func (s *Sequence) advance(pos int) {
	s.Lock()
	defer s.Unlock()
	if pos == s.next {
		s.next++
	}
}
