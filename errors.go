package mockreg

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingExpectation is reported when no eligible expectation
	// exists for a call.
	ErrNoMatchingExpectation = errors.New("No matching expectation found")

	// ErrTypeMismatch is reported when an ID is registered or called with an
	// argument/return pair that differs from the one it was first registered
	// with.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSequenceViolation is reported when an expectation that belongs to a
	// Sequence is matched before its predecessors were satisfied.
	ErrSequenceViolation = errors.New("method sequence violation")

	// ErrUnsatisfied is reported by verification for expectations with a
	// finite quota that were called fewer times than required.
	ErrUnsatisfied = errors.New("expectation not satisfied")
)

// DispatchError describes a failure for a single mocked method.
type DispatchError struct {
	ID     ID
	Err    error
	Detail string
}

func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("mockreg: %v for %s", e.Err, e.ID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func noMatch(id ID, detail string) error {
	return &DispatchError{ID: id, Err: ErrNoMatchingExpectation, Detail: detail}
}
