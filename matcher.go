package mockreg

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Matcher decides whether packed arguments are acceptable. Any
// gomega matcher satisfies it.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// Eq matches arguments equal to want according to cmp.Equal.
func Eq(want any, opts ...cmp.Option) Matcher {
	return eqMatcher{want: want, opts: opts}
}

type eqMatcher struct {
	want any
	opts []cmp.Option
}

func (m eqMatcher) Match(actual any) (bool, error) {
	return cmp.Equal(m.want, actual, m.opts...), nil
}

func (m eqMatcher) FailureMessage(actual any) string {
	return "arguments mismatch (-want +got):\n" + cmp.Diff(m.want, actual, m.opts...)
}

// Satisfy matches arguments of type A for which fn returns true.
func Satisfy[A any](fn func(A) bool) Matcher {
	return predicate[A](fn)
}

type predicate[A any] func(A) bool

func (p predicate[A]) Match(actual any) (bool, error) {
	args, ok := actual.(A)
	if !ok {
		return false, fmt.Errorf("%w: predicate expects %T, got %T", ErrTypeMismatch, *new(A), actual)
	}
	return p(args), nil
}

func (p predicate[A]) FailureMessage(actual any) string {
	return fmt.Sprintf("arguments %+v do not satisfy predicate", actual)
}
