package mockreg

// state is the lifecycle of a single expectation.
type state int

const (
	unconfigured state = iota
	configured
	exhausted
)

func (s state) String() string {
	switch s {
	case unconfigured:
		return "unconfigured"
	case configured:
		return "configured"
	case exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Expectation is one registered rule for a mocked method: a behaviour, an
// optional quota and optional argument predicates. It is returned by Expect
// and configured by chaining its methods before the mock is used.
type Expectation[A, R any] struct {
	reg      *Registry
	id       ID
	index    int
	behavior func(A) R
	matchers []Matcher
	quota    int // zero is unlimited
	calls    int
	state    state
	seq      *Sequence
	seqPos   int
}

// Returning sets the behaviour run when the expectation is matched. Calling
// it again replaces the behaviour but keeps the call count. Panics if fn is
// nil.
func (e *Expectation[A, R]) Returning(fn func(A) R) *Expectation[A, R] {
	if fn == nil {
		panic("mockreg.Returning: behaviour must not be nil")
	}
	e.reg.Lock()
	defer e.reg.Unlock()
	e.behavior = fn
	if e.state == unconfigured {
		e.state = configured
	}
	return e
}

// Return makes the expectation always return v.
func (e *Expectation[A, R]) Return(v R) *Expectation[A, R] {
	return e.Returning(func(A) R { return v })
}

// Times limits the expectation to n matches, after which it is exhausted.
// Calls already made count towards n, so raising the quota of an exhausted
// expectation makes it eligible again. Panics if n is less than one.
func (e *Expectation[A, R]) Times(n int) *Expectation[A, R] {
	if n < 1 {
		panic("mockreg.Times: quota must be at least 1")
	}
	e.reg.Lock()
	defer e.reg.Unlock()
	e.quota = n
	switch {
	case e.calls >= n && e.state == configured:
		e.state = exhausted
	case e.calls < n && e.state == exhausted:
		e.state = configured
	}
	return e
}

// Once is shorthand for Times(1).
func (e *Expectation[A, R]) Once() *Expectation[A, R] {
	return e.Times(1)
}

// With adds a matcher for the packed arguments. All matchers must accept the
// arguments for the expectation to be eligible.
func (e *Expectation[A, R]) With(m Matcher) *Expectation[A, R] {
	e.reg.Lock()
	defer e.reg.Unlock()
	e.matchers = append(e.matchers, m)
	return e
}

// Withf adds a plain predicate over the packed arguments.
func (e *Expectation[A, R]) Withf(fn func(A) bool) *Expectation[A, R] {
	return e.With(Satisfy(fn))
}

// InSequence adds the expectation to seq. Expectations in a sequence must be
// matched in the order they joined it. Unless a quota was already set the
// expectation is limited to a single call.
func (e *Expectation[A, R]) InSequence(seq *Sequence) *Expectation[A, R] {
	e.reg.Lock()
	defer e.reg.Unlock()
	e.seq = seq
	e.seqPos = seq.add(e.id)
	if e.quota == 0 {
		e.quota = 1
	}
	return e
}

// accepts reports whether all matchers accept args, with the first failure
// message otherwise.
func (e *Expectation[A, R]) accepts(args A) (bool, string) {
	for _, m := range e.matchers {
		ok, err := m.Match(args)
		if err != nil {
			return false, err.Error()
		}
		if !ok {
			return false, m.FailureMessage(args)
		}
	}
	return true, ""
}

// record counts a selected call and exhausts the expectation when its quota
// is reached.
func (e *Expectation[A, R]) record() {
	e.calls++
	if e.quota > 0 && e.calls >= e.quota {
		e.state = exhausted
		if e.seq != nil {
			e.seq.advance(e.seqPos)
		}
	}
}
