package mockreg

import (
	"errors"
	"fmt"
)

func (g *group[A, R]) verify(id ID) (errs []error) {
	for _, e := range g.expectations {
		if e.state == unconfigured || e.quota == 0 || e.calls >= e.quota {
			continue
		}
		var detail string
		switch e.calls {
		case 0:
			detail = fmt.Sprintf("expectation %d never called, want %d calls", e.index, e.quota)
		case 1:
			detail = fmt.Sprintf("expectation %d only got one call, want %d", e.index, e.quota)
		default:
			detail = fmt.Sprintf("expectation %d only got %d calls, want %d", e.index, e.calls, e.quota)
		}
		errs = append(errs, &DispatchError{ID: id, Err: ErrUnsatisfied, Detail: detail})
	}
	return
}

// verify checks every group in registration order. Callers must hold the
// lock.
func (r *Registry) verify() (errs []error) {
	for _, id := range r.order {
		errs = append(errs, r.groups[id].verify(id)...)
	}
	return
}

func (r *Registry) report(errs []error) {
	if r.t == nil {
		return
	}
	r.t.Helper()
	for _, err := range errs {
		r.t.Errorf("%v", err)
	}
}

func join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// AssertExpectedCalls reports to t every expectation of the given registries
// whose quota has not been reached. Nil registries are ignored.
func AssertExpectedCalls(t TestingT, regs ...*Registry) {
	t.Helper()

	for _, r := range regs {
		if r == nil {
			continue
		}
		r.Lock()
		errs := r.verify()
		r.Unlock()
		for _, err := range errs {
			t.Errorf("%v", err)
		}
	}
}
