// Package mockreg is the runtime behind generated test doubles.
//
// A mock owns a Registry. Tests register expectations for a method with
// Expect and attach a behaviour with Returning; the mock's method bodies
// forward their packed arguments to Call, which selects the first eligible
// expectation, runs its behaviour and returns the result. Anything that
// cannot be dispatched fails the test immediately.
//
// Arguments are always packed into a single value. Methods without
// parameters use Unit; methods with several parameters use a struct, so
// every arity goes through the same dispatch path:
//
//	reg := mockreg.New(t)
//	var count int
//	mockreg.Expect[int, int](reg, "Add").Returning(func(x int) int {
//		count += x
//		return count
//	})
//	mockreg.Call[int, int](reg, "Add", 5) // 5
//	mockreg.Call[int, int](reg, "Add", 5) // 10
package mockreg

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// ID names one mocked method.
type ID string

// Unit is the packed value for methods without parameters or results.
type Unit = struct{}

// TestingT is the subset of testing.TB used to report failures.
type TestingT interface {
	Helper()
	Logf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger replaces the logger used to trace registrations and calls.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = &l
	}
}

// Options combines several options into one.
func Options(opts ...Option) Option {
	return func(r *Registry) {
		for _, opt := range opts {
			if opt != nil {
				opt(r)
			}
		}
	}
}

// erased is the uniform representation of a group stored in a Registry.
type erased interface {
	signature() string
	verify(id ID) []error
}

// Registry holds the expectations of one mock object. The zero value is
// ready to use; without a TestingT failures panic instead of failing a test.
type Registry struct {
	sync.Mutex
	t      TestingT
	log    *zerolog.Logger
	groups map[ID]erased
	order  []ID
}

// New returns an empty registry reporting to t. Unless t is nil, quotas are
// verified when the test finishes.
func New(t TestingT, opts ...Option) *Registry {
	r := &Registry{
		t:      t,
		groups: make(map[ID]erased),
	}
	if t != nil {
		l := newTestLogger(t)
		r.log = &l
		t.Cleanup(func() {
			t.Helper()
			r.Lock()
			defer r.Unlock()
			r.report(r.verify())
		})
	}
	Options(opts...)(r)
	return r
}

// Expect registers a new, unconfigured expectation for id and returns it so
// that it can be configured.
func Expect[A, R any](r *Registry, id ID) *Expectation[A, R] {
	r.helper()
	r.Lock()
	defer r.Unlock()

	g := lookup[A, R](r, id)
	if g == nil {
		g = &group[A, R]{}
		if r.groups == nil {
			r.groups = make(map[ID]erased)
		}
		r.groups[id] = g
		r.order = append(r.order, id)
	}
	e := &Expectation[A, R]{
		reg:   r,
		id:    id,
		index: len(g.expectations),
	}
	g.expectations = append(g.expectations, e)
	r.logger().Debug().
		Str("id", string(id)).
		Int("index", e.index).
		Str("signature", g.signature()).
		Msg("expect")
	return e
}

// Call dispatches a call to id with the packed arguments and returns the
// result of the selected behaviour. The registry stays locked while the
// behaviour runs, so behaviours must not call back into the same registry.
func Call[A, R any](r *Registry, id ID, args A) R {
	r.helper()
	r.Lock()
	defer r.Unlock()

	if _, ok := r.groups[id]; !ok {
		r.fail(noMatch(id, "no expectations registered"))
	}
	g := lookup[A, R](r, id)
	e, err := g.match(id, args)
	if err != nil {
		r.fail(err)
	}
	r.logger().Debug().
		Str("id", string(id)).
		Int("index", e.index).
		Int("calls", e.calls).
		Stringer("state", e.state).
		Msg("call")
	return e.behavior(args)
}

// Checkpoint verifies every expectation registered so far and then removes
// them all, so that new expectations can be set for the next phase of a test.
// Unsatisfied expectations are reported to the test and returned.
func (r *Registry) Checkpoint() error {
	r.helper()
	r.Lock()
	defer r.Unlock()

	errs := r.verify()
	r.report(errs)
	r.groups = make(map[ID]erased)
	r.order = nil
	return join(errs)
}

// lookup returns the typed group for id, nil when there is none. It fails
// with ErrTypeMismatch when id was registered with another signature.
// Callers must hold the lock.
func lookup[A, R any](r *Registry, id ID) *group[A, R] {
	found, ok := r.groups[id]
	if !ok {
		return nil
	}
	g, ok := found.(*group[A, R])
	if !ok {
		r.fail(&DispatchError{
			ID:     id,
			Err:    ErrTypeMismatch,
			Detail: fmt.Sprintf("registered as %s, used as %s", found.signature(), signatureOf[A, R]()),
		})
	}
	return g
}

func signatureOf[A, R any]() string {
	return fmt.Sprintf("func(%v) %v", reflect.TypeFor[A](), reflect.TypeFor[R]())
}

// fail reports err as fatal. It never returns.
func (r *Registry) fail(err error) {
	r.logger().Error().Err(err).Msg("dispatch failed")
	if r.t != nil {
		r.t.Helper()
		r.t.Fatalf("%v", err)
	}
	panic(err)
}

func (r *Registry) helper() {
	if r.t != nil {
		r.t.Helper()
	}
}

func (r *Registry) logger() *zerolog.Logger {
	if r.log == nil {
		nop := zerolog.Nop()
		r.log = &nop
	}
	return r.log
}
