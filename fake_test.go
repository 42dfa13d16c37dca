package mockreg_test

import (
	"errors"
	"fmt"
)

// fatalSignal unwinds a call that failed through fakeT.Fatalf.
type fatalSignal struct{}

// fakeT records what a registry reports instead of failing the real test.
type fakeT struct {
	logs     []string
	errs     []string
	fatal    string
	cleanups []func()
}

func (f *fakeT) Helper() {}

func (f *fakeT) Logf(format string, args ...any) {
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func (f *fakeT) Errorf(format string, args ...any) {
	f.errs = append(f.errs, fmt.Sprintf(format, args...))
}

func (f *fakeT) Fatalf(format string, args ...any) {
	f.fatal = fmt.Sprintf(format, args...)
	panic(fatalSignal{})
}

func (f *fakeT) Cleanup(fn func()) {
	f.cleanups = append(f.cleanups, fn)
}

// finish runs the registered cleanups like the testing package does.
func (f *fakeT) finish() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
	f.cleanups = nil
}

// run calls fn and returns the fatal message it produced, if any.
func (f *fakeT) run(fn func()) (fatal string) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(fatalSignal); !ok {
				panic(r)
			}
		}
		fatal = f.fatal
	}()
	fn()
	return
}

// dispatchErr calls fn and returns the error it panicked with, if any.
func dispatchErr(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				err = errors.New(fmt.Sprint(r))
			}
		}
	}()
	fn()
	return
}
