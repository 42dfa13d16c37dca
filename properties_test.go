package mockreg_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	mockreg "github.com/Versent/go-mockreg"
)

// TestCall_behaviorProperty proves that an unlimited expectation returns
// whatever its behaviour computes, including state carried between calls.
func TestCall_behaviorProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		inputs := rapid.SliceOf(rapid.IntRange(-1000, 1000)).Draw(rt, "inputs")
		offset := rapid.Int().Draw(rt, "offset")

		reg := mockreg.New(nil)
		sum := 0
		mockreg.Expect[int, int](reg, "foo").Returning(func(x int) int {
			sum += x
			return sum + offset
		})

		want := 0
		for _, x := range inputs {
			want += x
			if got := mockreg.Call[int, int](reg, "foo", x); got != want+offset {
				rt.Fatalf("call(%d) = %d, want %d", x, got, want+offset)
			}
		}
	})
}

// TestCall_quotaProperty proves that an expectation limited to n calls is
// matched exactly n times before later expectations take over.
func TestCall_quotaProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		extra := rapid.IntRange(0, 5).Draw(rt, "extra")
		fallback := rapid.Bool().Draw(rt, "fallback")

		reg := mockreg.New(nil)
		mockreg.Expect[mockreg.Unit, string](reg, "foo").Times(n).Return("limited")
		if fallback {
			mockreg.Expect[mockreg.Unit, string](reg, "foo").Return("fallback")
		}

		for i := 0; i < n; i++ {
			if got := mockreg.Call[mockreg.Unit, string](reg, "foo", mockreg.Unit{}); got != "limited" {
				rt.Fatalf("call %d = %q, want limited", i, got)
			}
		}
		for i := 0; i <= extra; i++ {
			var got string
			err := dispatchErr(func() {
				got = mockreg.Call[mockreg.Unit, string](reg, "foo", mockreg.Unit{})
			})
			switch {
			case fallback && (err != nil || got != "fallback"):
				rt.Fatalf("call %d = %q, %v; want fallback", n+i, got, err)
			case !fallback && err == nil:
				rt.Fatalf("call %d succeeded after quota of %d", n+i, n)
			}
		}
	})
}

// TestCall_typeMismatchProperty proves that a signature mismatch is reported
// regardless of the argument value.
func TestCall_typeMismatchProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		arg := rapid.Int().Draw(rt, "arg")

		reg := mockreg.New(nil)
		mockreg.Expect[int, int](reg, "foo").Returning(func(x int) int { return x })

		err := dispatchErr(func() {
			mockreg.Call[int, uint](reg, "foo", arg)
		})
		if !errors.Is(err, mockreg.ErrTypeMismatch) {
			rt.Fatalf("call(%d) failed with %v, want %v", arg, err, mockreg.ErrTypeMismatch)
		}
	})
}
