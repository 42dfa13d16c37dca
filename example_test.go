package mockreg_test

import (
	"fmt"

	mockreg "github.com/Versent/go-mockreg"
)

type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any) error
	Delete(key string)
}

type mockCacheGetReturns struct {
	R0 any
	R1 bool
}

type mockCachePutArgs struct {
	Key   string
	Value any
}

// mockCache is what mockreggen writes for a stub embedding Cache.
type mockCache struct {
	registry *mockreg.Registry
}

func (m *mockCache) Get(key string) (any, bool) {
	r := mockreg.Call[string, mockCacheGetReturns](m.registry, "Get", key)
	return r.R0, r.R1
}

func (m *mockCache) Put(key string, value any) error {
	return mockreg.Call[mockCachePutArgs, error](m.registry, "Put", mockCachePutArgs{Key: key, Value: value})
}

func (m *mockCache) Delete(key string) {
	mockreg.Call[string, mockreg.Unit](m.registry, "Delete", key)
}

func (m *mockCache) ExpectGet() *mockreg.Expectation[string, mockCacheGetReturns] {
	return mockreg.Expect[string, mockCacheGetReturns](m.registry, "Get")
}

func (m *mockCache) ExpectPut() *mockreg.Expectation[mockCachePutArgs, error] {
	return mockreg.Expect[mockCachePutArgs, error](m.registry, "Put")
}

func (m *mockCache) ExpectDelete() *mockreg.Expectation[string, mockreg.Unit] {
	return mockreg.Expect[string, mockreg.Unit](m.registry, "Delete")
}

func Example() {
	m := &mockCache{registry: mockreg.New(nil)}
	m.ExpectPut().Once().Returning(func(args mockCachePutArgs) error {
		fmt.Println("put", args.Key, args.Value)
		return nil
	})
	m.ExpectGet().Returning(func(key string) mockCacheGetReturns {
		fmt.Println("get", key)
		return mockCacheGetReturns{R0: "bar", R1: true}
	})
	m.ExpectDelete().Once().Return(mockreg.Unit{})

	var cache Cache = m
	_ = cache.Put("foo", "bar")
	v, ok := cache.Get("foo")
	fmt.Println(v, ok)
	fmt.Println("unsatisfied:", m.registry.Checkpoint() != nil)
	// Output:
	// put foo bar
	// get foo
	// bar true
	// unsatisfied: true
}

func ExampleCall_stateful() {
	reg := mockreg.New(nil)
	count := 0
	mockreg.Expect[int, int](reg, "foo").Returning(func(x int) int {
		count += x
		return count
	})
	fmt.Println(mockreg.Call[int, int](reg, "foo", 5))
	fmt.Println(mockreg.Call[int, int](reg, "foo", 5))
	// Output:
	// 5
	// 10
}
