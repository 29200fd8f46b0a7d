package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	r.Register("one", 1)
	r.Register("two", 2)

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestRegisterOverwrite(t *testing.T) {
	r := New[string, string]()

	r.Register("key", "old")
	r.Register("key", "new")

	v, ok := r.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterMany(t *testing.T) {
	r := New[string, int]()
	r.RegisterMany(map[string]int{"one": 1, "two": 2, "three": 3})

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"one", "three", "two"}, r.Keys())
}

// TestAlias verifies aliases resolve through their target.
func TestAlias(t *testing.T) {
	r := New[string, int]()
	r.Register("number", 1)

	assert.True(t, r.Alias("Number", "number"))
	assert.False(t, r.Alias("Bogus", "missing"))

	v, ok := r.Get("Number")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// Alias follows a replaced target.
	r.Register("number", 2)
	v, _ = r.Get("Number")
	assert.Equal(t, 2, v)

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"Number", "number"}, r.Keys())
}

func TestAliasDeletedTarget(t *testing.T) {
	r := New[string, int]()
	r.Register("number", 1)
	r.Alias("Number", "number")

	r.Delete("number")

	assert.False(t, r.Has("Number"))
	assert.Empty(t, r.Keys())
}

func TestRegisterOverAlias(t *testing.T) {
	r := New[string, int]()
	r.Register("number", 1)
	r.Alias("Number", "number")

	r.Register("Number", 5)

	v, _ := r.Get("Number")
	assert.Equal(t, 5, v)
	v, _ = r.Get("number")
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, r.Len())
}

func TestRangeSortedAndEarlyStop(t *testing.T) {
	r := New[string, int]()
	r.Register("c", 3)
	r.Register("a", 1)
	r.Register("b", 2)

	var seen []string
	r.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return len(seen) < 2
	})

	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestRangeAllowsMutation(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)
	r.Register("two", 2)

	r.Range(func(k string, v int) bool {
		r.Register("new-"+k, v*10)
		return true
	})

	assert.Equal(t, 4, r.Len())
	assert.True(t, r.Has("new-one"))
}

func TestConcurrentReadWrite(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			for j := range 100 {
				r.Register(writer*1000+j, j)
			}
		}(i)
	}
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Keys()
				r.Has(1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1000, r.Len())
}
