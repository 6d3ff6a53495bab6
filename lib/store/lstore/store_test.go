package lstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertThenGet(t *testing.T) {
	s := NewLocalStore()

	prev, ok, err := s.Insert("foo", "bar")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, prev)

	val, ok, err := s.Get("foo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar", val)
}

func TestGetMissing(t *testing.T) {
	s := NewLocalStore()

	for _, key := range []string{"", "missing", "ключ"} {
		_, ok, err := s.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, "key %q", key)
	}
}

func TestEmptyKeyAndValue(t *testing.T) {
	s := NewLocalStore()

	_, _, _ = s.Insert("", "")
	val, ok, _ := s.Get("")
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestInsertReturnsPrevious(t *testing.T) {
	s := NewLocalStore()

	_, _, _ = s.Insert("k", "v1")
	prev, ok, _ := s.Insert("k", "v2")
	assert.True(t, ok)
	assert.Equal(t, "v1", prev)

	val, ok, _ := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", val)
}

func TestRemove(t *testing.T) {
	s := NewLocalStore()

	t.Run("missing", func(t *testing.T) {
		_, _, _ = s.Insert("other", "x")
		_, ok, err := s.Remove("k")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("present", func(t *testing.T) {
		_, _, _ = s.Insert("k", "v")
		removed, ok, _ := s.Remove("k")
		assert.True(t, ok)
		assert.Equal(t, "v", removed)

		_, ok, _ = s.Get("k")
		assert.False(t, ok)

		_, ok, _ = s.Remove("k")
		assert.False(t, ok)
	})
}

func TestConcurrentDistinctKeys(t *testing.T) {
	s := NewLocalStore()
	const n = 1000

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = s.Insert(fmt.Sprintf("key-%d", i), fmt.Sprintf("val-%d", i))
		}(i)
	}
	wg.Wait()

	require.Equal(t, n, s.Len())
	for i := 0; i < n; i++ {
		val, ok, _ := s.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("val-%d", i), val)
	}
}

// TestConcurrentSameKey checks that the previous values reported by concurrent
// inserts on one key form a single chain: every written value is reported as
// previous at most once and exactly one call saw the key as absent.
func TestConcurrentSameKey(t *testing.T) {
	s := NewLocalStore()
	const n = 500

	type result struct {
		prev string
		ok   bool
	}
	results := make([]result, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prev, ok, _ := s.Insert("shared", fmt.Sprintf("v%d", i))
			results[i] = result{prev, ok}
		}(i)
	}
	wg.Wait()

	absent := 0
	seen := make(map[string]bool, n)
	for i, r := range results {
		if !r.ok {
			absent++
			continue
		}
		assert.False(t, seen[r.prev], "value %s reported as previous twice", r.prev)
		assert.NotEqual(t, fmt.Sprintf("v%d", i), r.prev, "call saw its own write")
		seen[r.prev] = true
	}
	assert.Equal(t, 1, absent)

	// the final value is the only one never reported as previous
	final, ok, _ := s.Get("shared")
	require.True(t, ok)
	assert.False(t, seen[final])
	assert.Len(t, seen, n-1)
}
