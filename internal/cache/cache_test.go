package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizingSupplierComputesOnce(t *testing.T) {
	calls := 0
	supplier := NewMemoizingSupplier(func() (string, error) {
		calls++
		return "value", nil
	})

	for i := 0; i < 3; i++ {
		value, err := supplier.Get()
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	}
	assert.Equal(t, 1, calls)
}

func TestMemoizingSupplierRetriesAfterError(t *testing.T) {
	calls := 0
	supplier := NewMemoizingSupplier(func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	_, err := supplier.Get()
	require.Error(t, err)

	value, err := supplier.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 2, calls)
}

func TestMemoizingSupplierForget(t *testing.T) {
	calls := 0
	supplier := NewMemoizingSupplier(func() (int, error) {
		calls++
		return calls, nil
	})

	value, err := supplier.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	supplier.Forget()

	value, err = supplier.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, value)
}

func TestMemoizingSupplierConcurrentGetsShareOneComputation(t *testing.T) {
	calls := 0
	supplier := NewMemoizingSupplier(func() (int, error) {
		calls++
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := supplier.Get()
			assert.NoError(t, err)
			assert.Equal(t, 7, value)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestLoadingCacheLoadsOnMiss(t *testing.T) {
	loads := 0
	c := NewLoadingCache(8, time.Minute, func(key string) (string, error) {
		loads++
		return "value of " + key, nil
	})

	value, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "value of a", value)

	_, err = c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, c.Len())
}

func TestLoadingCacheErrorsAreNotCached(t *testing.T) {
	loads := 0
	c := NewLoadingCache(8, time.Minute, func(key string) (int, error) {
		loads++
		if loads == 1 {
			return 0, errors.New("load failed")
		}
		return 5, nil
	})

	_, err := c.Get("a")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	value, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 5, value)
}

func TestLoadingCacheInvalidate(t *testing.T) {
	loads := map[string]int{}
	c := NewLoadingCache(8, time.Minute, func(key string) (int, error) {
		loads[key]++
		return loads[key], nil
	})

	_, err := c.Get("a")
	require.NoError(t, err)
	_, err = c.Get("b")
	require.NoError(t, err)

	c.Invalidate("a")
	value, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 2, value)

	value, err = c.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestLoadingCacheEvictsOldestBeyondCapacity(t *testing.T) {
	c := NewLoadingCache(2, time.Minute, func(key int) (string, error) {
		return fmt.Sprintf("v%d", key), nil
	})
	for key := 0; key < 3; key++ {
		_, err := c.Get(key)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}
