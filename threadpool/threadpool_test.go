package threadpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelForVisitsEveryIndex(t *testing.T) {
	pool := New()
	const n = 200
	var seen [n]int32

	err := pool.ParallelFor(n, 8, func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)

	for i, v := range seen {
		assert.Equalf(t, int32(1), v, "index %d visited %d times", i, v)
	}
}

func TestParallelForSequentialWhenSingleWorker(t *testing.T) {
	pool := New()
	var order []int
	var mu sync.Mutex

	err := pool.ParallelFor(5, 1, func(i int) error {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestParallelForPropagatesFirstError(t *testing.T) {
	pool := New()
	boom := fmt.Errorf("boom at 3")

	err := pool.ParallelFor(10, 4, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
}

func TestParallelForNoopOnEmptyRange(t *testing.T) {
	pool := New()
	called := false
	err := pool.ParallelFor(0, 4, func(i int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
