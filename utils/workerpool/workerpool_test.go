package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_KeepsOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1, 0}
	out, err := Map(context.Background(), 3, items, func(_ context.Context, i int, v int) (int, error) {
		return v * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 40, 30, 20, 10, 0}, out)
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var running, peak int32
	items := make([]int, 50)
	_, err := Map(context.Background(), 4, items, func(context.Context, int, int) (struct{}, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestMap_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	_, err := Map(context.Background(), 1, []int{1, 2, 3, 4}, func(ctx context.Context, _ int, v int) (int, error) {
		atomic.AddInt32(&calls, 1)
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32
	_, err := Map(ctx, 2, []int{1, 2, 3}, func(context.Context, int, int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestMap_Empty(t *testing.T) {
	out, err := Map(context.Background(), 8, []string(nil), func(context.Context, int, string) (int, error) {
		return 1, nil
	})
	assert.NoError(t, err)
	assert.Empty(t, out)
}
