package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackpilot/pkg/sequence"
)

func TestParallelMapPreservesOrder(t *testing.T) {
	in := make([]int, 50)
	for i := range in {
		in[i] = i
	}

	out, err := ParallelMap(context.Background(), sequence.From(in), 8,
		func(_ context.Context, idx int, v int) (int, error) {
			// Later elements finish first.
			time.Sleep(time.Duration(len(in)-idx) * 50 * time.Microsecond)
			return v * v, nil
		})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestParallelMapRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	_, err := ParallelMap(context.Background(), sequence.From(make([]struct{}, 20)), 3,
		func(context.Context, int, struct{}) (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return 0, nil
		})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestParallelMapStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	out, err := ParallelMap(context.Background(), sequence.From([]int{1, 2, 3, 4}), 1,
		func(_ context.Context, _ int, v int) (int, error) {
			if v == 2 {
				return 0, boom
			}
			return v, nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestParallelMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	_, err := ParallelMap(ctx, sequence.From([]int{1, 2, 3}), 2,
		func(context.Context, int, int) (int, error) {
			calls.Add(1)
			return 0, nil
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
