package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func makeUnits(n int) []contracts.WorkUnit {
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}
	units := make([]contracts.WorkUnit, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, contracts.WorkUnit{
			Key: contracts.SeriesKey{
				EntityID: fmt.Sprintf("server-%04d", i),
				Resource: contracts.ResourceCPU,
			},
			Family:  contracts.FamilySeasonal,
			Windows: w,
		})
	}
	return units
}

func okExecutor(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
	return []contracts.ModelResult{{
		Key:     unit.Key,
		Family:  unit.Family,
		TS:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Point:   50,
		Lower:   45,
		Upper:   55,
		Segment: contracts.SegmentForecast,
	}}, nil
}

func TestPoolRunsAllUnits(t *testing.T) {
	pool := NewPool(4, testLogger())
	units := makeUnits(100)

	outcomes := pool.Run(context.Background(), units, okExecutor)
	require.Len(t, outcomes, len(units))

	// 모든 unit이 정확히 한 번 실행
	seen := make(map[contracts.SeriesKey]bool)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.Len(t, o.Results, 1)
		assert.False(t, seen[o.Unit.Key], "unit %s executed twice", o.Unit.Key)
		seen[o.Unit.Key] = true
	}
	assert.Len(t, seen, len(units))
}

func TestPoolFailureIsolation(t *testing.T) {
	pool := NewPool(4, testLogger())
	units := makeUnits(50)

	// 특정 unit 하나만 강제 실패
	failKey := units[17].Key
	boom := errors.New("model blew up")
	exec := func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
		if unit.Key == failKey {
			return nil, boom
		}
		return okExecutor(ctx, unit)
	}

	outcomes := pool.Run(context.Background(), units, exec)
	require.Len(t, outcomes, len(units))

	failed, succeeded := 0, 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
			assert.Equal(t, failKey, o.Unit.Key)
			assert.True(t, errors.Is(o.Err, boom))
		} else {
			succeeded++
			require.NotEmpty(t, o.Results)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, len(units)-1, succeeded)
}

func TestPoolPanicRecovery(t *testing.T) {
	pool := NewPool(2, testLogger())
	units := makeUnits(10)

	panicKey := units[3].Key
	exec := func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
		if unit.Key == panicKey {
			panic("adapter exploded")
		}
		return okExecutor(ctx, unit)
	}

	// 패닉이 풀을 죽이지 않아야 한다
	outcomes := pool.Run(context.Background(), units, exec)
	require.Len(t, outcomes, len(units))

	var panicked int
	for _, o := range outcomes {
		if o.Failed() {
			panicked++
			assert.Contains(t, o.Err.Error(), "panic in work unit")
		}
	}
	assert.Equal(t, 1, panicked)
}

func TestPoolBoundedConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(workers, testLogger())
	units := makeUnits(30)

	var current, peak int64
	exec := func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return okExecutor(ctx, unit)
	}

	pool.Run(context.Background(), units, exec)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(workers))
}

func TestPoolDefaultsToNumCPU(t *testing.T) {
	pool := NewPool(0, testLogger())
	assert.Greater(t, pool.Workers(), 0)
}

func TestPoolProgressCallback(t *testing.T) {
	pool := NewPool(4, testLogger())
	units := makeUnits(20)

	var calls int64
	var lastDone int64
	pool.OnProgress = func(done, total int) {
		atomic.AddInt64(&calls, 1)
		atomic.StoreInt64(&lastDone, int64(done))
		assert.Equal(t, len(units), total)
	}

	pool.Run(context.Background(), units, okExecutor)
	assert.Equal(t, int64(len(units)), calls)
	assert.Equal(t, int64(len(units)), lastDone)
}

func TestPoolEmptyUnits(t *testing.T) {
	pool := NewPool(4, testLogger())
	outcomes := pool.Run(context.Background(), nil, okExecutor)
	assert.Nil(t, outcomes)
}

func TestPoolContextCancellation(t *testing.T) {
	pool := NewPool(1, testLogger())
	units := makeUnits(10)

	ctx, cancel := context.WithCancel(context.Background())
	var executed int64
	exec := func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
		if atomic.AddInt64(&executed, 1) == 1 {
			cancel()
		}
		return okExecutor(ctx, unit)
	}

	outcomes := pool.Run(ctx, units, exec)
	require.Len(t, outcomes, len(units))

	// 취소 이후의 unit은 ctx.Err()로 실패해야 한다
	var cancelled int
	for _, o := range outcomes {
		if o.Failed() && errors.Is(o.Err, context.Canceled) {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0)
}
