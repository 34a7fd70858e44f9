/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package resolver_test

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/builder"
	"dirpx.dev/rsx/cache/strategy"
	"dirpx.dev/rsx/resolver"
)

type service struct{}

type result struct {
	name string
}

func selector(t *testing.T, name string) apis.Selector {
	t.Helper()
	sel, err := builder.New(nil, nil).
		SetType(reflect.TypeOf(service{})).
		AddQualifier(apis.Named{Value: name}).
		Build()
	require.NoError(t, err)
	return sel
}

func counting(calls *atomic.Int32) apis.MatchFunc[*result] {
	return func(sel apis.Selector) (*result, error) {
		calls.Add(1)
		return &result{name: sel.String()}, nil
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := resolver.New[int](apis.Beans, resolver.WithCapacity(0))
	require.ErrorIs(t, err, resolver.ErrInvalidCapacity)

	_, err = resolver.New[int](apis.Beans, resolver.WithCapacity(-1))
	require.ErrorIs(t, err, resolver.ErrInvalidCapacity)

	_, err = resolver.New[int](apis.Beans, resolver.WithStrategy(strategy.LFU))
	require.ErrorIs(t, err, resolver.ErrUnsupportedStrategy)

	_, err = resolver.New[int](apis.Beans, resolver.WithStrategy(strategy.Strategy(42)))
	require.ErrorIs(t, err, resolver.ErrUnsupportedStrategy)

	_, err = resolver.New[int](apis.Beans, resolver.WithStrategy(strategy.TTL))
	require.ErrorIs(t, err, resolver.ErrInvalidTTL)

	r, err := resolver.New[int](apis.Observers)
	require.NoError(t, err)
	assert.Equal(t, apis.Observers, r.Category())
	assert.Equal(t, strategy.LRU, r.Strategy())
	assert.Equal(t, int64(0x100000), r.Capacity())
}

func TestResolve_CachesResult(t *testing.T) {
	r, err := resolver.New[*result](apis.Beans)
	require.NoError(t, err)

	var calls atomic.Int32
	sel := selector(t, "a")

	first, err := r.Resolve(sel, counting(&calls))
	require.NoError(t, err)
	second, err := r.Resolve(selector(t, "a"), counting(&calls))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, r.Contains(sel))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, resolver.Stats{Hits: 1, Misses: 1}, r.Stats())
}

func TestResolve_NilArguments(t *testing.T) {
	r, err := resolver.New[int](apis.Beans)
	require.NoError(t, err)

	_, err = r.Resolve(nil, func(apis.Selector) (int, error) { return 1, nil })
	require.ErrorIs(t, err, resolver.ErrNilSelector)

	_, err = r.Resolve(selector(t, "a"), nil)
	require.ErrorIs(t, err, resolver.ErrNilMatchFunc)
	assert.False(t, r.Contains(nil))
}

func TestResolve_SingleFlight(t *testing.T) {
	const callers = 16

	r, err := resolver.New[*result](apis.Decorators)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(sel apis.Selector) (*result, error) {
		calls.Add(1)
		<-release
		return &result{name: sel.String()}, nil
	}

	results := make([]*result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Resolve(selector(t, "shared"), fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool {
		return r.Stats().Misses == callers
	}, 5*time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestResolve_ErrorsAreNotCached(t *testing.T) {
	r, err := resolver.New[string](apis.Interceptors)
	require.NoError(t, err)

	boom := errors.New("boom")
	var calls int
	fn := func(apis.Selector) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}

	sel := selector(t, "a")
	_, err = r.Resolve(sel, fn)
	require.ErrorIs(t, err, boom)
	assert.False(t, r.Contains(sel))

	v, err := r.Resolve(sel, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint64(1), r.Stats().Errors)
}

func TestResolve_EvictsLeastRecentlyUsed(t *testing.T) {
	r, err := resolver.New[*result](apis.Beans, resolver.WithCapacity(10))
	require.NoError(t, err)

	var calls atomic.Int32
	for i := range 11 {
		_, err := r.Resolve(selector(t, fmt.Sprint(i)), counting(&calls))
		require.NoError(t, err)
	}

	assert.Equal(t, 10, r.Len())
	assert.False(t, r.Contains(selector(t, "0")))
	assert.True(t, r.Contains(selector(t, "10")))
	assert.Equal(t, uint64(1), r.Stats().Evictions)
}

func TestResolve_TouchedEntryIsRetained(t *testing.T) {
	r, err := resolver.New[*result](apis.Beans, resolver.WithCapacity(10))
	require.NoError(t, err)

	var calls atomic.Int32
	for i := range 10 {
		_, err := r.Resolve(selector(t, fmt.Sprint(i)), counting(&calls))
		require.NoError(t, err)
	}
	_, err = r.Resolve(selector(t, "0"), counting(&calls))
	require.NoError(t, err)

	_, err = r.Resolve(selector(t, "10"), counting(&calls))
	require.NoError(t, err)

	assert.True(t, r.Contains(selector(t, "0")))
	assert.False(t, r.Contains(selector(t, "1")))
	assert.True(t, r.Contains(selector(t, "10")))
}

func TestContains_DoesNotTouchRecency(t *testing.T) {
	r, err := resolver.New[*result](apis.Beans, resolver.WithCapacity(2))
	require.NoError(t, err)

	var calls atomic.Int32
	for _, name := range []string{"a", "b"} {
		_, err := r.Resolve(selector(t, name), counting(&calls))
		require.NoError(t, err)
	}
	require.True(t, r.Contains(selector(t, "a")))

	_, err = r.Resolve(selector(t, "c"), counting(&calls))
	require.NoError(t, err)
	assert.False(t, r.Contains(selector(t, "a")))
	assert.True(t, r.Contains(selector(t, "b")))
}

func TestInvalidate(t *testing.T) {
	r, err := resolver.New[*result](apis.Disposers)
	require.NoError(t, err)

	var calls atomic.Int32
	sel := selector(t, "a")
	_, err = r.Resolve(sel, counting(&calls))
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	r.Invalidate()
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains(sel))

	_, err = r.Resolve(sel, counting(&calls))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidate_DuringComputation(t *testing.T) {
	r, err := resolver.New[string](apis.Beans)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	sel := selector(t, "a")

	go func() {
		v, _ := r.Resolve(sel, func(apis.Selector) (string, error) {
			close(entered)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-entered
	r.Invalidate()
	close(release)

	assert.Equal(t, "stale", <-done)
	assert.False(t, r.Contains(sel))
	assert.Equal(t, 0, r.Len())
}

func TestStrategyNone(t *testing.T) {
	r, err := resolver.New[*result](apis.Beans, resolver.WithStrategy(strategy.None))
	require.NoError(t, err)

	var calls atomic.Int32
	sel := selector(t, "a")
	for range 3 {
		_, err := r.Resolve(sel, counting(&calls))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains(sel))
}

func TestStrategyTTL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r, err := resolver.New[*result](apis.Beans,
			resolver.WithStrategy(strategy.TTL),
			resolver.WithTTL(time.Minute),
		)
		require.NoError(t, err)

		var calls atomic.Int32
		sel := selector(t, "a")
		first, err := r.Resolve(sel, counting(&calls))
		require.NoError(t, err)

		time.Sleep(30 * time.Second)
		again, err := r.Resolve(sel, counting(&calls))
		require.NoError(t, err)
		assert.Same(t, first, again)
		assert.True(t, r.Contains(sel))

		// Hits do not extend the lifetime.
		time.Sleep(31 * time.Second)
		assert.False(t, r.Contains(sel))
		assert.Equal(t, 0, r.Len())

		fresh, err := r.Resolve(sel, counting(&calls))
		require.NoError(t, err)
		assert.NotSame(t, first, fresh)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 1, r.Len())
	})
}

func TestStrategyTTL_LenSkipsExpired(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r, err := resolver.New[*result](apis.Beans,
			resolver.WithStrategy(strategy.TTL),
			resolver.WithTTL(time.Second),
		)
		require.NoError(t, err)

		var calls atomic.Int32
		for _, name := range []string{"a", "b"} {
			_, err := r.Resolve(selector(t, name), counting(&calls))
			require.NoError(t, err)
		}
		time.Sleep(500 * time.Millisecond)
		_, err = r.Resolve(selector(t, "c"), counting(&calls))
		require.NoError(t, err)
		assert.Equal(t, 3, r.Len())

		time.Sleep(600 * time.Millisecond)
		assert.Equal(t, 1, r.Len())
		assert.True(t, r.Contains(selector(t, "c")))
	})
}

func TestClose(t *testing.T) {
	r, err := resolver.New[*result](apis.Observers)
	require.NoError(t, err)

	var calls atomic.Int32
	sel := selector(t, "a")
	_, err = r.Resolve(sel, counting(&calls))
	require.NoError(t, err)

	r.Close()
	r.Close()
	assert.Equal(t, 0, r.Len())

	for range 2 {
		_, err := r.Resolve(sel, counting(&calls))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.False(t, r.Contains(sel))
}

func cacheEntries(t *testing.T, c apis.Category) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	resolver.CacheEntries.Collect(ch)
	close(ch)
	for m := range ch {
		var pb dto.Metric
		require.NoError(t, m.Write(&pb))
		for _, lp := range pb.GetLabel() {
			if lp.GetName() == resolver.CategoryLabel && lp.GetValue() == c.String() {
				return pb.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestCacheEntries(t *testing.T) {
	// Drop resolvers left unreachable by earlier tests.
	runtime.GC()
	base := cacheEntries(t, apis.Interceptors)

	r, err := resolver.New[*result](apis.Interceptors)
	require.NoError(t, err)
	other, err := resolver.New[*result](apis.Interceptors)
	require.NoError(t, err)

	var calls atomic.Int32
	for i := range 3 {
		_, err := r.Resolve(selector(t, fmt.Sprint(i)), counting(&calls))
		require.NoError(t, err)
	}
	_, err = other.Resolve(selector(t, "x"), counting(&calls))
	require.NoError(t, err)
	assert.InDelta(t, base+4, cacheEntries(t, apis.Interceptors), 0)

	r.Invalidate()
	assert.InDelta(t, base+1, cacheEntries(t, apis.Interceptors), 0)

	_, err = r.Resolve(selector(t, "y"), counting(&calls))
	require.NoError(t, err)
	assert.InDelta(t, base+2, cacheEntries(t, apis.Interceptors), 0)

	other.Close()
	assert.InDelta(t, base+1, cacheEntries(t, apis.Interceptors), 0)

	r.Close()
	assert.InDelta(t, base, cacheEntries(t, apis.Interceptors), 0)
}

func TestCacheEntries_FollowsExpiry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		runtime.GC()
		base := cacheEntries(t, apis.Disposers)

		r, err := resolver.New[*result](apis.Disposers,
			resolver.WithStrategy(strategy.TTL),
			resolver.WithTTL(time.Minute),
		)
		require.NoError(t, err)

		var calls atomic.Int32
		_, err = r.Resolve(selector(t, "a"), counting(&calls))
		require.NoError(t, err)
		assert.InDelta(t, base+1, cacheEntries(t, apis.Disposers), 0)

		time.Sleep(2 * time.Minute)
		assert.InDelta(t, base, cacheEntries(t, apis.Disposers), 0)
		runtime.KeepAlive(r)
	})
}
