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

package executor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/executor"
)

func newConfig(t *testing.T, opts ...config.Option) config.Configuration {
	t.Helper()
	cfg, err := config.New(opts...)
	require.NoError(t, err)
	return cfg
}

func TestParsePoolType(t *testing.T) {
	tests := []struct {
		input string
		want  executor.PoolType
	}{
		{"", executor.Fixed},
		{"fixed", executor.Fixed},
		{"FIXED_TIMEOUT", executor.FixedTimeout},
		{" none ", executor.NoPool},
		{"Single_Thread", executor.SingleThread},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := executor.ParsePoolType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := executor.ParsePoolType("cached")
	require.ErrorIs(t, err, executor.ErrUnknownPoolType)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []config.Option
		want    executor.PoolType
		workers int
	}{
		{
			name: "defaults to a fixed pool",
			want: executor.Fixed,
		},
		{
			name: "sequential deployment",
			opts: []config.Option{config.WithBool(config.ConcurrentDeployment, false)},
			want: executor.NoPool,
		},
		{
			name: "no pool",
			opts: []config.Option{config.WithString(config.ExecutorThreadPoolType, "NONE")},
			want: executor.NoPool,
		},
		{
			name: "single thread",
			opts: []config.Option{config.WithString(config.ExecutorThreadPoolType, "single_thread")},
			want: executor.SingleThread,
		},
		{
			name: "fixed timeout",
			opts: []config.Option{config.WithString(config.ExecutorThreadPoolType, "FIXED_TIMEOUT")},
			want: executor.FixedTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := executor.New(newConfig(t, tt.opts...), logr.Discard())
			require.NoError(t, err)
			t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
			assert.Equal(t, tt.want, e.Type())
			assert.Equal(t, 0, e.Workers())
		})
	}
}

func TestNew_SingleThreadHasOneWorker(t *testing.T) {
	e, err := executor.New(newConfig(t,
		config.WithString(config.ExecutorThreadPoolType, "SINGLE_THREAD"),
		config.WithInt32(config.ExecutorThreadPoolSize, 8),
	), logr.Discard())
	require.NoError(t, err)
	pool, ok := e.(*executor.Pool)
	require.True(t, ok)
	assert.Equal(t, 1, pool.Size())
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestNew_Errors(t *testing.T) {
	_, err := executor.New(newConfig(t, config.WithString(config.ExecutorThreadPoolType, "CACHED")), logr.Discard())
	require.ErrorIs(t, err, executor.ErrUnknownPoolType)

	_, err = executor.New(newConfig(t, config.WithInt32(config.ExecutorThreadPoolSize, 0)), logr.Discard())
	require.ErrorIs(t, err, executor.ErrInvalidPoolSize)
}

func TestPool_InvokeAll(t *testing.T) {
	pool, err := executor.NewPool(executor.Fixed, 4, 0, logr.Discard(), true)
	require.NoError(t, err)
	defer func() { require.NoError(t, pool.Shutdown(context.Background())) }()

	var n atomic.Int32
	tasks := make([]executor.Task, 100)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n.Add(1)
			return nil
		}
	}
	require.NoError(t, pool.InvokeAll(context.Background(), tasks...))
	assert.Equal(t, int32(100), n.Load())
	assert.LessOrEqual(t, pool.Workers(), 4)
}

func TestPool_InvokeAllFirstErrorCancelsOthers(t *testing.T) {
	pool, err := executor.NewPool(executor.Fixed, 4, 0, logr.Discard(), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, pool.Shutdown(context.Background())) }()

	boom := errors.New("boom")
	err = pool.InvokeAll(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(context.Context) error { return boom },
	)
	require.ErrorIs(t, err, boom)
}

func TestPool_InvokeAllRecoversPanics(t *testing.T) {
	pool, err := executor.NewPool(executor.Fixed, 2, 0, logr.Discard(), false)
	require.NoError(t, err)
	defer func() { require.NoError(t, pool.Shutdown(context.Background())) }()

	err = pool.InvokeAll(context.Background(), func(context.Context) error { panic("bad task") })
	require.ErrorIs(t, err, executor.ErrTaskPanicked)

	// The worker survived.
	require.NoError(t, pool.InvokeAll(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool, err := executor.NewPool(executor.SingleThread, 1, 0, logr.Discard(), false)
		require.NoError(t, err)

		release := make(chan struct{})
		var ran atomic.Int32
		require.NoError(t, pool.Submit(func() { <-release }))
		for range 5 {
			require.NoError(t, pool.Submit(func() { ran.Add(1) }))
		}

		go func() {
			time.Sleep(time.Second)
			close(release)
		}()
		require.NoError(t, pool.Shutdown(context.Background()))
		assert.Equal(t, int32(5), ran.Load())
		assert.Equal(t, 0, pool.Workers())

		require.ErrorIs(t, pool.Submit(func() {}), executor.ErrShutdown)
		require.ErrorIs(t, pool.InvokeAll(context.Background(), func(context.Context) error { return nil }), executor.ErrShutdown)
	})
}

func TestPool_ShutdownHonorsContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool, err := executor.NewPool(executor.Fixed, 1, 0, logr.Discard(), false)
		require.NoError(t, err)

		release := make(chan struct{})
		require.NoError(t, pool.Submit(func() { <-release }))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)

		close(release)
		require.NoError(t, pool.Shutdown(context.Background()))
	})
}

func TestPool_KeepAlive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool, err := executor.NewPool(executor.FixedTimeout, 2, time.Minute, logr.Discard(), false)
		require.NoError(t, err)

		require.NoError(t, pool.Submit(func() {}))
		synctest.Wait()
		assert.Equal(t, 1, pool.Workers())

		time.Sleep(30 * time.Second)
		synctest.Wait()
		assert.Equal(t, 1, pool.Workers())

		time.Sleep(31 * time.Second)
		synctest.Wait()
		assert.Equal(t, 0, pool.Workers())

		require.NoError(t, pool.Submit(func() {}))
		synctest.Wait()
		assert.Equal(t, 1, pool.Workers())
		require.NoError(t, pool.Shutdown(context.Background()))
	})
}

func TestPool_FixedKeepsIdleWorkers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		pool, err := executor.NewPool(executor.Fixed, 2, 0, logr.Discard(), false)
		require.NoError(t, err)

		require.NoError(t, pool.Submit(func() {}))
		time.Sleep(time.Hour)
		synctest.Wait()
		assert.Equal(t, 1, pool.Workers())

		require.NoError(t, pool.Shutdown(context.Background()))
		assert.Equal(t, 0, pool.Workers())
	})
}

func TestNewPool_InvalidSize(t *testing.T) {
	_, err := executor.NewPool(executor.Fixed, 0, 0, logr.Discard(), false)
	require.ErrorIs(t, err, executor.ErrInvalidPoolSize)
}

func TestDirect(t *testing.T) {
	e, err := executor.New(newConfig(t, config.WithBool(config.ConcurrentDeployment, false)), logr.Discard())
	require.NoError(t, err)

	var ran bool
	require.NoError(t, e.Submit(func() { ran = true }))
	assert.True(t, ran)

	boom := errors.New("boom")
	var order []int
	err = e.InvokeAll(context.Background(),
		func(context.Context) error { order = append(order, 1); return nil },
		func(context.Context) error { order = append(order, 2); return boom },
		func(context.Context) error { order = append(order, 3); return nil },
	)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, order)

	err = e.InvokeAll(context.Background(), func(context.Context) error { panic("bad") })
	require.ErrorIs(t, err, executor.ErrTaskPanicked)

	require.NoError(t, e.Shutdown(context.Background()))
	require.ErrorIs(t, e.Submit(func() {}), executor.ErrShutdown)
}
