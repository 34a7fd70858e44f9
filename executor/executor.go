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

// Package executor provides the executor services used to run resolution
// work in parallel.
//
// The service is chosen from the configuration: a direct executor running
// tasks on the calling goroutine when concurrent deployment is disabled or
// the pool type is NONE, and a bounded worker pool otherwise.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"dirpx.dev/rsx/config"
)

var (
	// ErrShutdown is returned for tasks submitted after Shutdown.
	ErrShutdown = errors.New("rsx(executor): executor is shut down")
	// ErrUnknownPoolType is returned for unrecognized pool type tokens.
	ErrUnknownPoolType = errors.New("rsx(executor): unknown pool type")
	// ErrInvalidPoolSize is returned for a pool size that is not positive.
	ErrInvalidPoolSize = errors.New("rsx(executor): pool size must be positive")
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("rsx(executor): task panicked")
)

// PoolType names an executor flavor.
type PoolType string

const (
	// Fixed is a pool with a fixed number of long-lived workers.
	Fixed PoolType = "FIXED"
	// FixedTimeout is a fixed pool whose idle workers exit after the keep-alive time.
	FixedTimeout PoolType = "FIXED_TIMEOUT"
	// NoPool runs every task on the calling goroutine.
	NoPool PoolType = "NONE"
	// SingleThread is a pool with exactly one worker.
	SingleThread PoolType = "SINGLE_THREAD"
)

// PoolTypes returns every pool type.
func PoolTypes() []PoolType {
	return []PoolType{Fixed, FixedTimeout, NoPool, SingleThread}
}

// ParsePoolType parses a case-insensitive token. The empty string selects Fixed.
func ParsePoolType(s string) (PoolType, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return Fixed, nil
	}
	for _, p := range PoolTypes() {
		if string(p) == t {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPoolType, s)
}

// Task is a unit of work run by InvokeAll.
type Task func(ctx context.Context) error

// Executor runs tasks.
type Executor interface {
	// Type returns the pool type of the executor.
	Type() PoolType
	// Submit schedules fn. It fails with ErrShutdown after Shutdown.
	Submit(fn func()) error
	// InvokeAll runs every task and waits for them. It returns the first
	// error; once a task fails the context seen by the remaining tasks is
	// canceled and tasks that have not started yet are skipped.
	InvokeAll(ctx context.Context, tasks ...Task) error
	// Workers returns the number of live worker goroutines.
	Workers() int
	// Shutdown stops accepting tasks and waits until queued ones have run
	// or ctx is done. Running tasks are never interrupted.
	Shutdown(ctx context.Context) error
}

// New creates the executor described by cfg.
func New(cfg config.Configuration, logger logr.Logger) (Executor, error) {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	typ, err := ParsePoolType(cfg.String(config.ExecutorThreadPoolType))
	if err != nil {
		return nil, err
	}
	debug := cfg.Bool(config.ExecutorThreadPoolDebug)
	logger = logger.WithValues("poolType", string(typ))

	if !cfg.Bool(config.ConcurrentDeployment) || typ == NoPool {
		return &direct{logger: logger, debug: debug}, nil
	}

	size := int(cfg.Int32(config.ExecutorThreadPoolSize))
	var keepAlive time.Duration
	switch typ {
	case SingleThread:
		size = 1
	case FixedTimeout:
		keepAlive = time.Duration(cfg.Int64(config.ExecutorThreadPoolKeepAliveTime)) * time.Second
	}
	return NewPool(typ, size, keepAlive, logger, debug)
}

// direct runs tasks on the calling goroutine.
type direct struct {
	logger logr.Logger
	debug  bool
	closed atomic.Bool
}

func (d *direct) Type() PoolType { return NoPool }

func (d *direct) Workers() int { return 0 }

func (d *direct) Submit(fn func()) error {
	if d.closed.Load() {
		return ErrShutdown
	}
	run(d.logger, d.debug, fn)
	return nil
}

func (d *direct) InvokeAll(ctx context.Context, tasks ...Task) error {
	if d.closed.Load() {
		return ErrShutdown
	}
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		run(d.logger, d.debug, func() { err = call(ctx, task) })
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *direct) Shutdown(context.Context) error {
	d.closed.Store(true)
	return nil
}

// call runs task, turning a panic into an error.
func call(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task(ctx)
}

// run executes fn, logging it when debug is set.
func run(logger logr.Logger, debug bool, fn func()) {
	if !debug {
		fn()
		return
	}
	start := time.Now()
	logger.Info("task started")
	fn()
	logger.Info("task finished", "duration", time.Since(start))
}
