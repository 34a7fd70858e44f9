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

package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Pool is a bounded worker pool.
//
// Workers are started lazily, one per submission, until the pool reaches its
// size; further tasks queue up in submission order. With a positive
// keep-alive a worker that stays idle that long exits, and a later
// submission starts a new one.
type Pool struct {
	typ       PoolType
	size      int
	keepAlive time.Duration
	logger    logr.Logger
	debug     bool

	mu      sync.Mutex
	pending []func()
	workers int
	idle    int
	closed  bool

	// wake hands queued work to idle workers; spurious tokens are harmless.
	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}
}

// Ensure Pool implements Executor.
var _ Executor = (*Pool)(nil)

// NewPool creates a pool of at most size workers. A keepAlive of zero keeps
// idle workers forever.
func NewPool(typ PoolType, size int, keepAlive time.Duration, logger logr.Logger, debug bool) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
	}
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Pool{
		typ:       typ,
		size:      size,
		keepAlive: keepAlive,
		logger:    logger,
		debug:     debug,
		wake:      make(chan struct{}, size),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Type returns the pool type.
func (p *Pool) Type() PoolType { return p.typ }

// Size returns the maximum number of workers.
func (p *Pool) Size() int { return p.size }

// Workers returns the number of live workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Submit queues fn. A panic in fn is logged and does not kill the worker.
func (p *Pool) Submit(fn func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrShutdown
	}
	p.pending = append(p.pending, fn)
	QueueSizeGauge.Inc()
	switch {
	case p.idle > 0:
		select {
		case p.wake <- struct{}{}:
		default:
		}
	case p.workers < p.size:
		p.workers++
		WorkersGauge.Inc()
		p.wg.Add(1)
		go p.worker()
	}
	p.mu.Unlock()
	return nil
}

// InvokeAll submits every task and waits for all of them.
func (p *Pool) InvokeAll(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			res := make(chan error, 1)
			err := p.Submit(func() {
				if err := gctx.Err(); err != nil {
					res <- err
					return
				}
				res <- call(gctx, task)
			})
			if err != nil {
				return err
			}
			return <-res
		})
	}
	return g.Wait()
}

// Shutdown stops accepting tasks, lets the workers drain the queue and waits
// for them to exit or for ctx to be done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
		go func() {
			p.wg.Wait()
			close(p.done)
		}()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.pending) == 0 {
			if p.closed {
				p.exit()
				return
			}
			p.idle++
			p.mu.Unlock()
			woken := p.wait()
			p.mu.Lock()
			p.idle--
			if !woken && len(p.pending) == 0 {
				p.logger.V(1).Info("idle worker exiting", "keepAlive", p.keepAlive)
				p.exit()
				return
			}
		}
		fn := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		p.mu.Unlock()

		QueueSizeGauge.Dec()
		InProgressGauge.Inc()
		p.execute(fn)
		InProgressGauge.Dec()
	}
}

// exit must be called with p.mu held; it releases it.
func (p *Pool) exit() {
	p.workers--
	WorkersGauge.Dec()
	p.mu.Unlock()
}

// wait blocks until work may be available. It returns false when the
// keep-alive time elapsed first.
func (p *Pool) wait() bool {
	if p.keepAlive <= 0 {
		select {
		case <-p.wake:
		case <-p.quit:
		}
		return true
	}
	t := time.NewTimer(p.keepAlive)
	defer t.Stop()
	select {
	case <-p.wake:
		return true
	case <-p.quit:
		return true
	case <-t.C:
		return false
	}
}

func (p *Pool) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("%w: %v", ErrTaskPanicked, r), "task failed")
		}
	}()
	run(p.logger, p.debug, fn)
}
