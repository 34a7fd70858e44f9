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

// Package resolver implements the per-category resolution cache.
//
// A Resolver maps a selector key to the result of a caller supplied
// computation. Lookups of different selectors only contend on the brief lock
// of the underlying LRU; computations always run outside it, and concurrent
// misses on the same selector are coalesced so the computation runs once and
// every caller receives the identical value.
package resolver

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/cache/strategy"
	"dirpx.dev/rsx/config"
)

var (
	// ErrInvalidCapacity is returned for a capacity that is not positive.
	ErrInvalidCapacity = errors.New("rsx(resolver): capacity must be positive")
	// ErrUnsupportedStrategy is returned for strategies the cache cannot honor.
	ErrUnsupportedStrategy = errors.New("rsx(resolver): unsupported strategy")
	// ErrInvalidTTL is returned when the TTL strategy is selected without a
	// positive entry lifetime.
	ErrInvalidTTL = errors.New("rsx(resolver): ttl must be positive")
	// ErrNilSelector is returned by Resolve for a nil selector.
	ErrNilSelector = errors.New("rsx(resolver): nil selector")
	// ErrNilMatchFunc is returned by Resolve for a nil computation.
	ErrNilMatchFunc = errors.New("rsx(resolver): nil match func")
)

// Option configures a Resolver.
type Option func(*options)

type options struct {
	capacity int64
	strategy strategy.Strategy
	ttl      time.Duration
	logger   logr.Logger
}

// WithCapacity bounds the number of cached entries.
// Defaults to config.DefaultResolutionCacheSize.
func WithCapacity(n int64) Option {
	return func(o *options) { o.capacity = n }
}

// WithStrategy selects the retention policy. Defaults to strategy.LRU.
func WithStrategy(s strategy.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithTTL sets the entry lifetime used by strategy.TTL.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// entry boxes a value so that all callers sharing it observe the same one.
type entry[T any] struct {
	value   T
	expires time.Time // zero unless the TTL strategy is in use
}

// Stats is a snapshot of the counters of one Resolver.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Shared    uint64
	Evictions uint64
	Errors    uint64
}

// Resolver is the resolution cache of one provider category.
// It is safe for concurrent use.
type Resolver[T any] struct {
	category apis.Category
	label    string
	strategy strategy.Strategy
	capacity int64
	ttl      time.Duration
	logger   logr.Logger
	tracked  uint64

	store store[*entry[T]]

	// mu orders insertions against Invalidate and Close so that a
	// computation started before either never repopulates the cache.
	mu     sync.Mutex
	gen    uint64
	closed bool
	group  atomic.Pointer[singleflight.Group]

	hits, misses, shared, evictions, errs atomic.Uint64
}

// Ensure Resolver implements apis.Resolver.
var _ apis.Resolver[any] = (*Resolver[any])(nil)

// New creates the Resolver of category c.
func New[T any](c apis.Category, opts ...Option) (*Resolver[T], error) {
	o := options{
		capacity: config.DefaultResolutionCacheSize,
		strategy: strategy.LRU,
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, o.capacity)
	}
	if o.strategy == strategy.TTL && o.ttl <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTTL, o.ttl)
	}
	s, err := newStore[*entry[T]](o.strategy, o.capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, o.strategy)
	}

	r := &Resolver[T]{
		category: c,
		label:    c.String(),
		strategy: o.strategy,
		capacity: o.capacity,
		logger:   o.logger.WithValues("category", c.String()),
		store:    s,
	}
	if o.strategy == strategy.TTL {
		r.ttl = o.ttl
	}
	r.group.Store(new(singleflight.Group))
	r.tracked = track(r)
	return r, nil
}

// Category returns the provider category served by r.
func (r *Resolver[T]) Category() apis.Category { return r.category }

// Strategy returns the retention policy of r.
func (r *Resolver[T]) Strategy() strategy.Strategy { return r.strategy }

// Capacity returns the entry bound of r.
func (r *Resolver[T]) Capacity() int64 { return r.capacity }

// Resolve returns the cached result for sel, computing it with fn on a miss.
//
// While a computation for a selector is in flight, other callers resolving a
// structurally equal selector wait for it and receive the same value. Errors
// returned by fn reach every waiting caller and are not cached; a later call
// retries. A panic in fn propagates to every waiting caller.
func (r *Resolver[T]) Resolve(sel apis.Selector, fn apis.MatchFunc[T]) (T, error) {
	var zero T
	if sel == nil {
		return zero, ErrNilSelector
	}
	if fn == nil {
		return zero, ErrNilMatchFunc
	}

	key := sel.Key()
	if e, ok := r.lookup(key, true); ok {
		r.hits.Add(1)
		CacheHitCounterTotal.WithLabelValues(r.label).Inc()
		return e.value, nil
	}
	r.misses.Add(1)
	CacheMissCounterTotal.WithLabelValues(r.label).Inc()

	v, err, shared := r.group.Load().Do(key, func() (any, error) {
		return r.compute(key, sel, fn)
	})
	if shared {
		r.shared.Add(1)
		CacheShareCounterTotal.WithLabelValues(r.label).Inc()
	}
	if err != nil {
		return zero, err
	}
	return v.(*entry[T]).value, nil
}

func (r *Resolver[T]) compute(key string, sel apis.Selector, fn apis.MatchFunc[T]) (*entry[T], error) {
	// A flight that finished between our miss and Do may already have
	// stored the entry.
	if e, ok := r.lookup(key, false); ok {
		return e, nil
	}

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	start := time.Now()
	value, err := fn(sel)
	ComputeDurationHistogram.WithLabelValues(r.label).Observe(time.Since(start).Seconds())
	if err != nil {
		r.errs.Add(1)
		ComputeErrorCounterTotal.WithLabelValues(r.label).Inc()
		r.logger.V(1).Info("resolution failed", "selector", sel.String(), "error", err.Error())
		return nil, err
	}

	e := &entry[T]{value: value}
	if r.ttl > 0 {
		e.expires = time.Now().Add(r.ttl)
	}
	r.mu.Lock()
	if gen == r.gen && !r.closed {
		if r.store.Add(key, e) {
			r.evictions.Add(1)
			CacheEvictionCounterTotal.WithLabelValues(r.label).Inc()
		}
	}
	r.mu.Unlock()

	r.logger.V(1).Info("resolved", "selector", sel.String(), "duration", time.Since(start))
	return e, nil
}

// Contains reports whether a result for sel is cached. Recency is not updated.
func (r *Resolver[T]) Contains(sel apis.Selector) bool {
	if sel == nil {
		return false
	}
	_, ok := r.lookup(sel.Key(), false)
	return ok
}

// Len returns the number of cached entries. Expired entries are dropped
// first and not counted.
func (r *Resolver[T]) Len() int {
	if r.ttl > 0 {
		for _, key := range r.store.Keys() {
			r.lookup(key, false)
		}
	}
	return r.store.Len()
}

// lookup returns the live entry under key. Get updates recency, Peek does
// not. An expired entry is removed and reported as absent.
func (r *Resolver[T]) lookup(key string, touch bool) (*entry[T], bool) {
	var (
		e  *entry[T]
		ok bool
	)
	if touch {
		e, ok = r.store.Get(key)
	} else {
		e, ok = r.store.Peek(key)
	}
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && !time.Now().Before(e.expires) {
		r.mu.Lock()
		// Leave a fresh entry stored by a concurrent computation alone.
		if cur, ok := r.store.Peek(key); ok && cur == e {
			r.store.Remove(key)
		}
		r.mu.Unlock()
		return nil, false
	}
	return e, true
}

// Invalidate drops every cached entry. Computations in flight complete for
// their current callers but their results are not stored.
func (r *Resolver[T]) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.group.Store(new(singleflight.Group))
	r.store.Purge()
	r.mu.Unlock()
	r.logger.V(1).Info("invalidated")
}

// Close drops every cached entry and stops r from caching. Resolve keeps
// working after Close but computes on every call. Close is idempotent.
func (r *Resolver[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.gen++
	r.store.Purge()
	r.mu.Unlock()
	CacheEntries.forget(r.tracked)
	r.logger.V(1).Info("closed")
}

// Stats returns a snapshot of the counters of r.
func (r *Resolver[T]) Stats() Stats {
	return Stats{
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Shared:    r.shared.Load(),
		Evictions: r.evictions.Load(),
		Errors:    r.errs.Load(),
	}
}
