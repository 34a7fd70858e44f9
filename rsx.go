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

package rsx

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/builder"
	"dirpx.dev/rsx/cache/strategy"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/executor"
	"dirpx.dev/rsx/registry"
	"dirpx.dev/rsx/resolver"
	qstrategy "dirpx.dev/rsx/strategy"
)

var (
	// ErrUnknownCategory is returned for categories the engine has no resolver for.
	ErrUnknownCategory = errors.New("rsx: unknown category")
	// ErrTypeMismatch is returned when a cached result does not have the
	// type requested by the caller.
	ErrTypeMismatch = errors.New("rsx: cached result has a different type")
	// ErrClosed is returned by SetConfig after Close.
	ErrClosed = errors.New("rsx: engine is closed")
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	cfg      *config.Configuration
	oracle   apis.TypeOracle
	legality apis.QualifierLegality
	registry apis.Registry
	logger   logr.Logger
}

// WithConfig sets the initial configuration. Defaults to config.Default().
func WithConfig(cfg config.Configuration) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithOracle sets the type oracle used by builders.
// Defaults to strategy.NewReflectOracle(0).
func WithOracle(oracle apis.TypeOracle) Option {
	return func(o *options) { o.oracle = oracle }
}

// WithLegality sets the qualifier legality check used by builders.
// Defaults to markers first, then the engine registry.
func WithLegality(legality apis.QualifierLegality) Option {
	return func(o *options) { o.legality = legality }
}

// WithRegistry sets the registry of qualifier kinds. Defaults to an empty one.
func WithRegistry(reg apis.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(logger logr.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// state is an immutable snapshot of the configuration-derived parts of an Engine.
type state struct {
	cfg       config.Configuration
	resolvers map[apis.Category]*resolver.Resolver[any]
	exec      executor.Executor
}

// Engine ties a configuration to the collaborators needed to build
// selectors, one resolution cache per provider category and an executor.
//
// Reads load the current snapshot atomically and never lock. SetConfig and
// Close serialize on an internal mutex, build a fresh snapshot and publish it.
type Engine struct {
	oracle   apis.TypeOracle
	legality apis.QualifierLegality
	registry apis.Registry
	logger   logr.Logger

	buildMu sync.Mutex
	closed  bool
	st      atomic.Pointer[state]
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the process-wide Engine built from config.Default().
func Default() *Engine {
	return defaultEngine()
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	o := options{logger: logr.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger.GetSink() == nil {
		o.logger = logr.Discard()
	}
	if o.registry == nil {
		o.registry = registry.New()
	}
	if o.oracle == nil {
		o.oracle = qstrategy.NewReflectOracle(0)
	}
	if o.legality == nil {
		o.legality = qstrategy.Default(o.registry)
	}
	cfg := config.Default()
	if o.cfg != nil {
		cfg = *o.cfg
	}

	e := &Engine{
		oracle:   o.oracle,
		legality: o.legality,
		registry: o.registry,
		logger:   o.logger.WithName("rsx"),
	}
	s, err := e.build(cfg)
	if err != nil {
		return nil, err
	}
	e.st.Store(s)
	return e, nil
}

// build derives a snapshot from cfg.
func (e *Engine) build(cfg config.Configuration) (*state, error) {
	policy, err := strategy.Parse(cfg.String(config.ResolutionCacheStrategy))
	if err != nil {
		return nil, fmt.Errorf("rsx: %s: %w", config.ResolutionCacheStrategy.ID(), err)
	}
	opts := []resolver.Option{
		resolver.WithCapacity(cfg.Int64(config.ResolutionCacheSize)),
		resolver.WithStrategy(policy),
		resolver.WithTTL(time.Duration(cfg.Int64(config.ResolutionCacheTTL)) * time.Second),
		resolver.WithLogger(e.logger.WithName("resolver")),
	}

	resolvers := make(map[apis.Category]*resolver.Resolver[any], len(apis.Categories()))
	for _, c := range apis.Categories() {
		r, err := resolver.New[any](c, opts...)
		if err != nil {
			closeResolvers(resolvers)
			return nil, fmt.Errorf("rsx: %s resolver: %w", c, err)
		}
		resolvers[c] = r
	}

	exec, err := executor.New(cfg, e.logger.WithName("executor"))
	if err != nil {
		closeResolvers(resolvers)
		return nil, err
	}

	e.logger.V(1).Info("engine configured",
		"cacheSize", cfg.Int64(config.ResolutionCacheSize),
		"cacheStrategy", policy.String(),
		"executor", string(exec.Type()),
	)
	return &state{cfg: cfg, resolvers: resolvers, exec: exec}, nil
}

func closeResolvers(rs map[apis.Category]*resolver.Resolver[any]) {
	for _, r := range rs {
		r.Close()
	}
}

// NewBuilder returns a selector builder wired to the engine's oracle and
// qualifier legality.
func (e *Engine) NewBuilder() *builder.Builder {
	return builder.New(e.oracle, e.legality)
}

// Config returns the current configuration.
func (e *Engine) Config() config.Configuration { return e.st.Load().cfg }

// Oracle returns the type oracle.
func (e *Engine) Oracle() apis.TypeOracle { return e.oracle }

// Legality returns the qualifier legality check.
func (e *Engine) Legality() apis.QualifierLegality { return e.legality }

// Registry returns the registry of qualifier kinds.
func (e *Engine) Registry() apis.Registry { return e.registry }

// RegisterQualifier declares kind as a qualifier kind under name.
// It only affects builders when the default legality is in use.
func (e *Engine) RegisterQualifier(kind reflect.Type, name string) error {
	return e.registry.Register(kind, name)
}

// Executor returns the current executor.
func (e *Engine) Executor() executor.Executor { return e.st.Load().exec }

// Resolver returns the resolution cache of c, or nil for an unknown category.
func (e *Engine) Resolver(c apis.Category) *resolver.Resolver[any] {
	return e.st.Load().resolvers[c]
}

// Invalidate clears the caches of the given categories, or of every
// category when none is given.
func (e *Engine) Invalidate(cs ...apis.Category) {
	s := e.st.Load()
	if len(cs) == 0 {
		cs = apis.Categories()
	}
	for _, c := range cs {
		if r, ok := s.resolvers[c]; ok {
			r.Invalidate()
		}
	}
}

// SetConfig rebuilds the caches and the executor from cfg and publishes
// them. On error the current snapshot stays in place. The previous caches
// are closed; callers still holding them compute without caching. The
// previous executor is shut down in the background once its queued tasks
// have run.
func (e *Engine) SetConfig(cfg config.Configuration) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if e.closed {
		return ErrClosed
	}

	s, err := e.build(cfg)
	if err != nil {
		return err
	}
	old := e.st.Swap(s)
	closeResolvers(old.resolvers)
	go func() {
		if err := old.exec.Shutdown(context.Background()); err != nil {
			e.logger.Error(err, "executor shutdown failed")
		}
	}()
	return nil
}

// Close shuts down the executor and waits for its queued tasks or for ctx.
// Caches stay readable.
func (e *Engine) Close(ctx context.Context) error {
	e.buildMu.Lock()
	e.closed = true
	s := e.st.Load()
	e.buildMu.Unlock()
	return s.exec.Shutdown(ctx)
}

// Resolve looks up sel in the cache of category c and computes it with fn
// on a miss. See resolver.Resolver.Resolve.
func Resolve[T any](e *Engine, c apis.Category, sel apis.Selector, fn apis.MatchFunc[T]) (T, error) {
	var zero T
	r := e.Resolver(c)
	if r == nil {
		return zero, fmt.Errorf("%w: %s", ErrUnknownCategory, c)
	}
	if fn == nil {
		return zero, resolver.ErrNilMatchFunc
	}
	v, err := r.Resolve(sel, func(sel apis.Selector) (any, error) {
		return fn(sel)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, v, sel)
	}
	return out, nil
}

// ResolveAll resolves every selector through the engine executor and
// returns the results in input order. The first failure is returned.
func ResolveAll[T any](ctx context.Context, e *Engine, c apis.Category, sels []apis.Selector, fn apis.MatchFunc[T]) ([]T, error) {
	out := make([]T, len(sels))
	tasks := make([]executor.Task, len(sels))
	for i, sel := range sels {
		tasks[i] = func(context.Context) error {
			v, err := Resolve(e, c, sel, fn)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		}
	}
	if err := e.Executor().InvokeAll(ctx, tasks...); err != nil {
		return nil, err
	}
	return out, nil
}
