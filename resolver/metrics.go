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

package resolver

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/rsx/metrics"
)

const (
	// CacheHitCounterLabel tracks how many lookups were served from the cache.
	CacheHitCounterLabel = "cache_hit"
	// CacheMissCounterLabel tracks how many lookups missed the cache.
	CacheMissCounterLabel = "cache_miss"
	// CacheShareCounterLabel tracks how many callers joined an in-flight computation.
	CacheShareCounterLabel = "cache_share"
	// CacheEvictionCounterLabel tracks how many entries were evicted by the capacity bound.
	CacheEvictionCounterLabel = "cache_eviction"
	// ComputeErrorCounterLabel tracks how many computations failed.
	ComputeErrorCounterLabel = "compute_error"
	// ComputeDurationHistogramLabel tracks how long computations took.
	ComputeDurationHistogramLabel = "compute_duration_seconds"
	// CacheEntriesLabel tracks the number of cached entries.
	CacheEntriesLabel = "cache_entries"
	// MetricsSubsystem groups the resolution metrics.
	MetricsSubsystem = "resolution"
	// CategoryLabel is the name of the label carrying the provider category.
	CategoryLabel = "category"
)

// CacheHitCounterTotal counts cache hits.
// [category].
var CacheHitCounterTotal = metrics.MustRegisterCounterVec(
	metrics.Namespace,
	MetricsSubsystem,
	CacheHitCounterLabel,
	"Number of times a resolution was served from the cache.",
	CategoryLabel,
)

// CacheMissCounterTotal counts cache misses.
// [category].
var CacheMissCounterTotal = metrics.MustRegisterCounterVec(
	metrics.Namespace,
	MetricsSubsystem,
	CacheMissCounterLabel,
	"Number of times a resolution missed the cache.",
	CategoryLabel,
)

// CacheShareCounterTotal counts callers that received the result of a
// computation started by another caller.
// [category].
var CacheShareCounterTotal = metrics.MustRegisterCounterVec(
	metrics.Namespace,
	MetricsSubsystem,
	CacheShareCounterLabel,
	"Number of times a resolution was shared through singleflight.",
	CategoryLabel,
)

// CacheEvictionCounterTotal counts capacity evictions.
// [category].
var CacheEvictionCounterTotal = metrics.MustRegisterCounterVec(
	metrics.Namespace,
	MetricsSubsystem,
	CacheEvictionCounterLabel,
	"Number of entries evicted to honor the cache capacity.",
	CategoryLabel,
)

// ComputeErrorCounterTotal counts failed computations.
// [category].
var ComputeErrorCounterTotal = metrics.MustRegisterCounterVec(
	metrics.Namespace,
	MetricsSubsystem,
	ComputeErrorCounterLabel,
	"Number of resolution computations that returned an error.",
	CategoryLabel,
)

// ComputeDurationHistogram tracks the duration of computations.
// [category].
var ComputeDurationHistogram = metrics.MustRegisterHistogramVec(
	metrics.Namespace,
	MetricsSubsystem,
	ComputeDurationHistogramLabel,
	"Duration of resolution computations in seconds.",
	[]float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
	CategoryLabel,
)

// CacheEntries reports the number of entries held by every live Resolver.
// The value is read from the caches at scrape time, summed per category, so
// it follows expiry and Close without bookkeeping on the hot path.
// [category].
var CacheEntries = metrics.MustRegister(newEntriesCollector())

type entriesCollector struct {
	desc *prometheus.Desc
	next atomic.Uint64
	live sync.Map // key: uint64, val: func() (label string, n int, ok bool)
}

func newEntriesCollector() *entriesCollector {
	return &entriesCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(metrics.Namespace, MetricsSubsystem, CacheEntriesLabel),
			"Number of entries held by the resolution cache.",
			[]string{CategoryLabel}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *entriesCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

// Collect implements prometheus.Collector.
func (c *entriesCollector) Collect(ch chan<- prometheus.Metric) {
	totals := make(map[string]int)
	c.live.Range(func(_, v any) bool {
		if label, n, ok := v.(func() (string, int, bool))(); ok {
			totals[label] += n
		}
		return true
	})
	for label, n := range totals {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), label)
	}
}

// track adds r to the collector until it is closed or garbage collected.
// Only a weak reference is held.
func track[T any](r *Resolver[T]) uint64 {
	id := CacheEntries.next.Add(1)
	wp := weak.Make(r)
	CacheEntries.live.Store(id, func() (string, int, bool) {
		r := wp.Value()
		if r == nil {
			return "", 0, false
		}
		return r.label, r.Len(), true
	})
	runtime.AddCleanup(r, CacheEntries.forget, id)
	return id
}

func (c *entriesCollector) forget(id uint64) { c.live.Delete(id) }
