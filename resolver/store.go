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
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/rsx/cache/strategy"
)

// store is the retention layer behind a Resolver. Expiry for strategy.TTL
// is applied lazily by the Resolver on top of an lru.Cache, so no store
// owns a background goroutine.
type store[V any] interface {
	Get(key string) (V, bool)
	Peek(key string) (V, bool)
	Contains(key string) bool
	Add(key string, value V) (evicted bool)
	Remove(key string) bool
	Keys() []string
	Len() int
	Purge()
}

var (
	_ store[int] = (*lru.Cache[string, int])(nil)
	_ store[int] = noStore[int]{}
)

func newStore[V any](s strategy.Strategy, capacity int64) (store[V], error) {
	size := int(min(capacity, math.MaxInt32))
	switch s {
	case strategy.LRU, strategy.TTL:
		return lru.New[string, V](size)
	case strategy.None:
		return noStore[V]{}, nil
	default:
		return nil, ErrUnsupportedStrategy
	}
}

// noStore retains nothing.
type noStore[V any] struct{}

func (noStore[V]) Get(string) (v V, ok bool)  { return v, false }
func (noStore[V]) Peek(string) (v V, ok bool) { return v, false }
func (noStore[V]) Contains(string) bool       { return false }
func (noStore[V]) Add(string, V) bool         { return false }
func (noStore[V]) Remove(string) bool         { return false }
func (noStore[V]) Keys() []string             { return nil }
func (noStore[V]) Len() int                   { return 0 }
func (noStore[V]) Purge()                     {}
