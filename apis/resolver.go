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

package apis

// MatchFunc computes the resolved provider set for a selector on a cache miss.
// From the resolver's point of view it is a pure function of its input.
type MatchFunc[T any] func(sel Selector) (T, error)

// Resolver is a resolution cache for one provider category.
// Implementations must be safe for concurrent use.
type Resolver[T any] interface {
	// Category returns the provider category served by this resolver.
	Category() Category
	// Resolve returns the cached result for sel, computing it with fn on a miss.
	// fn runs at most once per selector among concurrent callers. Errors
	// returned by fn are propagated and never cached.
	Resolve(sel Selector, fn MatchFunc[T]) (T, error)
	// Contains reports whether a result for sel is cached, without touching
	// its recency.
	Contains(sel Selector) bool
	// Len returns the number of cached entries.
	Len() int
	// Invalidate drops every cached entry.
	Invalidate()
}
