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

import "reflect"

// Selector is an immutable description of what is being resolved: a raw
// type, its type closure and a qualifier set. It doubles as the cache key of
// a Resolver.
//
// Slices returned by a Selector are copies; mutating them has no effect on
// the Selector.
type Selector interface {
	// RawType returns the raw form of the primary type. Never nil.
	RawType() reflect.Type
	// Types returns the type closure. It always contains the primary type.
	Types() []reflect.Type
	// Qualifiers returns the qualifier set. Never empty.
	Qualifiers() []Qualifier
	// HasQualifierKind reports whether a qualifier of the given kind is present.
	HasQualifierKind(kind reflect.Type) bool
	// Qualifier returns the qualifier of the given kind, if present.
	Qualifier(kind reflect.Type) (Qualifier, bool)
	// IsAssignableTo reports whether t is present in, or compatible with
	// some member of, the type closure.
	IsAssignableTo(t reflect.Type) bool
	// DeclaringContext returns the entity owning this selector, or nil.
	// It does not participate in Key.
	DeclaringContext() any
	// Key returns the structural identity of the selector. Two selectors
	// with equal type closures and qualifier sets have equal keys.
	Key() string
	// String returns a human-readable form for diagnostics.
	String() string
}

// SelectorSource is something a Selector can be derived from, typically an
// injection point: a declared type, its qualifiers and its owning provider.
type SelectorSource interface {
	// Type returns the declared type.
	Type() reflect.Type
	// Qualifiers returns the declared qualifiers in declaration order.
	Qualifiers() []Qualifier
	// Owner returns the provider declaring the source, or nil.
	Owner() any
}
