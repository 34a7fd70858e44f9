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

// Package rsx resolves typesafe selectors against per-category caches.
//
// A selector describes what an injection point asks for: a primary type,
// the closure of types it is assignable to, and a set of qualifiers that
// disambiguate between candidates. Selectors are assembled with a
// builder.Builder and are immutable once built; two selectors built from
// the same types and qualifiers are equal regardless of insertion order,
// and their Key is the identity used by the caches.
//
// # Design
//
// An Engine owns a read-mostly snapshot (state) holding:
//
//   - Config: the typed configuration registry (package config). Values
//     come from defaults, options, environment variables and files.
//
//   - Resolvers: one bounded resolution cache per provider category
//     (beans, decorators, disposers, interceptors, observers). A miss
//     computes the result with a caller supplied apis.MatchFunc; concurrent
//     misses on the same selector share a single computation.
//
//   - Executor: the executor service used to resolve many selectors in
//     parallel (ResolveAll).
//
// Next to the snapshot the Engine keeps the collaborators handed to every
// builder: an apis.TypeOracle that computes raw types and assignability,
// and an apis.QualifierLegality that decides which Go types may serve as
// qualifiers. By default a type is a legal qualifier kind when it
// implements apis.Marker or was declared through RegisterQualifier.
//
// Readers load the snapshot atomically and never lock:
//
//	sel, err := eng.NewBuilder().
//		SetType(reflect.TypeOf((*Store)(nil)).Elem()).
//		AddQualifier(apis.Named{Value: "primary"}).
//		Build()
//	if err != nil {
//		return err
//	}
//	beans, err := rsx.Resolve(eng, apis.Beans, sel, match)
//
// SetConfig builds a complete new snapshot (fresh caches and executor) and
// publishes it with an atomic swap, so concurrent callers always see a
// consistent one.
//
// # Scope
//
// rsx does not discover beans or decide which candidates match a selector.
// It only guarantees that, per category, the matching computation runs at
// most once per distinct selector at a time and that its result is
// retained within the configured bound.
package rsx
