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

package strategy

import (
	"reflect"

	"dirpx.dev/rsx/apis"
)

// Chain constructs an apis.QualifierLegality that tries the given strategies
// in order; the first strategy that handles a kind decides. Kinds no strategy
// handles are illegal. Nil strategies are ignored. The returned value is safe
// for concurrent use provided strategies themselves are.
func Chain(strategies ...apis.Strategy) apis.QualifierLegality {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]apis.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return chain{strats: out}
}

// Default returns the standard legality chain: marked kinds first, then
// kinds declared in reg (reg may be nil).
func Default(reg apis.Registry) apis.QualifierLegality {
	return Chain(NewMarkerStrategy(), NewRegistryStrategy(reg))
}

// chain is an immutable, order-preserving legality check over a set of strategies.
type chain struct {
	strats []apis.Strategy
}

// IsLegalQualifierKind runs strategies in order until one handles kind.
func (c chain) IsLegalQualifierKind(kind reflect.Type) bool {
	if kind == nil {
		return false
	}
	for _, s := range c.strats {
		if legal, ok := s.TryKind(kind); ok {
			return legal
		}
	}
	return false
}
