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
	uref "dirpx.dev/rsx/utils/reflect"
)

// NewReflectOracle creates an apis.TypeOracle backed by package reflect.
// Raw types are computed by stripping at most maxUnwrap pointer levels
// (utils/reflect.DefaultMaxUnwrap when maxUnwrap <= 0).
func NewReflectOracle(maxUnwrap int) apis.TypeOracle {
	if maxUnwrap <= 0 {
		maxUnwrap = uref.DefaultMaxUnwrap
	}
	return reflectOracle{maxUnwrap: maxUnwrap}
}

// reflectOracle is stateless and safe for concurrent use.
type reflectOracle struct {
	maxUnwrap int
}

// Ensure reflectOracle implements apis.TypeOracle.
var _ apis.TypeOracle = reflectOracle{}

// RawType returns t without pointer indirections.
func (o reflectOracle) RawType(t reflect.Type) (reflect.Type, bool) {
	raw, err := uref.RawType(t, o.maxUnwrap)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// IsAssignableFrom reports whether candidate is one of types, or some member
// of types is assignable to candidate (e.g. a concrete type to an interface
// it implements).
func (reflectOracle) IsAssignableFrom(candidate reflect.Type, types []reflect.Type) bool {
	if candidate == nil {
		return false
	}
	for _, t := range types {
		if t == nil {
			continue
		}
		if t == candidate || t.AssignableTo(candidate) {
			return true
		}
	}
	return false
}
