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

// TypeOracle answers type-compatibility questions for selectors.
// Implementations must be safe for concurrent use.
type TypeOracle interface {
	// RawType returns the raw form of t, or (nil, false) if none can be
	// extracted from t.
	RawType(t reflect.Type) (reflect.Type, bool)

	// IsAssignableFrom reports whether candidate is present in types, or is
	// compatible with at least one member of types.
	IsAssignableFrom(candidate reflect.Type, types []reflect.Type) bool
}
