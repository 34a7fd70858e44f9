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

package reflect

import (
	"errors"
	"reflect"
)

// DefaultMaxUnwrap bounds pointer unwrapping when no explicit limit is given.
// A value of 8 should be sufficient for all practical purposes.
const DefaultMaxUnwrap = 8

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectUnwrapLimit indicates that the pointer chain of a type is
	// deeper than the unwrap limit (e.g. a self-referential "type P *P").
	ErrReflectUnwrapLimit = errors.New("reflect: pointer unwrap limit exceeded")
)

// RawType strips pointer indirections from t and returns the underlying
// non-pointer type.
//
// Unwrapping policy:
//   - ptr -> Elem(), at most maxUnwrap times;
//   - anything else is returned as is (slices, maps and other composites
//     are raw types in their own right).
//
// If maxUnwrap <= 0, DefaultMaxUnwrap is used.
func RawType(t reflect.Type, maxUnwrap int) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	if maxUnwrap <= 0 {
		maxUnwrap = DefaultMaxUnwrap
	}
	for range maxUnwrap {
		if t.Kind() != reflect.Pointer {
			return t, nil
		}
		t = t.Elem()
	}
	if t.Kind() == reflect.Pointer {
		return nil, ErrReflectUnwrapLimit
	}
	return t, nil
}
