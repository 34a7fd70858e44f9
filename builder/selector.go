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

package builder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"dirpx.dev/rsx/apis"
	uref "dirpx.dev/rsx/utils/reflect"
)

// selector is the immutable apis.Selector produced by Builder.Build. It owns
// private copies of every collection handed to it.
type selector struct {
	oracle     apis.TypeOracle
	rawType    reflect.Type
	types      []reflect.Type
	qualifiers []apis.Qualifier
	byKind     map[reflect.Type]apis.Qualifier
	declaring  any
	key        string
}

// Ensure selector implements apis.Selector.
var _ apis.Selector = (*selector)(nil)

func (s *selector) RawType() reflect.Type { return s.rawType }

func (s *selector) Types() []reflect.Type { return slices.Clone(s.types) }

func (s *selector) Qualifiers() []apis.Qualifier { return slices.Clone(s.qualifiers) }

func (s *selector) HasQualifierKind(kind reflect.Type) bool {
	_, ok := s.byKind[kind]
	return ok
}

func (s *selector) Qualifier(kind reflect.Type) (apis.Qualifier, bool) {
	q, ok := s.byKind[kind]
	return q, ok
}

func (s *selector) IsAssignableTo(t reflect.Type) bool {
	return s.oracle.IsAssignableFrom(t, s.types)
}

func (s *selector) DeclaringContext() any { return s.declaring }

func (s *selector) Key() string { return s.key }

func (s *selector) String() string {
	types := make([]string, len(s.types))
	for i, t := range s.types {
		types[i] = uref.TypeName(t)
	}
	qualifiers := make([]string, len(s.qualifiers))
	for i, q := range s.qualifiers {
		qualifiers[i] = fmt.Sprint(q)
	}
	return "types=[" + strings.Join(types, ", ") + "] qualifiers=[" + strings.Join(qualifiers, ", ") + "]"
}
