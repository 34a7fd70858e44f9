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

// NewDenyStrategy creates an apis.Strategy that rejects the given kinds.
// Placed first in a chain, it vetoes kinds other strategies would accept.
func NewDenyStrategy(kinds ...reflect.Type) apis.Strategy {
	s := &denyStrategy{kinds: make(map[reflect.Type]struct{}, len(kinds))}
	for _, k := range kinds {
		if k != nil {
			s.kinds[k] = struct{}{}
		}
	}
	return s
}

// denyStrategy is immutable after construction.
type denyStrategy struct {
	kinds map[reflect.Type]struct{}
}

// Ensure denyStrategy implements apis.Strategy.
var _ apis.Strategy = (*denyStrategy)(nil)

// TryKind reports (false, true) for denied kinds and falls through otherwise.
func (s *denyStrategy) TryKind(kind reflect.Type) (bool, bool) {
	if _, ok := s.kinds[kind]; ok {
		return false, true
	}
	return false, false
}
