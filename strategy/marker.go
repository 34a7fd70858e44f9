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

// markerType is the reflect.Type of apis.Marker.
var markerType = reflect.TypeOf((*apis.Marker)(nil)).Elem()

// NewMarkerStrategy creates an apis.Strategy that accepts kinds implementing
// apis.Marker, either directly or through a pointer receiver.
func NewMarkerStrategy() apis.Strategy {
	return &markerStrategy{}
}

// markerStrategy is a zero-cost fast path: a kind that carries the marker
// method is a qualifier kind.
type markerStrategy struct{}

// Ensure markerStrategy implements apis.Strategy.
var _ apis.Strategy = (*markerStrategy)(nil)

// TryKind reports (true, true) for marked kinds and falls through otherwise.
func (*markerStrategy) TryKind(kind reflect.Type) (bool, bool) {
	if kind == nil {
		return false, false
	}
	if kind.Implements(markerType) {
		return true, true
	}
	if kind.Kind() != reflect.Pointer && reflect.PointerTo(kind).Implements(markerType) {
		return true, true
	}
	return false, false
}
