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

import (
	"reflect"
)

// Strategy is a pluggable step of a qualifier legality check. A chain can
// combine multiple strategies in order (e.g., Deny -> Marker -> Registry).
type Strategy interface {
	// TryKind decides whether kind is a legal qualifier kind.
	// It returns (legal, true) if handled; otherwise (false, false) to fall through.
	TryKind(kind reflect.Type) (legal bool, handled bool)
}
