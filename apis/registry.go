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

// Registry is the metadata store for qualifier kinds: the set of kinds that
// were explicitly declared legal, each with a display name.
// Keep it minimal so implementations can be lock-free or sync.Map-backed.
type Registry interface {
	// Register declares kind as a qualifier kind with the given display name.
	// Implementations should be idempotent; conflicting re-registrations fail.
	Register(kind reflect.Type, name string) error
	// Lookup returns the display name of kind if it is registered.
	Lookup(kind reflect.Type) (name string, ok bool)
	// Entries returns a snapshot for diagnostics/docs (order is unspecified).
	Entries() []Entry
	// Count returns the number of registered kinds.
	Count() int
	// Reset clears all registered kinds.
	Reset()
}

// Entry is a single (kind, name) association in a Registry snapshot.
type Entry struct {
	// Type is the registered qualifier kind.
	Type reflect.Type
	// Name is the associated display name.
	Name string
}
