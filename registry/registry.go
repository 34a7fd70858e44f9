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

package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"dirpx.dev/rsx/apis"
	uref "dirpx.dev/rsx/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("rsx(registry): nil reflect.Type provided")
	// ErrNotComparable is returned for kinds whose values cannot be compared,
	// which makes them unusable as qualifiers.
	ErrNotComparable = errors.New("rsx(registry): qualifier kind is not comparable")
	// ErrConflictingRegistration indicates an attempt to re-register
	// a kind with a different name.
	ErrConflictingRegistration = errors.New("rsx(registry): conflicting qualifier registration")
)

// New constructs an empty qualifier-kind Registry. Kinds are keyed by their
// raw (pointer-stripped) type, so registering Named also covers *Named.
func New() apis.Registry {
	return &registry{}
}

// registry is a Registry implementation backed by sync.Map.
type registry struct {
	// mu guards write-side consistency and counter
	mu sync.Mutex
	// m maps a raw qualifier kind to its display name.
	m sync.Map // map[reflect.Type]string
	// count tracks the number of registered kinds.
	count int
}

// Register declares kind as a qualifier kind. An empty name defaults to the
// kind's display name. It is idempotent for the same (kind,name) pair.
func (r *registry) Register(kind reflect.Type, name string) error {
	if kind == nil {
		return ErrNilType
	}
	raw, err := uref.RawType(kind, 0)
	if err != nil {
		return err
	}
	if !raw.Comparable() {
		return fmt.Errorf("%w: %s", ErrNotComparable, uref.TypeName(raw))
	}
	if name == "" {
		name = uref.TypeName(raw)
	}

	// Fast read path: idempotency / conflict check without locking.
	if old, ok := r.m.Load(raw); ok {
		return conflict(raw, old.(string), name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.m.Load(raw); ok {
		return conflict(raw, old.(string), name)
	}

	r.m.Store(raw, name)
	r.count++
	return nil
}

func conflict(kind reflect.Type, old, name string) error {
	if old == name {
		return nil
	}
	return fmt.Errorf("%w: %s registered as %q, not %q", ErrConflictingRegistration, uref.TypeName(kind), old, name)
}

// Lookup returns the display name of kind if it is registered.
func (r *registry) Lookup(kind reflect.Type) (string, bool) {
	raw, err := uref.RawType(kind, 0)
	if err != nil {
		return "", false
	}
	if v, ok := r.m.Load(raw); ok {
		return v.(string), true
	}
	return "", false
}

// Entries returns a snapshot for diagnostics/docs (order is unspecified).
func (r *registry) Entries() []apis.Entry {
	entries := make([]apis.Entry, 0, r.Count())
	r.m.Range(func(key, value any) bool {
		entries = append(entries, apis.Entry{
			Type: key.(reflect.Type),
			Name: value.(string),
		})
		return true
	})
	return entries
}

// Count returns the number of registered kinds.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all registered kinds.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Clear()
	r.count = 0
}
