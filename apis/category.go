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
	"fmt"
	"strings"
)

// Category identifies an independent resolution domain. Each category owns
// its own resolution cache, so cache pressure in one category cannot evict
// entries needed by another.
//
// Category values are plain integers and safe to share across goroutines.
// The textual forms returned by String are stable and may be persisted.
type Category int

const (
	// Beans resolves injectable providers.
	Beans Category = iota
	// Decorators resolves decorators applicable to a bean type.
	Decorators
	// Disposers resolves disposer methods for produced values.
	Disposers
	// Interceptors resolves interceptors bound to a selector.
	Interceptors
	// Observers resolves observer methods for an event type.
	Observers
)

// Categories returns every known category in declaration order.
func Categories() []Category {
	return []Category{Beans, Decorators, Disposers, Interceptors, Observers}
}

// String returns the stable lower-case token of c, or "unknown(<n>)" for
// out-of-range values. It never panics.
func (c Category) String() string {
	switch c {
	case Beans:
		return "beans"
	case Decorators:
		return "decorators"
	case Disposers:
		return "disposers"
	case Interceptors:
		return "interceptors"
	case Observers:
		return "observers"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseCategory parses the token produced by String. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Beans, fmt.Errorf("rsx(apis): empty category")
	}
	for _, c := range Categories() {
		if strings.EqualFold(trimmed, c.String()) {
			return c, nil
		}
	}
	return Beans, fmt.Errorf("rsx(apis): unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler. Unknown values are rejected
// rather than serialized in their diagnostic form.
func (c Category) MarshalText() ([]byte, error) {
	if c < Beans || c > Observers {
		return nil, fmt.Errorf("rsx(apis): cannot marshal unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure c is left
// unchanged.
func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
