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

// Package strategy enumerates the retention policies of a resolution cache.
package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is returned for tokens and values that name no Strategy.
var ErrUnknownStrategy = errors.New("rsx(cache): unknown strategy")

// Strategy selects how a resolution cache retains its entries.
//
// Strategy only picks a class of behavior. Capacity and entry lifetime are
// configured separately (rsx.resolution.cacheSize, rsx.resolution.cacheTTL).
// Values are plain integers and safe to share between goroutines.
type Strategy int

const (
	// LRU evicts the least recently used entry once the capacity is reached.
	// Both hits and insertions count as a use.
	LRU Strategy = iota

	// LFU evicts the least frequently used entry. It is part of the
	// vocabulary so configurations naming it parse, but resolution caches
	// reject it.
	LFU

	// TTL expires entries a fixed time after insertion, in addition to the
	// LRU capacity bound. Expired entries are never returned.
	TTL

	// None retains nothing. Concurrent resolutions of the same selector are
	// still coalesced.
	None
)

// String returns "LRU", "LFU", "TTL" or "None", and "Unknown(n)" for values
// outside the enumeration.
func (s Strategy) String() string {
	switch s {
	case LRU:
		return "LRU"
	case LFU:
		return "LFU"
	case TTL:
		return "TTL"
	case None:
		return "None"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined values.
func (s Strategy) Valid() bool {
	return s >= LRU && s <= None
}

// Parse converts a case-insensitive token into a Strategy. Surrounding
// whitespace is ignored. On failure it returns None and an error wrapping
// ErrUnknownStrategy.
func Parse(text string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "LRU":
		return LRU, nil
	case "LFU":
		return LFU, nil
	case "TTL":
		return TTL, nil
	case "NONE":
		return None, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownStrategy, text)
	}
}

// MustParse is like Parse but panics on invalid input. Meant for constants.
func MustParse(text string) Strategy {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler. Unknown values are refused
// rather than persisted in their diagnostic form.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The receiver is left
// untouched on error.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
