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

package config

import (
	"errors"
	"fmt"
)

// OriginDefault is the origin reported for values that were not overridden.
const OriginDefault = "default"

// Configuration is an immutable snapshot of every key's value. It is passed
// by value and safe for concurrent reads.
type Configuration struct {
	values  *[numKeys]any
	origins *[numKeys]string
}

// Default returns a Configuration holding every key's default value.
func Default() Configuration {
	var values [numKeys]any
	var origins [numKeys]string
	for k := range numKeys {
		values[k] = definitions[k].def
		origins[k] = OriginDefault
	}
	return Configuration{values: &values, origins: &origins}
}

// Get returns the value of k, or nil for undeclared keys.
func (c Configuration) Get(k Key) any {
	if !k.Valid() {
		return nil
	}
	if c.values == nil {
		return definitions[k].def
	}
	return c.values[k]
}

// Bool returns the value of a bool key; false for keys of another type.
func (c Configuration) Bool(k Key) bool {
	v, _ := c.Get(k).(bool)
	return v
}

// Int32 returns the value of an int32 key; 0 for keys of another type.
func (c Configuration) Int32(k Key) int32 {
	v, _ := c.Get(k).(int32)
	return v
}

// Int64 returns the value of an int64 key; 0 for keys of another type.
func (c Configuration) Int64(k Key) int64 {
	v, _ := c.Get(k).(int64)
	return v
}

// String returns the value of a string key; "" for keys of another type.
func (c Configuration) String(k Key) string {
	v, _ := c.Get(k).(string)
	return v
}

// Origin returns the name of the source that supplied k's value.
func (c Configuration) Origin(k Key) string {
	if !k.Valid() {
		return ""
	}
	if c.origins == nil {
		return OriginDefault
	}
	return c.origins[k]
}

// Value is a single key with its effective value and origin.
type Value struct {
	Key    Key
	Value  any
	Origin string
}

// Entries returns every key's effective value in declaration order.
func (c Configuration) Entries() []Value {
	out := make([]Value, 0, numKeys)
	for k := range numKeys {
		out = append(out, Value{Key: k, Value: c.Get(k), Origin: c.Origin(k)})
	}
	return out
}

// with returns a copy of c with k set to v.
func (c Configuration) with(k Key, v any, origin string) Configuration {
	base := c
	if base.values == nil {
		base = Default()
	}
	values := *base.values
	origins := *base.origins
	values[k] = v
	origins[k] = origin
	return Configuration{values: &values, origins: &origins}
}

// Option is a functional option applied by New.
type Option func(Configuration) (Configuration, error)

// New constructs a Configuration from the defaults and the given options.
// Options are applied in order; the last one setting a key wins.
func New(opts ...Option) (Configuration, error) {
	cfg := Default()
	for _, opt := range opts {
		next, err := opt(cfg)
		if err != nil {
			return Configuration{}, err
		}
		cfg = next
	}
	return cfg, nil
}

// WithValue sets k to v. v must be a valid value for k.
func WithValue(k Key, v any) Option {
	return func(c Configuration) (Configuration, error) {
		if !k.Valid() {
			return c, fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
		}
		if !k.IsValidValue(v) {
			return c, fmt.Errorf("%w: %T for %s, expected %s", ErrInvalidValue, v, k.ID(), k.Type())
		}
		return c.with(k, v, "option"), nil
	}
}

// WithBool sets a bool key.
func WithBool(k Key, v bool) Option { return WithValue(k, v) }

// WithInt32 sets an int32 key.
func WithInt32(k Key, v int32) Option { return WithValue(k, v) }

// WithInt64 sets an int64 key.
func WithInt64(k Key, v int64) Option { return WithValue(k, v) }

// WithString sets a string key.
func WithString(k Key, v string) Option { return WithValue(k, v) }

// WithText converts text with k.Convert and sets k.
func WithText(k Key, text string) Option {
	return func(c Configuration) (Configuration, error) {
		v, err := k.Convert(text)
		if err != nil {
			return c, err
		}
		return c.with(k, v, "option"), nil
	}
}

// WithSources overlays values found in sources, see Load.
func WithSources(sources ...Source) Option {
	return func(c Configuration) (Configuration, error) {
		return overlay(c, sources)
	}
}

// Load builds a Configuration from the defaults overridden by sources.
// For each key the first source holding its identifier wins. Identifiers
// unknown to the registry are ignored. A malformed value aborts the load
// with a *ConversionError naming the key.
func Load(sources ...Source) (Configuration, error) {
	return overlay(Default(), sources)
}

func overlay(c Configuration, sources []Source) (Configuration, error) {
	for k := range numKeys {
		for _, src := range sources {
			if src == nil {
				continue
			}
			text, ok := src.Lookup(definitions[k].id)
			if !ok {
				continue
			}
			v, err := k.Convert(text)
			if err != nil {
				var ce *ConversionError
				if errors.As(err, &ce) {
					ce.Source = src.Name()
				}
				return Configuration{}, err
			}
			c = c.with(k, v, src.Name())
			break
		}
	}
	return c, nil
}
