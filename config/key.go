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
	"reflect"
	"runtime"
	"strconv"
)

// Key is a configuration option. The set of keys is closed: every Key is
// declared below and described by an entry of the definitions table.
type Key int

const (
	// ConcurrentDeployment enables parallel resolution work on an executor.
	ConcurrentDeployment Key = iota
	// PreloaderThreadPoolSize is the number of workers used to preload types.
	PreloaderThreadPoolSize
	// NonPortableMode relaxes some container validations.
	NonPortableMode
	// ExecutorThreadPoolSize is the number of executor workers.
	ExecutorThreadPoolSize
	// ExecutorThreadPoolDebug enables per-task executor logging.
	ExecutorThreadPoolDebug
	// ExecutorThreadPoolType selects the executor kind (see executor.PoolType).
	ExecutorThreadPoolType
	// ExecutorThreadPoolKeepAliveTime is the idle timeout, in seconds, of
	// FIXED_TIMEOUT executor workers.
	ExecutorThreadPoolKeepAliveTime
	// ResolutionCacheSize bounds the number of entries of each resolution cache.
	ResolutionCacheSize
	// ResolutionCacheStrategy selects the eviction policy of resolution caches.
	ResolutionCacheStrategy
	// ResolutionCacheTTL is the entry lifetime, in seconds, used by the TTL policy.
	ResolutionCacheTTL
	// ProxyDump names a directory where generated proxies are dumped.
	ProxyDump
	// ProxyUnsafe allows proxy instantiation without running constructors.
	ProxyUnsafe
	// DisableXMLValidation turns off descriptor validation.
	DisableXMLValidation
	// InjectableReferenceOptimization enables a non-standard reference shortcut.
	// It can violate alterable-context semantics and must default to false.
	InjectableReferenceOptimization
	// ProbeInvocationMonitorExcludeType is a pattern of types excluded from
	// invocation monitoring.
	ProbeInvocationMonitorExcludeType
	// ProbeInvocationMonitorSkipAccessors skips accessor methods during
	// invocation monitoring.
	ProbeInvocationMonitorSkipAccessors

	numKeys
)

const (
	// DefaultResolutionCacheSize is the default bound of a resolution cache.
	DefaultResolutionCacheSize int64 = 0x100000
	// DefaultKeepAliveTime is the default executor keep-alive time in seconds.
	DefaultKeepAliveTime int64 = 60
	// DefaultResolutionCacheStrategy is the default eviction policy token.
	DefaultResolutionCacheStrategy = "LRU"
)

// ValueType is the type of a configuration value.
type ValueType int

const (
	// TypeString is a text value.
	TypeString ValueType = iota
	// TypeBool is a boolean value.
	TypeBool
	// TypeInt32 is a 32-bit signed integer value.
	TypeInt32
	// TypeInt64 is a 64-bit signed integer value.
	TypeInt64
)

// String returns the Go name of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

var (
	// ErrUnsupportedType is raised when a key is defined with a default value
	// of an unsupported type.
	ErrUnsupportedType = errors.New("rsx(config): unsupported value type")
	// ErrInvalidValue is returned when a value does not match a key's type.
	ErrInvalidValue = errors.New("rsx(config): invalid value")
	// ErrUnknownKey is returned for identifiers that name no key.
	ErrUnknownKey = errors.New("rsx(config): unknown key")
)

// ConversionError reports a textual value that does not parse as its key's type.
type ConversionError struct {
	// Key is the offending key.
	Key Key
	// Value is the rejected text.
	Value string
	// Source names where the text came from, if known.
	Source string
	// Err is the underlying parse error.
	Err error
}

// Error implements error.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("rsx(config): invalid value %q for %s: expected %s", e.Value, e.Key.ID(), e.Key.Type())
	if e.Source != "" {
		msg += " (from " + e.Source + ")"
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrInvalidValue) hold.
func (e *ConversionError) Unwrap() []error {
	return []error{ErrInvalidValue, e.Err}
}

// definition describes a key.
type definition struct {
	id  string
	def any
	typ ValueType
}

// definitions is indexed by Key. It is built during package initialization;
// define panics on an unsupported default so a bad table never ships.
var definitions = [numKeys]definition{
	ConcurrentDeployment:                define("rsx.bootstrap.concurrentDeployment", true),
	PreloaderThreadPoolSize:             define("rsx.bootstrap.preloaderThreadPoolSize", int32(max(1, runtime.NumCPU()-1))),
	NonPortableMode:                     define("rsx.nonPortableMode", false),
	ExecutorThreadPoolSize:              define("rsx.executor.threadPoolSize", int32(runtime.NumCPU())),
	ExecutorThreadPoolDebug:             define("rsx.executor.threadPoolDebug", false),
	ExecutorThreadPoolType:              define("rsx.executor.threadPoolType", ""),
	ExecutorThreadPoolKeepAliveTime:     define("rsx.executor.threadPoolKeepAliveTime", DefaultKeepAliveTime),
	ResolutionCacheSize:                 define("rsx.resolution.cacheSize", DefaultResolutionCacheSize),
	ResolutionCacheStrategy:             define("rsx.resolution.cacheStrategy", DefaultResolutionCacheStrategy),
	ResolutionCacheTTL:                  define("rsx.resolution.cacheTTL", int64(0)),
	ProxyDump:                           define("rsx.proxy.dump", ""),
	ProxyUnsafe:                         define("rsx.proxy.unsafe", false),
	DisableXMLValidation:                define("rsx.xml.disableValidating", false),
	InjectableReferenceOptimization:     define("rsx.injection.injectableReferenceOptimization", false),
	ProbeInvocationMonitorExcludeType:   define("rsx.probe.invocationMonitor.excludeType", ""),
	ProbeInvocationMonitorSkipAccessors: define("rsx.probe.invocationMonitor.skipAccessors", true),
}

// byID maps identifiers back to keys.
var byID = func() map[string]Key {
	m := make(map[string]Key, numKeys)
	for k := range numKeys {
		if _, dup := m[definitions[k].id]; dup {
			panic(fmt.Sprintf("rsx(config): duplicate key identifier %q", definitions[k].id))
		}
		m[definitions[k].id] = k
	}
	return m
}()

func define(id string, def any) definition {
	typ, err := valueTypeOf(def)
	if err != nil {
		panic(fmt.Errorf("%w: %T for %s", err, def, id))
	}
	return definition{id: id, def: def, typ: typ}
}

func valueTypeOf(v any) (ValueType, error) {
	switch v.(type) {
	case string:
		return TypeString, nil
	case bool:
		return TypeBool, nil
	case int32:
		return TypeInt32, nil
	case int64:
		return TypeInt64, nil
	default:
		return 0, ErrUnsupportedType
	}
}

// Keys returns every key in declaration order.
func Keys() []Key {
	out := make([]Key, 0, numKeys)
	for k := range numKeys {
		out = append(out, k)
	}
	return out
}

// Lookup returns the key with the given identifier.
func Lookup(id string) (Key, bool) {
	k, ok := byID[id]
	return k, ok
}

// Valid reports whether k is a declared key.
func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}

// ID returns the string identifier of k.
func (k Key) ID() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return definitions[k].id
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.ID() }

// Default returns the default value of k, or nil for undeclared keys.
func (k Key) Default() any {
	if !k.Valid() {
		return nil
	}
	return definitions[k].def
}

// Type returns the value type of k.
func (k Key) Type() ValueType {
	if !k.Valid() {
		return TypeString
	}
	return definitions[k].typ
}

// IsValidValueType reports whether values of type t can be stored under k,
// i.e. t is assignable to the type of k's default.
func (k Key) IsValidValueType(t reflect.Type) bool {
	if t == nil || !k.Valid() {
		return false
	}
	return t.AssignableTo(reflect.TypeOf(definitions[k].def))
}

// IsValidValue reports whether v can be stored under k.
func (k Key) IsValidValue(v any) bool {
	return k.IsValidValueType(reflect.TypeOf(v))
}

// Convert parses text into a value of k's type. Text keys pass through unchanged.
func (k Key) Convert(text string) (any, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
	}
	switch k.Type() {
	case TypeBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, &ConversionError{Key: k, Value: text, Err: err}
		}
		return v, nil
	case TypeInt64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &ConversionError{Key: k, Value: text, Err: err}
		}
		return v, nil
	case TypeInt32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, &ConversionError{Key: k, Value: text, Err: err}
		}
		return int32(v), nil
	default:
		return text, nil
	}
}
