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

package registry_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/registry"
)

type Region struct{ Name string }
type Tier int
type Labels struct{ Values []string }

func TestRegisterAndLookup(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(reflect.TypeOf(Region{}), "region"))
	require.NoError(t, reg.Register(reflect.TypeOf(Tier(0)), ""))

	name, ok := reg.Lookup(reflect.TypeOf(Region{}))
	assert.True(t, ok)
	assert.Equal(t, "region", name)

	// Pointer kinds resolve to the same entry.
	name, ok = reg.Lookup(reflect.TypeOf(&Region{}))
	assert.True(t, ok)
	assert.Equal(t, "region", name)

	name, ok = reg.Lookup(reflect.TypeOf(Tier(0)))
	assert.True(t, ok)
	assert.Equal(t, "registry_test.Tier", name)

	_, ok = reg.Lookup(reflect.TypeOf(""))
	assert.False(t, ok)
	_, ok = reg.Lookup(nil)
	assert.False(t, ok)

	assert.Equal(t, 2, reg.Count())
}

func TestRegister_Errors(t *testing.T) {
	reg := registry.New()

	assert.ErrorIs(t, reg.Register(nil, "x"), registry.ErrNilType)
	assert.ErrorIs(t, reg.Register(reflect.TypeOf(Labels{}), "labels"), registry.ErrNotComparable)

	require.NoError(t, reg.Register(reflect.TypeOf(Region{}), "region"))
	require.NoError(t, reg.Register(reflect.TypeOf(Region{}), "region"), "idempotent")
	assert.ErrorIs(t, reg.Register(reflect.TypeOf(Region{}), "zone"), registry.ErrConflictingRegistration)
	assert.Equal(t, 1, reg.Count())
}

func TestEntriesAndReset(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(reflect.TypeOf(Region{}), "region"))
	require.NoError(t, reg.Register(apis.NamedKind, "named"))

	snap := reg.Entries()
	reg.Reset()

	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.Entries())
	require.Len(t, snap, 2)
	names := []string{snap[0].Name, snap[1].Name}
	assert.ElementsMatch(t, []string{"region", "named"}, names)
}

// This ensures the interface is satisfied; not a test but a compile-time check.
var _ apis.Registry = registry.New()
