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

package strategy_test

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"dirpx.dev/rsx/strategy"
)

type Foo struct{}

func (Foo) String() string { return "foo" }

type Bar[T any] struct{ X T }

var (
	fooType      = reflect.TypeOf(Foo{})
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	readerType   = reflect.TypeOf((*io.Reader)(nil)).Elem()
)

func TestReflectOracle_RawType(t *testing.T) {
	o := strategy.NewReflectOracle(0)

	raw, ok := o.RawType(reflect.TypeOf(&Foo{}))
	assert.True(t, ok)
	assert.Equal(t, fooType, raw)

	raw, ok = o.RawType(reflect.TypeOf(Bar[int]{}))
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Bar[int]{}), raw)

	_, ok = o.RawType(nil)
	assert.False(t, ok)

	f := &Foo{}
	_, ok = strategy.NewReflectOracle(1).RawType(reflect.TypeOf(&f))
	assert.False(t, ok)
}

func TestReflectOracle_IsAssignableFrom(t *testing.T) {
	o := strategy.NewReflectOracle(0)
	closure := []reflect.Type{fooType, nil}

	assert.True(t, o.IsAssignableFrom(fooType, closure), "member")
	assert.True(t, o.IsAssignableFrom(stringerType, closure), "implemented interface")
	assert.True(t, o.IsAssignableFrom(reflect.TypeOf((*any)(nil)).Elem(), closure), "empty interface")
	assert.False(t, o.IsAssignableFrom(readerType, closure))
	assert.False(t, o.IsAssignableFrom(reflect.TypeOf(&Foo{}), closure))
	assert.False(t, o.IsAssignableFrom(nil, closure))
	assert.False(t, o.IsAssignableFrom(fooType, nil))
}

// TestReflectOracle_Concurrent verifies the oracle is race-free.
func TestReflectOracle_Concurrent(t *testing.T) {
	o := strategy.NewReflectOracle(0)
	closure := []reflect.Type{fooType, reflect.TypeOf(Bar[string]{})}

	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				if !o.IsAssignableFrom(stringerType, closure) {
					t.Error("expected Foo to satisfy fmt.Stringer")
					return
				}
				if _, ok := o.RawType(reflect.TypeOf(&Foo{})); !ok {
					t.Error("expected raw type")
					return
				}
			}
		}()
	}
	wg.Wait()
}
