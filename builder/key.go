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

package builder

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// typeIDs assigns a process-wide stable id to every type that took part
	// in a selector key. A program has a finite set of types, so the table
	// stays bounded; qualifier values are never stored here.
	typeIDs    sync.Map // key: reflect.Type, val: uint64
	nextTypeID atomic.Uint64
)

// typeID returns the id of t, assigning one on first sight.
func typeID(t reflect.Type) uint64 {
	if id, ok := typeIDs.Load(t); ok {
		return id.(uint64)
	}
	id, _ := typeIDs.LoadOrStore(t, nextTypeID.Add(1))
	return id.(uint64)
}

// selectorKey renders the structural identity of a (types, qualifiers) pair.
// Insertion order does not matter: both halves are sorted.
func selectorKey(types []reflect.Type, qualifiers []any) string {
	tids := make([]uint64, 0, len(types))
	for _, t := range types {
		tids = append(tids, typeID(t))
	}
	slices.Sort(tids)

	qs := make([]string, 0, len(qualifiers))
	for _, q := range qualifiers {
		var b strings.Builder
		encodeValue(&b, reflect.ValueOf(q))
		qs = append(qs, b.String())
	}
	slices.Sort(qs)

	var b strings.Builder
	b.WriteString("t")
	for _, id := range tids {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(id, 36))
	}
	b.WriteString("|q")
	for _, q := range qs {
		b.WriteByte(':')
		b.WriteString(strconv.Quote(q))
	}
	return b.String()
}

// encodeValue writes a canonical text form of a comparable value: two
// values produce the same text exactly when they are ==. Methods of the
// value are never called. Pointers and channels encode their address and
// so compare by identity, like ==.
func encodeValue(b *strings.Builder, v reflect.Value) {
	b.WriteString(strconv.FormatUint(typeID(v.Type()), 36))
	b.WriteByte('(')
	switch v.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		writeFloat(b, v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		writeFloat(b, real(c))
		b.WriteByte(',')
		writeFloat(b, imag(c))
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		b.WriteString(strconv.FormatUint(uint64(v.Pointer()), 16))
	case reflect.Interface:
		if v.IsNil() {
			b.WriteString("nil")
		} else {
			encodeValue(b, v.Elem())
		}
	case reflect.Array:
		for i := range v.Len() {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeValue(b, v.Index(i))
		}
	case reflect.Struct:
		for i := range v.NumField() {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeValue(b, v.Field(i))
		}
	}
	b.WriteByte(')')
}

// writeFloat folds -0 into 0, which == treats as equal.
func writeFloat(b *strings.Builder, f float64) {
	if f == 0 {
		f = 0
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
