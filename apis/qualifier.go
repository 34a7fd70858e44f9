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
	"reflect"
)

// Qualifier is a disambiguating tag attached to a Selector.
//
// Any comparable Go value can serve as a qualifier. Its kind is its dynamic
// type: a Selector carries at most one qualifier of a given kind. Whether a
// kind is a legal qualifier kind is decided by a QualifierLegality.
type Qualifier = any

// Marker is implemented by types that declare themselves qualifier kinds.
// It plays the role of a qualifier meta-annotation.
type Marker interface {
	// QualifierMarker is a no-op; its presence marks the kind.
	QualifierMarker()
}

// QualifierLegality decides whether a type is a validly declared qualifier kind.
type QualifierLegality interface {
	// IsLegalQualifierKind reports whether kind may be used as a qualifier kind.
	IsLegalQualifierKind(kind reflect.Type) bool
}

// QualifierLegalityFunc adapts a function to QualifierLegality.
type QualifierLegalityFunc func(kind reflect.Type) bool

// IsLegalQualifierKind calls f(kind).
func (f QualifierLegalityFunc) IsLegalQualifierKind(kind reflect.Type) bool {
	return f(kind)
}

// Default is the synthetic qualifier injected into a Selector that was built
// without any explicit qualifier.
type Default struct{}

// QualifierMarker marks Default as a qualifier kind.
func (Default) QualifierMarker() {}

// String implements fmt.Stringer.
func (Default) String() string { return "@Default" }

// Named is the built-in string-valued qualifier.
type Named struct {
	Value string
}

// QualifierMarker marks Named as a qualifier kind.
func (Named) QualifierMarker() {}

// String implements fmt.Stringer.
func (n Named) String() string { return fmt.Sprintf("@Named(%q)", n.Value) }

// KindOf returns the qualifier kind of q, or nil when q is nil.
func KindOf(q Qualifier) reflect.Type {
	return reflect.TypeOf(q)
}

var (
	// DefaultKind is the kind of the Default qualifier.
	DefaultKind = reflect.TypeOf(Default{})
	// NamedKind is the kind of the Named qualifier.
	NamedKind = reflect.TypeOf(Named{})
)
