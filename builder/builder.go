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
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/strategy"
	uref "dirpx.dev/rsx/utils/reflect"
)

var (
	// ErrTypeAlreadySet is returned when the primary type is set twice.
	ErrTypeAlreadySet = errors.New("rsx(builder): cannot change type once set")
	// ErrNilType is returned when a nil primary type is provided.
	ErrNilType = errors.New("rsx(builder): type cannot be nil")
	// ErrCannotExtractRawType is returned when no raw type can be computed
	// from the primary type.
	ErrCannotExtractRawType = errors.New("rsx(builder): cannot extract raw type")
	// ErrInvalidQualifier is returned for qualifiers whose kind is not a
	// legal qualifier kind.
	ErrInvalidQualifier = errors.New("rsx(builder): invalid qualifier")
	// ErrDuplicateQualifiers is returned when a qualifier of an already
	// present kind is added.
	ErrDuplicateQualifiers = errors.New("rsx(builder): duplicate qualifiers")
	// ErrNoType is returned by Build when no primary type was set.
	ErrNoType = errors.New("rsx(builder): primary type not set")
)

// Builder assembles an apis.Selector.
//
// Every mutator returns the builder so calls can be chained. The first
// failing call records its error, which is then reported by Err and Build;
// after a failure all further mutators are no-ops, so the builder keeps the
// state it had just before the offending call. A Builder is not safe for
// concurrent use.
//
//	sel, err := builder.New(oracle, legality).
//		SetType(reflect.TypeOf((*Store)(nil)).Elem()).
//		AddQualifier(apis.Named{Value: "primary"}).
//		Build()
type Builder struct {
	oracle   apis.TypeOracle
	legality apis.QualifierLegality

	rawType    reflect.Type
	types      []reflect.Type
	typeSet    map[reflect.Type]struct{}
	qualifiers []apis.Qualifier
	byKind     map[reflect.Type]apis.Qualifier
	declaring  any

	err error
}

// New returns an empty Builder using oracle for raw types and assignability
// and legality to vet qualifier kinds. A nil oracle defaults to
// strategy.NewReflectOracle(0); a nil legality to strategy.NewMarkerStrategy
// alone.
func New(oracle apis.TypeOracle, legality apis.QualifierLegality) *Builder {
	if oracle == nil {
		oracle = strategy.NewReflectOracle(0)
	}
	if legality == nil {
		legality = strategy.Chain(strategy.NewMarkerStrategy())
	}
	return &Builder{
		oracle:   oracle,
		legality: legality,
		typeSet:  make(map[reflect.Type]struct{}),
		byKind:   make(map[reflect.Type]apis.Qualifier),
	}
}

// Err returns the first error recorded by a mutator, or nil.
func (b *Builder) Err() error { return b.err }

// RawType returns the raw primary type, or nil if none was set.
func (b *Builder) RawType() reflect.Type { return b.rawType }

// Qualifiers returns a copy of the qualifiers added so far.
func (b *Builder) Qualifiers() []apis.Qualifier { return slices.Clone(b.qualifiers) }

// SetType sets the primary type and adds it to the type closure.
func (b *Builder) SetType(t reflect.Type) *Builder {
	if b.err != nil {
		return b
	}
	if b.rawType != nil {
		b.err = fmt.Errorf("%w: already %s", ErrTypeAlreadySet, uref.TypeName(b.rawType))
		return b
	}
	if t == nil {
		b.err = ErrNilType
		return b
	}
	raw, ok := b.oracle.RawType(t)
	if !ok || raw == nil {
		b.err = fmt.Errorf("%w: %s", ErrCannotExtractRawType, t)
		return b
	}
	b.rawType = raw
	b.addType(t)
	return b
}

// SetSource sets the primary type, the qualifiers and the declaring context
// from src, in that order.
func (b *Builder) SetSource(src apis.SelectorSource) *Builder {
	if b.err != nil {
		return b
	}
	if src == nil {
		b.err = fmt.Errorf("%w: nil source", ErrNilType)
		return b
	}
	b.SetType(src.Type())
	b.AddQualifiers(src.Qualifiers()...)
	if b.err == nil {
		b.SetDeclaringContext(src.Owner())
	}
	return b
}

// SetDeclaringContext records the entity owning the selector. It may be
// called any number of times; the last value wins.
func (b *Builder) SetDeclaringContext(ctx any) *Builder {
	if b.err != nil {
		return b
	}
	b.declaring = ctx
	return b
}

// AddType adds t to the type closure. Nil is ignored.
func (b *Builder) AddType(t reflect.Type) *Builder {
	if b.err != nil {
		return b
	}
	b.addType(t)
	return b
}

// AddTypes adds every non-nil type to the type closure.
func (b *Builder) AddTypes(types ...reflect.Type) *Builder {
	if b.err != nil {
		return b
	}
	for _, t := range types {
		b.addType(t)
	}
	return b
}

func (b *Builder) addType(t reflect.Type) {
	if t == nil {
		return
	}
	if _, ok := b.typeSet[t]; ok {
		return
	}
	b.typeSet[t] = struct{}{}
	b.types = append(b.types, t)
}

// AddQualifier adds q after checking that its kind is legal and not
// already present.
func (b *Builder) AddQualifier(q apis.Qualifier) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.checkQualifier(q); err != nil {
		b.err = err
		return b
	}
	b.qualifiers = append(b.qualifiers, q)
	b.byKind[apis.KindOf(q)] = q
	return b
}

// AddQualifierIfAbsent adds q unless an equal qualifier is already present.
func (b *Builder) AddQualifierIfAbsent(q apis.Qualifier) *Builder {
	if b.err != nil {
		return b
	}
	if q != nil && reflect.ValueOf(q).Comparable() {
		if have, ok := b.byKind[apis.KindOf(q)]; ok && have == q {
			return b
		}
	}
	return b.AddQualifier(q)
}

// AddQualifiers adds each qualifier in order. The first failure stops the
// call; qualifiers added before it are kept.
func (b *Builder) AddQualifiers(qs ...apis.Qualifier) *Builder {
	for _, q := range qs {
		if b.AddQualifier(q); b.err != nil {
			break
		}
	}
	return b
}

func (b *Builder) checkQualifier(q apis.Qualifier) error {
	if q == nil {
		return fmt.Errorf("%w: nil", ErrInvalidQualifier)
	}
	rv := reflect.ValueOf(q)
	if !rv.Comparable() {
		return fmt.Errorf("%w: %v is not comparable", ErrInvalidQualifier, q)
	}
	// A value that is not equal to itself (NaN somewhere inside) could
	// never be found again by a lookup.
	if !rv.Equal(rv) {
		return fmt.Errorf("%w: %v is not equal to itself", ErrInvalidQualifier, q)
	}
	kind := apis.KindOf(q)
	if !b.legality.IsLegalQualifierKind(kind) {
		return fmt.Errorf("%w: %v", ErrInvalidQualifier, q)
	}
	if _, ok := b.byKind[kind]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateQualifiers, b.qualifiers)
	}
	return nil
}

// Build returns an immutable Selector snapshotting the builder. When no
// qualifier was added the Selector carries exactly apis.Default{}. The
// builder remains usable; later mutations do not affect the result.
func (b *Builder) Build() (apis.Selector, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.rawType == nil {
		return nil, ErrNoType
	}

	qualifiers := slices.Clone(b.qualifiers)
	byKind := maps.Clone(b.byKind)
	if len(qualifiers) == 0 {
		qualifiers = []apis.Qualifier{apis.Default{}}
		byKind[apis.DefaultKind] = apis.Default{}
	}
	types := slices.Clone(b.types)

	return &selector{
		oracle:     b.oracle,
		rawType:    b.rawType,
		types:      types,
		qualifiers: qualifiers,
		byKind:     byKind,
		declaring:  b.declaring,
		key:        selectorKey(types, qualifiers),
	}, nil
}
