// Package params implements the parameter model: each user Params struct
// gets three views — Value (all fields present), Partial (every field
// optional), and Spec (every field a ValueSpec describing how to obtain
// the value at resolve time). Go has no compile-time derive macro to
// generate Partial/Spec as sibling struct types, so this package instead
// walks a user struct with reflect and represents Spec as a
// field-name-keyed map of ValueSpec, built by SpecOf from the struct's
// exported field names.
package params

import (
	"fmt"
	"reflect"
)

// ValueSpecKind is the tagged-union discriminant of 's
// `ValueSpec<F>`.
type ValueSpecKind int

const (
	KindStored ValueSpecKind = iota
	KindValue
	KindInMemory
	KindMappingFn
)

func (k ValueSpecKind) String() string {
	switch k {
	case KindStored:
		return "Stored"
	case KindValue:
		return "Value"
	case KindInMemory:
		return "InMemory"
	case KindMappingFn:
		return "MappingFn"
	default:
		return "Unknown"
	}
}

// ValueSpec is one field's resolution recipe. Exactly one
// of the Kind-selected fields is meaningful:
//
//	KindStored    - no payload; resolved from a previous run's stored Value.
//	KindValue     - Literal holds the field's value directly.
//	KindInMemory  - fetched from the resource map by FieldType.
//	KindMappingFn - FnName names a MappingFnRegistry entry; the registry
//	                entry holds the reflect.Types of the function's borrowed
//	                arguments, which drive resolution and are not serialized.
type ValueSpec struct {
	Kind      ValueSpecKind
	FieldType reflect.Type
	Literal   any
	FnName    string
}

// Stored builds a ValueSpec that defers to the previous run's stored value.
func Stored(fieldType reflect.Type) ValueSpec {
	return ValueSpec{Kind: KindStored, FieldType: fieldType}
}

// Value builds a ValueSpec carrying a literal value.
func Value(fieldType reflect.Type, v any) ValueSpec {
	return ValueSpec{Kind: KindValue, FieldType: fieldType, Literal: v}
}

// InMemory builds a ValueSpec that borrows fieldType from the resource map.
func InMemory(fieldType reflect.Type) ValueSpec {
	return ValueSpec{Kind: KindInMemory, FieldType: fieldType}
}

// MappingFn builds a ValueSpec that derives its value by calling the
// registered mapping function fnName ("registered by
// mapping-fn name for serialization").
func MappingFn(fieldType reflect.Type, fnName string) ValueSpec {
	return ValueSpec{Kind: KindMappingFn, FieldType: fieldType, FnName: fnName}
}

// Spec is the field-name-keyed resolution recipe for one item's Params
//, built by SpecOf or decoded from
// params_specs.yaml.
type Spec struct {
	// TypeName is the registered tag used to reconstruct the concrete
	// Params struct on deserialization (internal/typereg).
	TypeName string
	Fields   map[string]ValueSpec
	// order preserves struct field declaration order, for deterministic
	// YAML re-encoding.
	order []string
}

func newSpec(typeName string) *Spec {
	return &Spec{TypeName: typeName, Fields: make(map[string]ValueSpec)}
}

func (s *Spec) set(name string, vs ValueSpec) {
	if _, exists := s.Fields[name]; !exists {
		s.order = append(s.order, name)
	}
	s.Fields[name] = vs
}

// FieldOrder returns field names in declaration order.
func (s *Spec) FieldOrder() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SpecOf walks paramsStructType's exported fields via reflect and builds a
// Spec with every field defaulted to KindStored — the typical starting
// point before a caller overrides specific fields with Value/InMemory/
// MappingFn.
// typeName is the registered tag for the concrete Params type.
func SpecOf(typeName string, paramsStructType reflect.Type) (*Spec, error) {
	if paramsStructType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params: SpecOf requires a struct type, got %s", paramsStructType.Kind())
	}
	spec := newSpec(typeName)
	for i := 0; i < paramsStructType.NumField(); i++ {
		f := paramsStructType.Field(i)
		if !f.IsExported() {
			continue
		}
		spec.set(f.Name, Stored(f.Type))
	}
	return spec, nil
}

// WithValue returns a copy of s with field set to a literal value.
func (s *Spec) WithValue(field string, v any) *Spec {
	out := s.clone()
	existing, ok := out.Fields[field]
	ft := reflect.TypeOf(v)
	if ok {
		ft = existing.FieldType
	}
	out.set(field, Value(ft, v))
	return out
}

// WithInMemory returns a copy of s with field set to borrow fieldType from
// the resource map.
func (s *Spec) WithInMemory(field string, fieldType reflect.Type) *Spec {
	out := s.clone()
	out.set(field, InMemory(fieldType))
	return out
}

// WithMappingFn returns a copy of s with field set to derive via the named
// mapping function.
func (s *Spec) WithMappingFn(field string, fieldType reflect.Type, fnName string) *Spec {
	out := s.clone()
	out.set(field, MappingFn(fieldType, fnName))
	return out
}

func (s *Spec) clone() *Spec {
	out := newSpec(s.TypeName)
	out.order = append(out.order, s.order...)
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	return out
}
