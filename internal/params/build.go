package params

import (
	"fmt"
	"reflect"
)

// BuildValue populates a new instance of structType (the item's Value
// params struct) from a fully-resolved field map (the output of Resolve),
// matching fields by name. Every exported field of structType must have an
// entry in values, or BuildValue fails — Resolve's totality guarantee
// is expected to have already ensured this.
func BuildValue(structType reflect.Type, values map[string]any) (any, error) {
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params: BuildValue requires a struct type, got %s", structType.Kind())
	}
	out := reflect.New(structType).Elem()
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		if !f.IsExported() {
			continue
		}
		v, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("params: no resolved value for field %s.%s", structType.Name(), f.Name)
		}
		if err := setField(out.Field(i), f, v); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

// BuildPartial populates a new instance of partialType (the item's Partial
// params struct, every field a pointer to the Value field's type) from a
// best-effort field map (the output of TryResolve), leaving any field
// absent from values as its zero value (nil pointer), per 's
// "Partial - every field optional".
func BuildPartial(partialType reflect.Type, values map[string]any) (any, error) {
	if partialType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params: BuildPartial requires a struct type, got %s", partialType.Kind())
	}
	out := reflect.New(partialType).Elem()
	for i := 0; i < partialType.NumField(); i++ {
		f := partialType.Field(i)
		if !f.IsExported() {
			continue
		}
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		if f.Type.Kind() != reflect.Ptr {
			return nil, fmt.Errorf("params: partial field %s.%s must be a pointer type, got %s", partialType.Name(), f.Name, f.Type)
		}
		elem := reflect.New(f.Type.Elem())
		if err := setField(elem.Elem(), reflect.StructField{Name: f.Name, Type: f.Type.Elem()}, v); err != nil {
			return nil, err
		}
		out.Field(i).Set(elem)
	}
	return out.Interface(), nil
}

func setField(dst reflect.Value, f reflect.StructField, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		dst.Set(reflect.Zero(f.Type))
		return nil
	}
	if !rv.Type().AssignableTo(f.Type) {
		if rv.Type().ConvertibleTo(f.Type) {
			rv = rv.Convert(f.Type)
		} else {
			return fmt.Errorf("params: field %s: cannot assign value of type %s to field of type %s", f.Name, rv.Type(), f.Type)
		}
	}
	dst.Set(rv)
	return nil
}
