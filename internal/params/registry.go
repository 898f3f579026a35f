package params

import "fmt"

// MappingFn is the shape every registered mapping function takes: it
// receives the resolved argument values (already borrowed from the
// resource map, in the order ArgTypes names them) and returns the derived
// field value, or ok=false if the value cannot be derived from the current
// inputs.
type MappingFn func(args []any) (value any, ok bool)

// MappingFnRegistry maps a mapping function's registered name to its
// implementation ... registered by mapping-fn
// name for serialization"; "MappingFn is serialized as the
// mapping function's registered name only; the function body is supplied
// in code via a MappingFnRegistry keyed by the same name").
type MappingFnRegistry struct {
	entries map[string]registeredFn
}

type registeredFn struct {
	fn       MappingFn
	argTypes []typeKey
}

func NewMappingFnRegistry() *MappingFnRegistry {
	return &MappingFnRegistry{entries: make(map[string]registeredFn)}
}

// Register binds name to fn, which expects len(argTypes) resolved
// arguments in order. argTypes are provided as zero values of the argument
// types (e.g. uint32(0), uint64(0)) purely to capture their reflect.Type.
func (r *MappingFnRegistry) Register(name string, fn MappingFn, argTypes ...any) {
	keys := make([]typeKey, len(argTypes))
	for i, a := range argTypes {
		keys[i] = typeKeyOf(a)
	}
	r.entries[name] = registeredFn{fn: fn, argTypes: keys}
}

func (r *MappingFnRegistry) lookup(name string) (registeredFn, bool) {
	e, ok := r.entries[name]
	return e, ok
}

func (r *MappingFnRegistry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Unusable reports the detail string used in ParamsSpecsMismatch when a
// Spec references a mapping-fn name the registry does not hold: such a
// spec is treated as unusable.
func (r *MappingFnRegistry) Unusable(name string) string {
	return fmt.Sprintf("mapping function %q is not registered", name)
}
