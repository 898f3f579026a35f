// Package typereg implements the keyed type registry that binds
// serialization tags to concrete Go types, so workspace/profile/flow
// params, params specs, and item states can be deserialized polymorphically
// from a single YAML mapping.
package typereg

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Constructor builds a fresh zero value of the registered type. Registering
// a type is registering how to make a pointer to it so yaml.v3 can decode
// into it.
type Constructor func() any

// Registry binds logical keys of type K to constructors for concrete types.
// Two construction modes exist: NewWithUnknowns keeps
// unrecognised keys around for forward compatibility, New rejects them.
type Registry[K comparable] struct {
	ctors          map[K]Constructor
	preserveUnknown bool
}

func New[K comparable]() *Registry[K] {
	return &Registry[K]{ctors: make(map[K]Constructor)}
}

func NewWithUnknowns[K comparable]() *Registry[K] {
	return &Registry[K]{ctors: make(map[K]Constructor), preserveUnknown: true}
}

// Register binds key to a constructor. Re-registering a key overwrites the
// previous binding, matching the "reference-by-name" resolution in
// (mapping-fn registry follows the same shape).
func (r *Registry[K]) Register(key K, ctor Constructor) {
	r.ctors[key] = ctor
}

// Has reports whether key is bound.
func (r *Registry[K]) Has(key K) bool {
	_, ok := r.ctors[key]
	return ok
}

// Decoded holds the result of decoding a `{key: value}` YAML mapping
// against a Registry: recognised entries dispatch to their concrete type,
// Unknowns carries anything the registry didn't recognise when
// constructed via NewWithUnknowns.
type Decoded[K comparable] struct {
	Values   map[K]any
	Unknowns map[K]yaml.Node
}

// DecodeMapping decodes a YAML mapping node of {key: value} entries,
// instantiating each value via the registry's constructor for that key. An
// unregistered key is preserved in Unknowns if the registry was built with
// NewWithUnknowns, otherwise it is an error.
func (r *Registry[K]) DecodeMapping(node *yaml.Node) (Decoded[K], error) {
	out := Decoded[K]{Values: make(map[K]any)}
	if node == nil || node.Kind == 0 {
		return out, nil
	}
	if node.Kind != yaml.MappingNode {
		return out, fmt.Errorf("typereg: expected a mapping node, got kind %v", node.Kind)
	}
	if r.preserveUnknown {
		out.Unknowns = make(map[K]yaml.Node)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		var key K
		if err := keyNode.Decode(&key); err != nil {
			return out, fmt.Errorf("typereg: decoding key %q: %w", keyNode.Value, err)
		}

		ctor, ok := r.ctors[key]
		if !ok {
			if r.preserveUnknown {
				out.Unknowns[key] = *valNode
				continue
			}
			return out, fmt.Errorf("typereg: unregistered key %v", key)
		}

		v := ctor()
		if err := valNode.Decode(v); err != nil {
			return out, fmt.Errorf("typereg: decoding value for key %v: %w", key, err)
		}
		out.Values[key] = v
	}
	return out, nil
}

// EncodeMapping is the inverse of DecodeMapping: it builds a YAML mapping
// node from values (assumed already constructed by this registry's
// consumer) plus any preserved unknown entries, so forward-compatibility
// round-trips.
func (r *Registry[K]) EncodeMapping(values map[K]any, unknowns map[K]yaml.Node, keyOrder []K) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[K]bool, len(keyOrder))

	appendEntry := func(k K, v any) error {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(k); err != nil {
			return err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(v); err != nil {
			return err
		}
		node.Content = append(node.Content, keyNode, valNode)
		return nil
	}

	for _, k := range keyOrder {
		if v, ok := values[k]; ok {
			if err := appendEntry(k, v); err != nil {
				return nil, err
			}
			seen[k] = true
			continue
		}
		if n, ok := unknowns[k]; ok {
			keyNode := &yaml.Node{}
			if err := keyNode.Encode(k); err != nil {
				return nil, err
			}
			nCopy := n
			node.Content = append(node.Content, keyNode, &nCopy)
			seen[k] = true
		}
	}
	// anything not covered by keyOrder still round-trips, ordered after
	// the known keys, so no data is silently lost.
	for k, v := range values {
		if seen[k] {
			continue
		}
		if err := appendEntry(k, v); err != nil {
			return nil, err
		}
	}
	for k, n := range unknowns {
		if seen[k] {
			continue
		}
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		nCopy := n
		node.Content = append(node.Content, keyNode, &nCopy)
	}
	return node, nil
}
