package params

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes a ValueSpec as a single-key mapping tagged by
// variant name: {Stored: null} / {Value: <literal>} / {InMemory: null} /
// {MappingFn: <name>} ("Each entry is a typed variant:
// Stored / Value(v) / InMemory / MappingFn(name) — MappingFn is serialized
// as the mapping function's registered name only").
func (vs ValueSpec) MarshalYAML() (any, error) {
	switch vs.Kind {
	case KindStored:
		return map[string]any{"Stored": nil}, nil
	case KindValue:
		return map[string]any{"Value": vs.Literal}, nil
	case KindInMemory:
		return map[string]any{"InMemory": nil}, nil
	case KindMappingFn:
		return map[string]any{"MappingFn": vs.FnName}, nil
	default:
		return nil, fmt.Errorf("params: cannot marshal ValueSpec with unknown kind %v", vs.Kind)
	}
}

// UnmarshalYAML decodes a ValueSpec from its tagged-mapping form. FieldType
// cannot be recovered from YAML alone (it is established by SpecOf from the
// concrete Params struct); callers merging a decoded Spec into a live one
// must carry FieldType over field-wise (see MergeSpecs).
func (vs *ValueSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("params: ValueSpec must decode from a single-key mapping")
	}
	tag := node.Content[0].Value
	val := node.Content[1]
	switch tag {
	case "Stored":
		*vs = ValueSpec{Kind: KindStored}
	case "Value":
		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("params: decoding Value payload: %w", err)
		}
		*vs = ValueSpec{Kind: KindValue, Literal: v}
	case "InMemory":
		*vs = ValueSpec{Kind: KindInMemory}
	case "MappingFn":
		var name string
		if err := val.Decode(&name); err != nil {
			return fmt.Errorf("params: decoding MappingFn name: %w", err)
		}
		*vs = ValueSpec{Kind: KindMappingFn, FnName: name}
	default:
		return fmt.Errorf("params: unknown ValueSpec variant %q", tag)
	}
	return nil
}

// MarshalYAML encodes a Spec as {type: <TypeName>, fields: {<field>: <ValueSpec>, ...}}
// with fields in declaration order, matching params_specs.yaml's
// one-entry-per-item, ordered-field layout.
func (s *Spec) MarshalYAML() (any, error) {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range s.order {
		vs := s.Fields[name]
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(name); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(vs); err != nil {
			return nil, err
		}
		fields.Content = append(fields.Content, keyNode, valNode)
	}
	return map[string]any{
		"type":   s.TypeName,
		"fields": fields,
	}, nil
}

// UnmarshalYAML decodes a Spec from its {type, fields} mapping form. Field
// FieldTypes are left nil; SpecOf (or a subsequent merge against a freshly
// built Spec) is responsible for attaching concrete reflect.Types before
// resolution, since YAML alone cannot recover Go type identity.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		TypeName string    `yaml:"type"`
		Fields   yaml.Node `yaml:"fields"`
	}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("params: decoding Spec: %w", err)
	}
	*s = *newSpec(raw.TypeName)
	if raw.Fields.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(raw.Fields.Content); i += 2 {
		name := raw.Fields.Content[i].Value
		var vs ValueSpec
		if err := raw.Fields.Content[i+1].Decode(&vs); err != nil {
			return fmt.Errorf("params: decoding field %q: %w", name, err)
		}
		s.set(name, vs)
	}
	return nil
}
