package params

import (
	"gopkg.in/yaml.v3"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/storage"
	"github.com/hashmap-kz/peaceform/internal/typereg"
)

// Store is one of the three independent key-value stores — workspace,
// profile, and flow params — whose key type is chosen by the
// application, holding plain Values rather than Specs; backed by a
// storage.Backend file and a typereg.Registry[K] for round-tripping
// values as YAML.
type Store[K comparable] struct {
	reg      *typereg.Registry[K]
	artefact perrors.SerdeArtefact
}

func NewStore[K comparable](reg *typereg.Registry[K], artefact perrors.SerdeArtefact) *Store[K] {
	return &Store[K]{reg: reg, artefact: artefact}
}

// Loaded holds a Store's deserialized content plus anything the registry
// didn't recognise, so forward-compatibility round-trips hold (// invariant 6).
type Loaded[K comparable] struct {
	Values   map[K]any
	Unknowns map[K]yaml.Node
	KeyOrder []K
}

// Load reads path via backend, decoding it as a `{key: value}` mapping
// against the store's registry. A missing file yields an empty Loaded, not
// an error (step 2: new params files are created on first
// use).
func (s *Store[K]) Load(backend storage.Backend, path string) (Loaded[K], error) {
	raw, ok, err := backend.ReadOpt(path)
	if err != nil {
		return Loaded[K]{}, &perrors.StorageError{Kind: perrors.StorageFileRead, Path: path, Cause: err}
	}
	if !ok {
		return Loaded[K]{Values: make(map[K]any)}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Loaded[K]{}, &perrors.SerdeError{Artefact: s.artefact, Cause: err}
	}
	var mappingNode *yaml.Node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		mappingNode = doc.Content[0]
	} else {
		mappingNode = &doc
	}

	decoded, err := s.reg.DecodeMapping(mappingNode)
	if err != nil {
		return Loaded[K]{}, &perrors.SerdeError{Artefact: s.artefact, Cause: err}
	}

	order := make([]K, 0, len(decoded.Values)+len(decoded.Unknowns))
	if mappingNode.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(mappingNode.Content); i += 2 {
			var k K
			if err := mappingNode.Content[i].Decode(&k); err == nil {
				order = append(order, k)
			}
		}
	}

	return Loaded[K]{Values: decoded.Values, Unknowns: decoded.Unknowns, KeyOrder: order}, nil
}

// Save writes loaded back to path as a YAML mapping, preserving unknown
// entries.
func (s *Store[K]) Save(backend storage.Backend, path string, loaded Loaded[K]) error {
	node, err := s.reg.EncodeMapping(loaded.Values, loaded.Unknowns, loaded.KeyOrder)
	if err != nil {
		return &perrors.SerdeError{Artefact: s.artefact, Cause: err}
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return &perrors.SerdeError{Artefact: s.artefact, Cause: err}
	}
	if err := backend.Write(path, raw); err != nil {
		return &perrors.StorageError{Kind: perrors.StorageFileWrite, Path: path, Cause: err}
	}
	return nil
}

// MergeProvidedOverStored implements step 5 for a plain
// key-value Store: provided wins per key, stored fills any gap, and an
// entirely empty provided set adopts stored wholesale.
func MergeProvidedOverStored[K comparable](stored, provided Loaded[K]) Loaded[K] {
	if len(provided.Values) == 0 && len(provided.Unknowns) == 0 {
		return stored
	}
	out := Loaded[K]{
		Values:   make(map[K]any, len(stored.Values)+len(provided.Values)),
		Unknowns: make(map[K]yaml.Node, len(stored.Unknowns)+len(provided.Unknowns)),
	}
	seen := make(map[K]bool)
	for k, v := range stored.Values {
		out.Values[k] = v
	}
	for k, v := range stored.Unknowns {
		out.Unknowns[k] = v
	}
	for k, v := range provided.Values {
		out.Values[k] = v
		delete(out.Unknowns, k)
	}
	for k, v := range provided.Unknowns {
		out.Unknowns[k] = v
	}

	for _, k := range stored.KeyOrder {
		if !seen[k] {
			out.KeyOrder = append(out.KeyOrder, k)
			seen[k] = true
		}
	}
	for _, k := range provided.KeyOrder {
		if !seen[k] {
			out.KeyOrder = append(out.KeyOrder, k)
			seen[k] = true
		}
	}
	return out
}
