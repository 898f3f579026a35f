package params

import (
	"github.com/hashmap-kz/peaceform/internal/orderedmap"
	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// Specs is the ordered ItemID -> Spec mapping of ParamsSpecs:
// "order = graph insertion order". Keyed by plain string (an item.ID's
// underlying representation) rather than internal/item.ID itself, so this
// package never depends on internal/item — internal/item depends on
// internal/params instead, to build concrete Params/Partial values from a
// resolved field map (see internal/item/rt.go).
type Specs = orderedmap.Map[string, *Spec]

func NewSpecs() *Specs { return orderedmap.New[string, *Spec]() }

// MergeSpecs merges stored (from a previous run's params_specs.yaml) and
// provided (freshly supplied by the current command) Specs field-wise:
// provided wins on conflict. knownItems is the current flow graph's item
// id set — fields/items outside it are reported, not silently dropped
// ("fields unknown on either side are reported in a single
// ParamsSpecsMismatch error").
//
// The four mismatch categories:
//  1. item has no params at all (knownItems names it, neither side does)
//  2. provided for a dropped item (provided names an id not in knownItems)
//  3. stored for a dropped item (stored names an id not in knownItems)
//  4. spec became unusable (a MappingFn field names a fn not in reg)
func MergeSpecs(stored, provided *Specs, knownItems []string, reg *MappingFnRegistry) (*Specs, *perrors.ParamsSpecsMismatch) {
	mismatch := &perrors.ParamsSpecsMismatch{}
	known := make(map[string]bool, len(knownItems))
	for _, id := range knownItems {
		known[id] = true
	}

	merged := NewSpecs()

	if provided != nil {
		for _, id := range provided.Keys() {
			if !known[id] {
				v, _ := provided.Get(id)
				mismatch.Add(string(id), perrors.MismatchProvidedForDroppedItem, v.TypeName)
			}
		}
	}
	if stored != nil {
		for _, id := range stored.Keys() {
			if !known[id] {
				v, _ := stored.Get(id)
				mismatch.Add(string(id), perrors.MismatchStoredForDroppedItem, v.TypeName)
			}
		}
	}

	for _, id := range knownItems {
		var storedSpec, providedSpec *Spec
		if stored != nil {
			storedSpec, _ = stored.Get(id)
		}
		if provided != nil {
			providedSpec, _ = provided.Get(id)
		}

		if storedSpec == nil && providedSpec == nil {
			mismatch.Add(string(id), perrors.MismatchNoParams, "")
			continue
		}

		var base *Spec
		switch {
		case providedSpec != nil && storedSpec != nil:
			base = mergeFieldwise(storedSpec, providedSpec)
		case providedSpec != nil:
			base = providedSpec.clone()
		default:
			base = storedSpec.clone()
		}

		for _, fieldName := range base.order {
			vs := base.Fields[fieldName]
			if vs.Kind == KindMappingFn && reg != nil && !reg.Has(vs.FnName) {
				mismatch.Add(string(id), perrors.MismatchSpecUnusable, reg.Unusable(vs.FnName))
			}
		}

		merged.Set(id, base)
	}

	if mismatch.HasEntries() {
		return merged, mismatch
	}
	return merged, nil
}

// mergeFieldwise merges two Specs for the same item: provided's fields win
// over stored's for any field present in both, except that a provided
// Stored field is discarded in favour of the stored spec, which takes
// provided's FieldType when the decoded one has none; fields unique to
// stored carry over (so partial re-specification doesn't drop the rest of
// a previously stored spec). Fields keep stored's order, with fields only
// provided has appended after them.
func mergeFieldwise(stored, provided *Spec) *Spec {
	out := newSpec(provided.TypeName)
	for _, name := range stored.order {
		out.set(name, stored.Fields[name])
	}
	for _, name := range provided.order {
		vs := provided.Fields[name]
		if prev, inStored := stored.Fields[name]; inStored && vs.Kind == KindStored {
			if prev.FieldType == nil {
				prev.FieldType = vs.FieldType
				out.set(name, prev)
			}
			continue
		}
		out.set(name, vs)
	}
	return out
}
