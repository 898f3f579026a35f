package params

import (
	"reflect"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// ValueResolutionCtx is reconstructed per field during Resolve/TryResolve so
// every error names the item, Params type, and field path it occurred at.
type ValueResolutionCtx = perrors.ValueResolutionCtx

// Resolve resolves every field of s against res, returning the field values
// keyed by field name, or the first ParamsResolveError encountered: every
// field must resolve to a concrete value. itemID and paramsType populate
// the error context.
func Resolve(s *Spec, res *resources.Map, itemID, paramsType string, reg *MappingFnRegistry) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))
	for _, name := range s.order {
		vs := s.Fields[name]
		ctx := perrors.ValueResolutionCtx{ItemID: itemID, ParamsType: paramsType, FieldPath: name}
		v, err := resolveField(vs, res, ctx, reg)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// TryResolve mirrors Resolve but returns nil instead of an error the
// moment any field is unresolvable — it is used for best-effort discovery
// (TryStateCurrent/TryStateGoal), never surfacing a user-visible error for
// an absent dependency.
func TryResolve(s *Spec, res *resources.Map, itemID, paramsType string, reg *MappingFnRegistry) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, name := range s.order {
		vs := s.Fields[name]
		v, ok := tryResolveField(vs, res, reg)
		if !ok {
			return nil
		}
		out[name] = v
	}
	return out
}

func resolveField(vs ValueSpec, res *resources.Map, ctx perrors.ValueResolutionCtx, reg *MappingFnRegistry) (any, error) {
	switch vs.Kind {
	case KindValue:
		return vs.Literal, nil

	case KindInMemory:
		v, release, fail := resources.TryBorrowDynamic(res, vs.FieldType)
		if fail != nil {
			kind := perrors.ResolveFrom
			if fail.Kind == perrors.BorrowConflictImm || fail.Kind == perrors.BorrowConflictMut {
				kind = perrors.ResolveFromBorrowConflict
			}
			return nil, &perrors.ParamsResolveError{Kind: kind, Ctx: ctx, ArgType: vs.FieldType.String(), Cause: fail}
		}
		release()
		return v, nil

	case KindMappingFn:
		entry, ok := reg.lookup(vs.FnName)
		if !ok {
			return nil, &perrors.ParamsResolveError{Kind: perrors.ResolveFromMap, Ctx: ctx, ArgType: vs.FnName}
		}
		args := make([]any, len(entry.argTypes))
		for i, t := range entry.argTypes {
			v, release, fail := resources.TryBorrowDynamic(res, t)
			if fail != nil {
				return nil, &perrors.ParamsResolveError{Kind: perrors.ResolveFromMap, Ctx: ctx, ArgType: t.String(), Cause: fail}
			}
			args[i] = v
			release()
		}
		v, ok := entry.fn(args)
		if !ok {
			argType := ""
			if len(entry.argTypes) > 0 {
				argType = entry.argTypes[len(entry.argTypes)-1].String()
			}
			return nil, &perrors.ParamsResolveError{Kind: perrors.ResolveFromMap, Ctx: ctx, ArgType: argType}
		}
		return v, nil

	case KindStored:
		// Stored fields are only meaningful before merge with a freshly
		// provided Spec; by resolve time they must have been replaced,
		// per ("Stored ... discarded during merge"). Treated
		// as an absent InMemory-style resource so a stray Stored field
		// surfaces a traceable error rather than a zero value.
		return nil, &perrors.ParamsResolveError{Kind: perrors.ResolveFrom, Ctx: ctx, ArgType: fieldTypeString(vs.FieldType)}

	default:
		return nil, &perrors.ParamsResolveError{Kind: perrors.ResolveFrom, Ctx: ctx, ArgType: fieldTypeString(vs.FieldType)}
	}
}

func tryResolveField(vs ValueSpec, res *resources.Map, reg *MappingFnRegistry) (any, bool) {
	switch vs.Kind {
	case KindValue:
		return vs.Literal, true

	case KindInMemory:
		v, release, fail := resources.TryBorrowDynamic(res, vs.FieldType)
		if fail != nil {
			return nil, false
		}
		release()
		return v, true

	case KindMappingFn:
		entry, ok := reg.lookup(vs.FnName)
		if !ok {
			return nil, false
		}
		args := make([]any, len(entry.argTypes))
		for i, t := range entry.argTypes {
			v, release, fail := resources.TryBorrowDynamic(res, t)
			if fail != nil {
				return nil, false
			}
			args[i] = v
			release()
		}
		return entry.fn(args)

	default:
		return nil, false
	}
}

func fieldTypeString(t reflect.Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}
