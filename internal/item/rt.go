package item

import (
	"context"
	"reflect"

	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/resources"
	"github.com/hashmap-kz/peaceform/internal/typereg"
)

// BoxedState erases a concrete State behind an `any`, tagged with the
// registered type name so the RT wrapper's state-equality delegation
// ("delegated to the item (downcasting to the concrete
// type)") can detect a downcast mismatch instead of silently miscomparing.
type BoxedState struct {
	TypeName string
	Value    State
}

func Box(typeName string, s State) BoxedState {
	return BoxedState{TypeName: typeName, Value: s}
}

// Equal delegates to the underlying State's Equal, after checking both
// boxes carry the same registered type name. A mismatch is a framework
// bug, never a false "not equal".
func (b BoxedState) Equal(other BoxedState) (bool, error) {
	if b.TypeName != other.TypeName {
		return false, &perrors.ErrFrameworkBug{Detail: "state equality across mismatched types " + b.TypeName + " vs " + other.TypeName}
	}
	if b.Value == nil || other.Value == nil {
		return b.Value == other.Value, nil
	}
	return b.Value.Equal(other.Value), nil
}

func (b BoxedState) String() string {
	if b.Value == nil {
		return "<absent>"
	}
	return b.Value.String()
}

// RT is the erased wrapper: it provides uniform dispatch
// over a boxed item regardless of its concrete Params/Data/State types, so
// internal/graph and internal/cmdblocks never need to be generic over
// every item kind in a flow.
type RT interface {
	ID() ID
	TypeName() string

	Setup(ctx context.Context, res *resources.Map) error

	StateExampleErased(params, data any) BoxedState

	StateCurrentTryExec(fnCtx FnCtx, partial, data any) (*BoxedState, error)
	StateCurrentExec(fnCtx FnCtx, params, data any) (BoxedState, error)
	StateGoalTryExec(fnCtx FnCtx, partial, data any) (*BoxedState, error)
	StateGoalExec(fnCtx FnCtx, params, data any) (BoxedState, error)

	StateDiffExec(partial, data any, a, b BoxedState) (StateDiff, error)
	StateCleanExec(partial, data any) (BoxedState, error)

	ApplyCheckExec(params, data any, current, target BoxedState, diff StateDiff) (ApplyCheck, error)
	ApplyExecDry(fnCtx FnCtx, params, data any, current, target BoxedState, diff StateDiff) (BoxedState, error)
	ApplyExec(fnCtx FnCtx, params, data any, current, target BoxedState, diff StateDiff) (BoxedState, error)

	// RegisterTypes binds this item's State type into stateReg under this
	// item's type name, so states_current.yaml/states_goal.yaml can
	// dispatch deserialization by the registered tag.
	RegisterTypes(stateReg *typereg.Registry[string])
}

// erasedItem adapts a concrete Item[P,PP,S,D] to RT. Params/Data arguments
// arrive boxed as `any`; a type assertion failure is a framework bug
// (wrong item wired to wrong params/data, a construction-time mistake the
// engine should never make once RegisterTypes/Erase are used correctly)
// surfaced as perrors.ErrFrameworkBug rather than a panic, per this port's
// no-panic-as-contract stance (see DESIGN.md).
type erasedItem[P any, PP any, S State, D any] struct {
	id       ID
	typeName string
	inner    Item[P, PP, S, D]
	newState func() S
}

// Erase adapts a concrete item to the erased RT interface. typeName is the
// registered tag used in states_current.yaml/states_goal.yaml and params
// specs; newState constructs a zero S for type-registry deserialization.
func Erase[P any, PP any, S State, D any](it Item[P, PP, S, D], typeName string, newState func() S) RT {
	return &erasedItem[P, PP, S, D]{id: it.ID(), typeName: typeName, inner: it, newState: newState}
}

func (e *erasedItem[P, PP, S, D]) ID() ID         { return e.id }
func (e *erasedItem[P, PP, S, D]) TypeName() string { return e.typeName }

func (e *erasedItem[P, PP, S, D]) Setup(ctx context.Context, res *resources.Map) error {
	return e.inner.Setup(ctx, res)
}

// castParams accepts either an already-concrete P (the common case: a
// command block built it via params.BuildValue itself) or a resolved field
// map straight out of params.Resolve — built into a concrete P here via
// reflection, so callers dispatching across items of differing concrete
// Params types (internal/cmdblocks) never need to know P statically.
func (e *erasedItem[P, PP, S, D]) castParams(v any) (P, error) {
	var zero P
	if p, ok := v.(P); ok {
		return p, nil
	}
	if m, ok := v.(map[string]any); ok {
		built, err := params.BuildValue(reflect.TypeOf(zero), m)
		if err != nil {
			return zero, &perrors.ErrFrameworkBug{Detail: "params: building " + e.typeName + " from resolved fields: " + err.Error()}
		}
		p, ok := built.(P)
		if !ok {
			return zero, &perrors.ErrFrameworkBug{Detail: "params type mismatch for item " + string(e.id)}
		}
		return p, nil
	}
	return zero, &perrors.ErrFrameworkBug{Detail: "params type mismatch for item " + string(e.id)}
}

func (e *erasedItem[P, PP, S, D]) castPartial(v any) (PP, error) {
	var zero PP
	if p, ok := v.(PP); ok {
		return p, nil
	}
	if m, ok := v.(map[string]any); ok {
		built, err := params.BuildPartial(reflect.TypeOf(zero), m)
		if err != nil {
			return zero, &perrors.ErrFrameworkBug{Detail: "partial params: building " + e.typeName + " from resolved fields: " + err.Error()}
		}
		p, ok := built.(PP)
		if !ok {
			return zero, &perrors.ErrFrameworkBug{Detail: "partial params type mismatch for item " + string(e.id)}
		}
		return p, nil
	}
	return zero, &perrors.ErrFrameworkBug{Detail: "partial params type mismatch for item " + string(e.id)}
}

func (e *erasedItem[P, PP, S, D]) castData(v any) (D, error) {
	d, ok := v.(D)
	if !ok {
		var zero D
		return zero, &perrors.ErrFrameworkBug{Detail: "data type mismatch for item " + string(e.id)}
	}
	return d, nil
}

func (e *erasedItem[P, PP, S, D]) castState(b BoxedState) (S, error) {
	var zero S
	if b.Value == nil {
		return zero, nil
	}
	s, ok := b.Value.(S)
	if !ok {
		return zero, &perrors.ErrFrameworkBug{Detail: "state type mismatch for item " + string(e.id)}
	}
	return s, nil
}

func (e *erasedItem[P, PP, S, D]) StateExampleErased(params, data any) BoxedState {
	p, err := e.castParams(params)
	if err != nil {
		return BoxedState{}
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}
	}
	return Box(e.typeName, e.inner.StateExample(p, d))
}

func (e *erasedItem[P, PP, S, D]) StateCurrentTryExec(fnCtx FnCtx, partial, data any) (*BoxedState, error) {
	pp, err := e.castPartial(partial)
	if err != nil {
		return nil, err
	}
	d, err := e.castData(data)
	if err != nil {
		return nil, err
	}
	s, err := e.inner.TryStateCurrent(fnCtx, pp, d)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	b := Box(e.typeName, *s)
	return &b, nil
}

func (e *erasedItem[P, PP, S, D]) StateCurrentExec(fnCtx FnCtx, params, data any) (BoxedState, error) {
	p, err := e.castParams(params)
	if err != nil {
		return BoxedState{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}, err
	}
	s, err := e.inner.StateCurrent(fnCtx, p, d)
	if err != nil {
		return BoxedState{}, err
	}
	return Box(e.typeName, s), nil
}

func (e *erasedItem[P, PP, S, D]) StateGoalTryExec(fnCtx FnCtx, partial, data any) (*BoxedState, error) {
	pp, err := e.castPartial(partial)
	if err != nil {
		return nil, err
	}
	d, err := e.castData(data)
	if err != nil {
		return nil, err
	}
	s, err := e.inner.TryStateGoal(fnCtx, pp, d)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	b := Box(e.typeName, *s)
	return &b, nil
}

func (e *erasedItem[P, PP, S, D]) StateGoalExec(fnCtx FnCtx, params, data any) (BoxedState, error) {
	p, err := e.castParams(params)
	if err != nil {
		return BoxedState{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}, err
	}
	s, err := e.inner.StateGoal(fnCtx, p, d)
	if err != nil {
		return BoxedState{}, err
	}
	return Box(e.typeName, s), nil
}

func (e *erasedItem[P, PP, S, D]) StateDiffExec(partial, data any, a, b BoxedState) (StateDiff, error) {
	pp, err := e.castPartial(partial)
	if err != nil {
		return nil, err
	}
	d, err := e.castData(data)
	if err != nil {
		return nil, err
	}
	sa, err := e.castState(a)
	if err != nil {
		return nil, err
	}
	sb, err := e.castState(b)
	if err != nil {
		return nil, err
	}
	return e.inner.StateDiff(pp, d, sa, sb)
}

func (e *erasedItem[P, PP, S, D]) StateCleanExec(partial, data any) (BoxedState, error) {
	pp, err := e.castPartial(partial)
	if err != nil {
		return BoxedState{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}, err
	}
	s, err := e.inner.StateClean(pp, d)
	if err != nil {
		return BoxedState{}, err
	}
	return Box(e.typeName, s), nil
}

func (e *erasedItem[P, PP, S, D]) ApplyCheckExec(params, data any, current, target BoxedState, diff StateDiff) (ApplyCheck, error) {
	p, err := e.castParams(params)
	if err != nil {
		return ApplyCheck{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return ApplyCheck{}, err
	}
	sc, err := e.castState(current)
	if err != nil {
		return ApplyCheck{}, err
	}
	st, err := e.castState(target)
	if err != nil {
		return ApplyCheck{}, err
	}
	return e.inner.ApplyCheck(p, d, sc, st, diff)
}

func (e *erasedItem[P, PP, S, D]) ApplyExecDry(fnCtx FnCtx, params, data any, current, target BoxedState, diff StateDiff) (BoxedState, error) {
	p, err := e.castParams(params)
	if err != nil {
		return BoxedState{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}, err
	}
	sc, err := e.castState(current)
	if err != nil {
		return BoxedState{}, err
	}
	st, err := e.castState(target)
	if err != nil {
		return BoxedState{}, err
	}
	s, err := e.inner.ApplyDry(fnCtx, p, d, sc, st, diff)
	if err != nil {
		return BoxedState{}, err
	}
	return Box(e.typeName, s), nil
}

func (e *erasedItem[P, PP, S, D]) ApplyExec(fnCtx FnCtx, params, data any, current, target BoxedState, diff StateDiff) (BoxedState, error) {
	p, err := e.castParams(params)
	if err != nil {
		return BoxedState{}, err
	}
	d, err := e.castData(data)
	if err != nil {
		return BoxedState{}, err
	}
	sc, err := e.castState(current)
	if err != nil {
		return BoxedState{}, err
	}
	st, err := e.castState(target)
	if err != nil {
		return BoxedState{}, err
	}
	s, err := e.inner.Apply(fnCtx, p, d, sc, st, diff)
	if err != nil {
		return BoxedState{}, err
	}
	return Box(e.typeName, s), nil
}

func (e *erasedItem[P, PP, S, D]) RegisterTypes(stateReg *typereg.Registry[string]) {
	stateReg.Register(e.typeName, func() any {
		s := e.newState()
		return &s
	})
}
