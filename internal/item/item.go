// Package item defines the Item contract: the six-function
// lifecycle every managed unit of external state implements, plus the
// erased wrapper the engine dispatches through once items are assembled
// into a graph (internal/graph) and driven by a command pipeline
// (internal/cmdblock, internal/cmdblocks).
package item

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// State is the per-item snapshot type: "everything needed to decide
// whether apply is required and to display what changed".
type State interface {
	fmt.Stringer
	// Equal reports semantic equality against another State of the same
	// concrete type. Comparing across concrete types is a framework bug,
	// not a false "not equal" — implementations should panic or the RT
	// wrapper treats a type mismatch as ErrFrameworkBug.
	Equal(other State) bool
}

// StateDiff is the result of comparing two States.
type StateDiff interface {
	fmt.Stringer
	// Changed reports whether the diff represents any change at all —
	// the semantic, not string, equality invariant 3 requires
	// for `state_diff(current, current)`.
	Changed() bool
}

// ApplyCheckKind is the apply_check decision (glossary: "Apply
// check").
type ApplyCheckKind int

const (
	ExecNotRequired ApplyCheckKind = iota
	ExecRequired
)

// ApplyCheck is the result of an item's apply_check: either no work is
// needed, or work is needed and bounded by progress.Limit ticks/bytes/
// unknown.
type ApplyCheck struct {
	Kind  ApplyCheckKind
	Limit progress.Limit
}

func NotRequired() ApplyCheck { return ApplyCheck{Kind: ExecNotRequired} }

func Required(limit progress.Limit) ApplyCheck {
	return ApplyCheck{Kind: ExecRequired, Limit: limit}
}

// FnCtx carries what every item function needs beyond its typed
// parameters: the item id, a progress sender, and the cooperative
// interruption signal ("FnCtx carries: item id, progress
// sender, and (implicitly via environment) the interruption token").
type FnCtx struct {
	ItemID       ID
	Progress     progress.Sender
	Interrupt    progress.Interruptibility
	Ctx          context.Context
}

// Interrupted reports whether this item's function should return early.
func (f FnCtx) Interrupted() bool { return f.Interrupt.IsInterrupted() }

// Item is the six-function lifecycle of , parameterized over:
//
//	P  - the item's resolved Params (Value) type
//	PP - the item's Partial params type (every field optional)
//	S  - the item's State type
//	D  - the item's Data type: the resource-map slice it borrows
//
// Go has no compiler-generated sibling "Partial"/"Spec" types; concrete
// items hand-write their Partial type (PP) as a struct of optional
// (pointer or zero-value-meaningful) fields, the direct idiomatic-Go
// equivalent.
type Item[P any, PP any, S State, D any] interface {
	// ID returns this item's stable, flow-unique identifier.
	ID() ID

	// Setup must insert one resource-map value per type declared in D; it
	// may perform fallible I/O (credential probing, file load). Any
	// failure aborts the command build.
	Setup(ctx context.Context, res *resources.Map) error

	// StateExample infallibly instantiates a representative state for
	// diagram/preview purposes. Must not perform I/O.
	StateExample(params P, data D) S

	// TryStateCurrent is best-effort discovery: it returns (nil, nil)
	// when a dependency is not yet present (e.g. a predecessor has not
	// been applied).
	TryStateCurrent(fnCtx FnCtx, params PP, data D) (*S, error)

	// StateCurrent is expected to succeed; failure is user-visible.
	StateCurrent(fnCtx FnCtx, params P, data D) (S, error)

	// TryStateGoal mirrors TryStateCurrent for the goal state.
	TryStateGoal(fnCtx FnCtx, params PP, data D) (*S, error)

	// StateGoal mirrors StateCurrent for the goal state.
	StateGoal(fnCtx FnCtx, params P, data D) (S, error)

	// StateDiff must be cheap, pure, and complete without awaiting.
	StateDiff(params PP, data D, a, b S) (StateDiff, error)

	// StateClean returns the sentinel "absent" state.
	StateClean(params PP, data D) (S, error)

	// ApplyCheck decides whether apply work is required, and if so, how
	// much.
	ApplyCheck(params P, data D, current, target S, diff StateDiff) (ApplyCheck, error)

	// ApplyDry must not mutate external state, but must install
	// placeholder IDs into the resource map so downstream items can
	// continue.
	ApplyDry(fnCtx FnCtx, params P, data D, current, target S, diff StateDiff) (S, error)

	// Apply performs the change and returns the new state.
	Apply(fnCtx FnCtx, params P, data D, current, target S, diff StateDiff) (S, error)
}
