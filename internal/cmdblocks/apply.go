package cmdblocks

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/peaceform/internal/cmdblock"
	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// ApplyFor selects which direction ApplyExecCmdBlock runs: Ensure drives
// current towards goal, Clean drives current towards the clean (absent)
// state.
type ApplyFor int

const (
	ApplyForEnsure ApplyFor = iota
	ApplyForClean
)

// StatesTs stands in for the source's phantom-typed ApplyExecCmdBlock<Ts>:
// Go has no zero-sized phantom generics, so the two flags it would carry
// at the type level are carried as a plain value instead (see DESIGN.md's
// Open Question resolution).
type StatesTs struct {
	ApplyFor ApplyFor
	DryRun   bool
}

// ApplyOutcome accumulates the three state maps: StatesPrevious
// (pre-apply snapshot), StatesApplied (post-apply, in the order each item
// finished), and StatesGoal (re-captured for Ensure only).
// Failed items retain their previous state in StatesPrevious and whatever
// post-apply state they managed to report (if any) in StatesApplied.
type ApplyOutcome struct {
	StatesPrevious *item.StatesMap
	StatesApplied  *item.StatesMap
	StatesGoal     *item.StatesMap
}

// ApplyExecCmdBlock runs prepare -> check -> (dry-)apply for every item.
// Traversal is forward for Ensure, reverse for Clean, so dependents are
// destroyed before their dependencies on Clean.
type ApplyExecCmdBlock struct {
	Graph       *graph.Graph
	Resources   *resources.Map
	ParamsSpecs *params.Specs
	MappingFns  *params.MappingFnRegistry
	Ts          StatesTs
	ProgressCh  chan<- progress.Update
	Interrupt   progress.Interruptibility
}

func (b *ApplyExecCmdBlock) Name() string { return "apply-exec" }

// prepareResult is what step 1 produces for one
// item before the check/apply decision is made.
type prepareResult struct {
	params      map[string]any
	partial     map[string]any
	current     item.BoxedState
	target      item.BoxedState
	diff        item.StateDiff
	applyCheck  item.ApplyCheck
}

func (b *ApplyExecCmdBlock) Exec(ctx context.Context, _ struct{}) (ApplyOutcome, cmdblock.ItemErrors, error) {
	out := ApplyOutcome{
		StatesPrevious: item.NewStatesMap(),
		StatesApplied:  item.NewStatesMap(),
	}
	if b.Ts.ApplyFor == ApplyForEnsure {
		out.StatesGoal = item.NewStatesMap()
	}

	fn := func(ctx context.Context, id item.ID, rt item.RT) error {
		sender := progress.NewSender(string(id), b.ProgressCh)
		fnCtx := item.FnCtx{ItemID: id, Progress: sender, Interrupt: b.Interrupt, Ctx: ctx}

		spec, ok := b.ParamsSpecs.Get(string(id))
		if !ok {
			return fmt.Errorf("cmdblocks: apply-exec: item %q has no params spec", id)
		}

		prep, err := b.prepare(fnCtx, rt, id, spec)
		if err != nil {
			out.StatesPrevious.Set(id, prep.current)
			sender.Fail(err)
			return fmt.Errorf("cmdblocks: apply-exec: prepare failed for %q: %w", id, err)
		}
		out.StatesPrevious.Set(id, prep.current)

		if prep.applyCheck.Kind == item.ExecNotRequired {
			out.StatesApplied.Set(id, prep.target)
			if out.StatesGoal != nil {
				out.StatesGoal.Set(id, prep.target)
			}
			sender.Complete()
			return nil
		}

		sender.SetLimit(prep.applyCheck.Limit)

		var applied item.BoxedState
		if b.Ts.DryRun {
			applied, err = rt.ApplyExecDry(fnCtx, prep.params, b.Resources, prep.current, prep.target, prep.diff)
		} else {
			applied, err = rt.ApplyExec(fnCtx, prep.params, b.Resources, prep.current, prep.target, prep.diff)
		}
		if err != nil {
			if applied.Value != nil {
				out.StatesApplied.Set(id, applied)
			}
			sender.Fail(err)
			return fmt.Errorf("cmdblocks: apply-exec: apply failed for %q: %w", id, err)
		}

		out.StatesApplied.Set(id, applied)
		if out.StatesGoal != nil {
			out.StatesGoal.Set(id, prep.target)
		}
		sender.Complete()
		return nil
	}

	var errs cmdblock.ItemErrors
	if b.Ts.ApplyFor == ApplyForEnsure {
		errs = b.Graph.ForEachConcurrent(ctx, cmdblock.MaxInFlight, fn)
	} else {
		errs = b.Graph.TryForEachConcurrentRev(ctx, cmdblock.MaxInFlight, fn)
	}

	return out, errs, nil
}

// prepare runs state_current, state_target (goal for Ensure, clean for
// Clean), state_diff, apply_check — step 1 of the per-item apply pipeline,
// before Exec decides whether to skip, dry-run, or actually apply.
func (b *ApplyExecCmdBlock) prepare(fnCtx item.FnCtx, rt item.RT, id item.ID, spec *params.Spec) (prepareResult, error) {
	var prep prepareResult

	p, err := params.Resolve(spec, b.Resources, string(id), spec.TypeName, b.MappingFns)
	if err != nil {
		return prep, fmt.Errorf("resolving params: %w", err)
	}
	prep.params = p
	prep.partial = params.TryResolve(spec, b.Resources, string(id), spec.TypeName, b.MappingFns)

	current, err := rt.StateCurrentExec(fnCtx, p, b.Resources)
	if err != nil {
		return prep, fmt.Errorf("state_current: %w", err)
	}
	prep.current = current

	var target item.BoxedState
	if b.Ts.ApplyFor == ApplyForEnsure {
		target, err = rt.StateGoalExec(fnCtx, p, b.Resources)
	} else {
		target, err = rt.StateCleanExec(prep.partial, b.Resources)
	}
	if err != nil {
		return prep, fmt.Errorf("state_target: %w", err)
	}
	prep.target = target

	diff, err := rt.StateDiffExec(prep.partial, b.Resources, current, target)
	if err != nil {
		return prep, fmt.Errorf("state_diff: %w", err)
	}
	prep.diff = diff

	check, err := rt.ApplyCheckExec(p, b.Resources, current, target, diff)
	if err != nil {
		return prep, fmt.Errorf("apply_check: %w", err)
	}
	prep.applyCheck = check

	return prep, nil
}
