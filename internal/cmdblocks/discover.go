// Package cmdblocks implements the discover/diff/apply command blocks of
// , built on top of internal/cmdblock's Execution pipeline and
// internal/graph's bounded-concurrency traversal.
package cmdblocks

import (
	"context"
	"sync"

	"github.com/hashmap-kz/peaceform/internal/cmdblock"
	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// DiscoverFlavor selects which of an item's try_state_* functions
// StatesDiscoverBlock calls ("three flavours — current,
// goal, current-and-goal").
type DiscoverFlavor int

const (
	DiscoverCurrent DiscoverFlavor = iota
	DiscoverGoal
	DiscoverBoth
)

// StatesOutcome is the discover block's outcome: the Current and/or Goal
// maps populated according to Flavor. A nil map means that flavour was not
// requested, not that every item failed.
type StatesOutcome struct {
	Current *item.StatesMap
	Goal    *item.StatesMap
}

// StatesDiscoverBlock calls every item's try_state_current/try_state_goal:
// best-effort discovery that never surfaces a user-visible error for an
// absent dependency. Per-item errors are gathered without
// blocking peers; the block's overall outcome is produced from whatever
// succeeded.
type StatesDiscoverBlock struct {
	Graph       *graph.Graph
	Resources   *resources.Map
	ParamsSpecs *params.Specs
	MappingFns  *params.MappingFnRegistry
	Flavor      DiscoverFlavor
	ProgressCh  chan<- progress.Update
	Interrupt   progress.Interruptibility
}

func (b *StatesDiscoverBlock) Name() string { return "states-discover" }

// Exec ignores In: the block's work is driven entirely by the graph/specs
// fields set at construction, not by a value threaded through the resource
// map (unlike a typical Block, discover has no single typed "input").
func (b *StatesDiscoverBlock) Exec(ctx context.Context, _ struct{}) (StatesOutcome, cmdblock.ItemErrors, error) {
	var mu sync.Mutex
	out := StatesOutcome{}
	if b.Flavor == DiscoverCurrent || b.Flavor == DiscoverBoth {
		out.Current = item.NewStatesMap()
	}
	if b.Flavor == DiscoverGoal || b.Flavor == DiscoverBoth {
		out.Goal = item.NewStatesMap()
	}

	errs := b.Graph.ForEachConcurrent(ctx, cmdblock.MaxInFlight, func(ctx context.Context, id item.ID, rt item.RT) error {
		sender := progress.NewSender(string(id), b.ProgressCh)
		spec, ok := b.ParamsSpecs.Get(string(id))
		if !ok {
			sender.Tick("no params spec, skipped")
			return nil
		}
		partial := params.TryResolve(spec, b.Resources, string(id), spec.TypeName, b.MappingFns)
		fnCtx := item.FnCtx{ItemID: id, Progress: sender, Interrupt: b.Interrupt, Ctx: ctx}

		if out.Current != nil {
			s, err := rt.StateCurrentTryExec(fnCtx, partial, b.Resources)
			if err != nil {
				sender.Fail(err)
				return err
			}
			if s != nil {
				mu.Lock()
				out.Current.Set(id, *s)
				mu.Unlock()
			}
		}
		if out.Goal != nil {
			s, err := rt.StateGoalTryExec(fnCtx, partial, b.Resources)
			if err != nil {
				sender.Fail(err)
				return err
			}
			if s != nil {
				mu.Lock()
				out.Goal.Set(id, *s)
				mu.Unlock()
			}
		}
		sender.Tick("")
		return nil
	})

	return out, errs, nil
}
