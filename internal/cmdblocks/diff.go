package cmdblocks

import (
	"context"

	"github.com/hashmap-kz/peaceform/internal/cmdblock"
	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/orderedmap"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// DiffOutcome is DiffCmdBlock's outcome: one entry per item in the graph,
// a StateDiff or nil where the item is missing from either state map or
// its params cannot be resolved. States of ids outside the graph get no
// entry.
type DiffOutcome struct {
	Diffs *item.StateDiffsMap
}

// DiffCmdBlock produces StateDiffs by pairing two state maps, either two
// on-disk snapshots or current-vs-goal. Items missing from
// either side are recorded as a nil diff, not an error.
type DiffCmdBlock struct {
	Graph       *graph.Graph
	Resources   *resources.Map
	ParamsSpecs *params.Specs
	MappingFns  *params.MappingFnRegistry
	A, B        *item.StatesMap
}

func (b *DiffCmdBlock) Name() string { return "diff" }

func (b *DiffCmdBlock) Exec(_ context.Context, _ struct{}) (DiffOutcome, cmdblock.ItemErrors, error) {
	diffs := item.NewStateDiffsMap()

	ids := b.Graph.InsertionOrder()
	errs := orderedmap.New[item.ID, error]()
	for _, id := range ids {
		a, hasA := b.A.Get(id)
		bb, hasB := b.B.Get(id)
		if !hasA || !hasB {
			diffs.Set(id, nil)
			continue
		}

		rt, ok := b.Graph.Item(id)
		if !ok {
			continue
		}
		spec, ok := b.ParamsSpecs.Get(string(id))
		if !ok {
			diffs.Set(id, nil)
			continue
		}
		partial := params.TryResolve(spec, b.Resources, string(id), spec.TypeName, b.MappingFns)
		if partial == nil {
			diffs.Set(id, nil)
			continue
		}

		d, err := rt.StateDiffExec(partial, b.Resources, a, bb)
		if err != nil {
			errs.Set(id, err)
			continue
		}
		diffs.Set(id, d)
	}

	return DiffOutcome{Diffs: diffs}, errs, nil
}
