package cmdblocks

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

type counterState struct{ N int }

func (c counterState) String() string { return fmt.Sprintf("counter(%d)", c.N) }
func (c counterState) Equal(other item.State) bool {
	o, ok := other.(counterState)
	return ok && o.N == c.N
}

type counterDiff struct{ delta int }

func (d counterDiff) String() string { return fmt.Sprintf("%+d", d.delta) }
func (d counterDiff) Changed() bool  { return d.delta != 0 }

type counterParams struct{ Goal int }
type counterPartial struct{ Goal *int }

type counterItem struct {
	id      item.ID
	current int
}

func (c counterItem) ID() item.ID { return c.id }
func (c counterItem) Setup(ctx context.Context, res *resources.Map) error { return nil }
func (c counterItem) StateExample(p counterParams, d *resources.Map) counterState {
	return counterState{N: p.Goal}
}
func (c counterItem) TryStateCurrent(fnCtx item.FnCtx, p counterPartial, d *resources.Map) (*counterState, error) {
	s := counterState{N: c.current}
	return &s, nil
}
func (c counterItem) StateCurrent(fnCtx item.FnCtx, p counterParams, d *resources.Map) (counterState, error) {
	return counterState{N: c.current}, nil
}
func (c counterItem) TryStateGoal(fnCtx item.FnCtx, p counterPartial, d *resources.Map) (*counterState, error) {
	if p.Goal == nil {
		return nil, nil
	}
	s := counterState{N: *p.Goal}
	return &s, nil
}
func (c counterItem) StateGoal(fnCtx item.FnCtx, p counterParams, d *resources.Map) (counterState, error) {
	return counterState{N: p.Goal}, nil
}
func (c counterItem) StateDiff(p counterPartial, d *resources.Map, a, b counterState) (item.StateDiff, error) {
	return counterDiff{delta: b.N - a.N}, nil
}
func (c counterItem) StateClean(p counterPartial, d *resources.Map) (counterState, error) {
	return counterState{N: 0}, nil
}
func (c counterItem) ApplyCheck(p counterParams, d *resources.Map, current, target counterState, diff item.StateDiff) (item.ApplyCheck, error) {
	if !diff.Changed() {
		return item.NotRequired(), nil
	}
	return item.Required(progress.Limit{Kind: progress.LimitTicks, Value: uint64(diff.(counterDiff).delta)}), nil
}
func (c counterItem) ApplyDry(fnCtx item.FnCtx, p counterParams, d *resources.Map, current, target counterState, diff item.StateDiff) (counterState, error) {
	return target, nil
}
func (c counterItem) Apply(fnCtx item.FnCtx, p counterParams, d *resources.Map, current, target counterState, diff item.StateDiff) (counterState, error) {
	return target, nil
}

func newTestGraph(t *testing.T, curr int) (*graph.Graph, *params.Specs) {
	t.Helper()
	g := graph.New()
	id, err := item.NewID("counter")
	require.NoError(t, err)
	rt := item.Erase[counterParams, counterPartial, counterState, *resources.Map](
		counterItem{id: id, current: curr}, "counter", func() counterState { return counterState{} })
	require.NoError(t, g.AddItem(rt))

	specs := params.NewSpecs()
	spec, err := params.SpecOf("counter", reflect.TypeOf(counterParams{}))
	require.NoError(t, err)
	spec = spec.WithValue("Goal", 5)
	specs.Set(string(id), spec)
	return g, specs
}

func TestStatesDiscoverBlockCollectsBothFlavors(t *testing.T) {
	g, specs := newTestGraph(t, 2)
	block := &StatesDiscoverBlock{
		Graph:       g,
		Resources:   resources.New(),
		ParamsSpecs: specs,
		MappingFns:  params.NewMappingFnRegistry(),
		Flavor:      DiscoverBoth,
	}

	out, errs, err := block.Exec(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())
	require.Equal(t, 1, out.Current.Len())
	require.Equal(t, 1, out.Goal.Len())

	id, _ := item.NewID("counter")
	cur, _ := out.Current.Get(id)
	assert.Equal(t, counterState{N: 2}, cur.Value)
	goal, _ := out.Goal.Get(id)
	assert.Equal(t, counterState{N: 5}, goal.Value)
}

func TestDiffCmdBlockSkipsItemsOutsideGraph(t *testing.T) {
	g, specs := newTestGraph(t, 2)
	id, _ := item.NewID("counter")
	other, _ := item.NewID("ghost")

	a := item.NewStatesMap()
	a.Set(id, item.Box("counter", counterState{N: 2}))
	a.Set(other, item.Box("counter", counterState{N: 0}))

	b := item.NewStatesMap()
	b.Set(id, item.Box("counter", counterState{N: 5}))

	block := &DiffCmdBlock{
		Graph:       g,
		Resources:   resources.New(),
		ParamsSpecs: specs,
		MappingFns:  params.NewMappingFnRegistry(),
		A:           a,
		B:           b,
	}

	out, errs, err := block.Exec(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())

	diff, ok := out.Diffs.Get(id)
	require.True(t, ok)
	require.NotNil(t, diff)
	assert.True(t, diff.Changed())

	_, ok = out.Diffs.Get(other)
	assert.False(t, ok)
}

func TestApplyExecCmdBlockEnsureSkipsWhenNoDiff(t *testing.T) {
	g, specs := newTestGraph(t, 5) // current already equals goal (5)
	block := &ApplyExecCmdBlock{
		Graph:       g,
		Resources:   resources.New(),
		ParamsSpecs: specs,
		MappingFns:  params.NewMappingFnRegistry(),
		Ts:          StatesTs{ApplyFor: ApplyForEnsure},
	}

	out, errs, err := block.Exec(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())

	id, _ := item.NewID("counter")
	applied, ok := out.StatesApplied.Get(id)
	require.True(t, ok)
	assert.Equal(t, counterState{N: 5}, applied.Value)
}

func TestApplyExecCmdBlockEnsureAppliesWhenDiffPresent(t *testing.T) {
	g, specs := newTestGraph(t, 0) // current 0, goal 5: diff present
	block := &ApplyExecCmdBlock{
		Graph:       g,
		Resources:   resources.New(),
		ParamsSpecs: specs,
		MappingFns:  params.NewMappingFnRegistry(),
		Ts:          StatesTs{ApplyFor: ApplyForEnsure},
	}

	out, errs, err := block.Exec(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())

	id, _ := item.NewID("counter")
	applied, ok := out.StatesApplied.Get(id)
	require.True(t, ok)
	assert.Equal(t, counterState{N: 5}, applied.Value)
	goal, ok := out.StatesGoal.Get(id)
	require.True(t, ok)
	assert.Equal(t, counterState{N: 5}, goal.Value)
}
