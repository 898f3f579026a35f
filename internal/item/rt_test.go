package item

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

type counterState struct{ N int }

func (c counterState) String() string { return fmt.Sprintf("counter(%d)", c.N) }
func (c counterState) Equal(other State) bool {
	o, ok := other.(counterState)
	return ok && o.N == c.N
}

type counterDiff struct{ delta int }

func (d counterDiff) String() string  { return fmt.Sprintf("%+d", d.delta) }
func (d counterDiff) Changed() bool   { return d.delta != 0 }

type counterParams struct{ Goal int }
type counterPartial struct{ Goal *int }
type counterData struct{}

type counterItem struct{ id ID }

func (c counterItem) ID() ID { return c.id }
func (c counterItem) Setup(ctx context.Context, res *resources.Map) error { return nil }
func (c counterItem) StateExample(params counterParams, data counterData) counterState {
	return counterState{N: params.Goal}
}
func (c counterItem) TryStateCurrent(fnCtx FnCtx, params counterPartial, data counterData) (*counterState, error) {
	s := counterState{N: 0}
	return &s, nil
}
func (c counterItem) StateCurrent(fnCtx FnCtx, params counterParams, data counterData) (counterState, error) {
	return counterState{N: 0}, nil
}
func (c counterItem) TryStateGoal(fnCtx FnCtx, params counterPartial, data counterData) (*counterState, error) {
	if params.Goal == nil {
		return nil, nil
	}
	s := counterState{N: *params.Goal}
	return &s, nil
}
func (c counterItem) StateGoal(fnCtx FnCtx, params counterParams, data counterData) (counterState, error) {
	return counterState{N: params.Goal}, nil
}
func (c counterItem) StateDiff(params counterPartial, data counterData, a, b counterState) (StateDiff, error) {
	return counterDiff{delta: b.N - a.N}, nil
}
func (c counterItem) StateClean(params counterPartial, data counterData) (counterState, error) {
	return counterState{N: 0}, nil
}
func (c counterItem) ApplyCheck(params counterParams, data counterData, current, target counterState, diff StateDiff) (ApplyCheck, error) {
	d := diff.(counterDiff)
	if !d.Changed() {
		return NotRequired(), nil
	}
	return Required(progress.Limit{Kind: progress.LimitTicks, Value: uint64(d.delta)}), nil
}
func (c counterItem) ApplyDry(fnCtx FnCtx, params counterParams, data counterData, current, target counterState, diff StateDiff) (counterState, error) {
	return target, nil
}
func (c counterItem) Apply(fnCtx FnCtx, params counterParams, data counterData, current, target counterState, diff StateDiff) (counterState, error) {
	return target, nil
}

func TestErasedRoundTrip(t *testing.T) {
	id, err := NewID("counter")
	require.NoError(t, err)
	rt := Erase[counterParams, counterPartial, counterState, counterData](counterItem{id: id}, "counter", func() counterState { return counterState{} })

	current, err := rt.StateCurrentExec(FnCtx{ItemID: id}, counterParams{Goal: 5}, counterData{})
	require.NoError(t, err)
	goal, err := rt.StateGoalExec(FnCtx{ItemID: id}, counterParams{Goal: 5}, counterData{})
	require.NoError(t, err)

	diff, err := rt.StateDiffExec(counterPartial{}, counterData{}, current, goal)
	require.NoError(t, err)
	assert.True(t, diff.Changed())

	check, err := rt.ApplyCheckExec(counterParams{Goal: 5}, counterData{}, current, goal, diff)
	require.NoError(t, err)
	assert.Equal(t, ExecRequired, check.Kind)

	applied, err := rt.ApplyExec(FnCtx{ItemID: id}, counterParams{Goal: 5}, counterData{}, current, goal, diff)
	require.NoError(t, err)
	assert.Equal(t, counterState{N: 5}, applied.Value)
}

func TestBoxedStateEqualTypeMismatchIsFrameworkBug(t *testing.T) {
	a := Box("counter", counterState{N: 1})
	b := Box("other", counterState{N: 1})

	_, err := a.Equal(b)
	require.Error(t, err)
	var bug *perrors.ErrFrameworkBug
	require.ErrorAs(t, err, &bug)
}

func TestApplyCheckNotRequiredWhenNoDiff(t *testing.T) {
	id, err := NewID("counter")
	require.NoError(t, err)
	rt := Erase[counterParams, counterPartial, counterState, counterData](counterItem{id: id}, "counter", func() counterState { return counterState{} })

	current, err := rt.StateCurrentExec(FnCtx{ItemID: id}, counterParams{Goal: 3}, counterData{})
	require.NoError(t, err)
	goalSame := Box("counter", counterState{N: 0})

	diff, err := rt.StateDiffExec(counterPartial{}, counterData{}, current, goalSame)
	require.NoError(t, err)
	assert.False(t, diff.Changed())

	check, err := rt.ApplyCheckExec(counterParams{Goal: 0}, counterData{}, current, goalSame, diff)
	require.NoError(t, err)
	assert.Equal(t, ExecNotRequired, check.Kind)
}
