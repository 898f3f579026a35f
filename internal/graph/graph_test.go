package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

type noopState struct{}

func (noopState) String() string               { return "noop" }
func (noopState) Equal(other item.State) bool   { _, ok := other.(noopState); return ok }

type noopDiff struct{}

func (noopDiff) String() string  { return "" }
func (noopDiff) Changed() bool   { return false }

type noopParams struct{}
type noopPartial struct{}
type noopData struct{}

type noopItem struct{ id item.ID }

func (n noopItem) ID() item.ID { return n.id }
func (n noopItem) Setup(ctx context.Context, res *resources.Map) error { return nil }
func (n noopItem) StateExample(params noopParams, data noopData) noopState { return noopState{} }
func (n noopItem) TryStateCurrent(fnCtx item.FnCtx, params noopPartial, data noopData) (*noopState, error) {
	s := noopState{}
	return &s, nil
}
func (n noopItem) StateCurrent(fnCtx item.FnCtx, params noopParams, data noopData) (noopState, error) {
	return noopState{}, nil
}
func (n noopItem) TryStateGoal(fnCtx item.FnCtx, params noopPartial, data noopData) (*noopState, error) {
	s := noopState{}
	return &s, nil
}
func (n noopItem) StateGoal(fnCtx item.FnCtx, params noopParams, data noopData) (noopState, error) {
	return noopState{}, nil
}
func (n noopItem) StateDiff(params noopPartial, data noopData, a, b noopState) (item.StateDiff, error) {
	return noopDiff{}, nil
}
func (n noopItem) StateClean(params noopPartial, data noopData) (noopState, error) { return noopState{}, nil }
func (n noopItem) ApplyCheck(params noopParams, data noopData, current, target noopState, diff item.StateDiff) (item.ApplyCheck, error) {
	return item.NotRequired(), nil
}
func (n noopItem) ApplyDry(fnCtx item.FnCtx, params noopParams, data noopData, current, target noopState, diff item.StateDiff) (noopState, error) {
	return target, nil
}
func (n noopItem) Apply(fnCtx item.FnCtx, params noopParams, data noopData, current, target noopState, diff item.StateDiff) (noopState, error) {
	return target, nil
}

func newRT(name string) item.RT {
	id, err := item.NewID(name)
	if err != nil {
		panic(fmt.Sprintf("bad test id %q: %v", name, err))
	}
	return item.Erase[noopParams, noopPartial, noopState, noopData](noopItem{id: id}, name, func() noopState { return noopState{} })
}

func TestAddEdgeDetectsCycle(t *testing.T) {
	g := New()
	require.NoError(t, g.AddItem(newRT("a")))
	require.NoError(t, g.AddItem(newRT("b")))

	idA, _ := item.NewID("a")
	idB, _ := item.NewID("b")
	require.NoError(t, g.AddEdge(idA, idB))

	err := g.AddEdge(idB, idA)
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestInsertionOrderPreserved(t *testing.T) {
	g := New()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddItem(newRT(name)))
	}
	order := g.InsertionOrder()
	assert.Equal(t, []item.ID{"c", "a", "b"}, order)
}

func TestForEachConcurrentRespectsPredecessors(t *testing.T) {
	g := New()
	require.NoError(t, g.AddItem(newRT("a")))
	require.NoError(t, g.AddItem(newRT("b")))
	idA, _ := item.NewID("a")
	idB, _ := item.NewID("b")
	require.NoError(t, g.AddEdge(idA, idB))

	var mu sync.Mutex
	var completed []item.ID

	errs := g.ForEachConcurrent(context.Background(), 4, func(ctx context.Context, id item.ID, rt item.RT) error {
		mu.Lock()
		completed = append(completed, id)
		mu.Unlock()
		return nil
	})

	assert.True(t, errs.IsEmpty())
	require.Len(t, completed, 2)
	assert.Equal(t, idA, completed[0])
	assert.Equal(t, idB, completed[1])
}

func TestForEachConcurrentCoversEveryNode(t *testing.T) {
	g := New()
	ids := []string{"a", "b", "c", "d"}
	for _, name := range ids {
		require.NoError(t, g.AddItem(newRT(name)))
	}

	var mu sync.Mutex
	seen := map[item.ID]bool{}
	errs := g.ForEachConcurrent(context.Background(), 2, func(ctx context.Context, id item.ID, rt item.RT) error {
		mu.Lock()
		seen[id] = true
		mu.Unlock()
		return nil
	})
	assert.True(t, errs.IsEmpty())
	assert.Len(t, seen, len(ids))
}

func TestForEachConcurrentCollectsPerItemErrorsWithoutBlockingPeers(t *testing.T) {
	g := New()
	require.NoError(t, g.AddItem(newRT("a")))
	require.NoError(t, g.AddItem(newRT("b")))

	boom := fmt.Errorf("boom")
	errs := g.ForEachConcurrent(context.Background(), 4, func(ctx context.Context, id item.ID, rt item.RT) error {
		if id == "a" {
			return boom
		}
		return nil
	})

	aErr, ok := errs.Get("a")
	require.True(t, ok)
	assert.Equal(t, boom, aErr)
	_, bHasErr := errs.Get("b")
	assert.False(t, bHasErr)
}

func TestTryForEachConcurrentRevRunsDependentsFirst(t *testing.T) {
	g := New()
	require.NoError(t, g.AddItem(newRT("a")))
	require.NoError(t, g.AddItem(newRT("b")))
	idA, _ := item.NewID("a")
	idB, _ := item.NewID("b")
	require.NoError(t, g.AddEdge(idA, idB)) // a before b (ensure order)

	var mu sync.Mutex
	var completed []item.ID
	errs := g.TryForEachConcurrentRev(context.Background(), 4, func(ctx context.Context, id item.ID, rt item.RT) error {
		mu.Lock()
		completed = append(completed, id)
		mu.Unlock()
		return nil
	})
	assert.True(t, errs.IsEmpty())
	require.Len(t, completed, 2)
	// reverse: dependents (b) clean before dependencies (a)
	assert.Equal(t, idB, completed[0])
	assert.Equal(t, idA, completed[1])
}
