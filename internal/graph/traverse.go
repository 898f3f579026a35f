package graph

import (
	"context"
	"sync"

	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/orderedmap"
)

// ForEachConcurrent runs fn for every item, respecting predecessor order:
// an item's fn is only started once every predecessor's fn has returned
// (successfully or not — per-item errors never block peers). At most
// limit item functions run concurrently. The returned errors map is
// keyed by item id, in the order each item finished.
//
// This realizes "for_each_concurrent(limit, fn)" and is the traversal
// ApplyExecCmdBlock uses for Ensure (forward order).
func (g *Graph) ForEachConcurrent(ctx context.Context, limit int, fn func(ctx context.Context, id item.ID, rt item.RT) error) *orderedmap.Map[item.ID, error] {
	return g.traverse(ctx, limit, fn, false)
}

// TryForEachConcurrentRev is ForEachConcurrent in reverse: an item's fn
// only starts once every successor's fn has returned, so dependencies are
// processed after their dependents — the traversal ApplyExecCmdBlock uses
// for Clean ("dependencies must be destroyed after their
// dependents").
func (g *Graph) TryForEachConcurrentRev(ctx context.Context, limit int, fn func(ctx context.Context, id item.ID, rt item.RT) error) *orderedmap.Map[item.ID, error] {
	return g.traverse(ctx, limit, fn, true)
}

func (g *Graph) traverse(ctx context.Context, limit int, fn func(ctx context.Context, id item.ID, rt item.RT) error, reverse bool) *orderedmap.Map[item.ID, error] {
	if limit <= 0 {
		limit = 1
	}

	gates := make(map[item.ID]chan struct{}, len(g.order))
	for _, id := range g.order {
		gates[id] = make(chan struct{})
	}

	waitFor := g.preds
	if reverse {
		waitFor = g.succs
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	errs := orderedmap.New[item.ID, error]()

	for _, id := range g.order {
		id := id
		rt := g.nodes[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, dep := range waitFor[id] {
				<-gates[dep]
			}

			select {
			case <-ctx.Done():
				mu.Lock()
				errs.Set(id, ctx.Err())
				mu.Unlock()
				close(gates[id])
				return
			case sem <- struct{}{}:
			}
			err := fn(ctx, id, rt)
			<-sem

			if err != nil {
				mu.Lock()
				errs.Set(id, err)
				mu.Unlock()
			}
			close(gates[id])
		}()
	}

	wg.Wait()
	return errs
}
