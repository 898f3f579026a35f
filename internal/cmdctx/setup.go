package cmdctx

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// setupConcurrencyLimit bounds how many item setup calls run
// concurrently.
const setupConcurrencyLimit = 64

// setupGraph runs every item's Setup concurrently: on success the
// resource map transitions from empty to set up. Any item failure aborts
// the command build.
func setupGraph(ctx context.Context, g *graph.Graph, res *resources.Map) error {
	errs := g.ForEachConcurrent(ctx, setupConcurrencyLimit, func(ctx context.Context, id item.ID, rt item.RT) error {
		return rt.Setup(ctx, res)
	})
	if errs.IsEmpty() {
		return nil
	}
	ids := errs.Keys()
	first, _ := errs.Get(ids[0])
	return fmt.Errorf("cmdctx: setup failed for item %q (and %d other item(s)): %w", ids[0], len(ids)-1, first)
}
