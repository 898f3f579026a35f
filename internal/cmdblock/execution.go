package cmdblock

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/peaceform/internal/resources"
)

// Runner adapts a typed Block to the resource-map-as-channel calling
// convention Execution drives: it removes its input from res (by type),
// runs, and reinserts its outcome.
type Runner func(ctx context.Context, res *resources.Map) (ItemErrors, error)

// Wrap adapts a Block[In, Outcome] to a Runner: In is removed from res by
// type on entry, Outcome is inserted back on success.
func Wrap[In any, Outcome any](b Block[In, Outcome]) Runner {
	return func(ctx context.Context, res *resources.Map) (ItemErrors, error) {
		in, ok := resources.Remove[In](res)
		if !ok {
			var zero In
			in = zero
		}
		outcome, errs, err := b.Exec(ctx, in)
		if err != nil {
			return errs, fmt.Errorf("cmdblock: %s: %w", b.Name(), err)
		}
		resources.Insert(res, outcome)
		return errs, nil
	}
}

// Execution is an ordered composition of blocks ("An ordered
// composition of blocks. Between blocks, the resource map is the implicit
// channel"). AbortOnError defaults to true: the pipeline stops at the
// first block whose outcome carries a non-empty error map.
type Execution struct {
	Blocks       []Runner
	Names        []string
	AbortOnError bool
}

// NewExecution builds an Execution with AbortOnError true, 's
// default execution mode.
func NewExecution() *Execution {
	return &Execution{AbortOnError: true}
}

// Then appends a named block runner.
func (e *Execution) Then(name string, r Runner) *Execution {
	e.Blocks = append(e.Blocks, r)
	e.Names = append(e.Names, name)
	return e
}

// Result is one block's outcome within a Run.
type Result struct {
	Name string
	Errs ItemErrors
}

// Run executes every block in order against res. It returns the per-block
// results accumulated so far and the first hard error (a block-level
// failure distinct from item-level errors, e.g. a resolution or I/O
// failure). If AbortOnError is set, traversal stops at the first block
// producing a non-empty item error map; otherwise later blocks still run
// with whatever outcome was assembled.
func (e *Execution) Run(ctx context.Context, res *resources.Map) ([]Result, error) {
	results := make([]Result, 0, len(e.Blocks))
	for i, block := range e.Blocks {
		name := e.Names[i]
		errs, err := block(ctx, res)
		if err != nil {
			return results, err
		}
		results = append(results, Result{Name: name, Errs: errs})
		if e.AbortOnError && errs != nil && !errs.IsEmpty() {
			break
		}
	}
	return results, nil
}
