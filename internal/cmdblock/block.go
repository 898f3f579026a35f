// Package cmdblock implements the CmdBlock/CmdExecution pipeline
// pattern: a command is an ordered sequence of blocks, each consuming an
// input extracted from the resource map and producing an outcome
// reinserted into it; the resource map is the implicit channel between
// blocks.
package cmdblock

import "context"

// MaxInFlight bounds how many per-item producer tasks run concurrently
// within one block.
const MaxInFlight = 64

// Block is one stage of a CmdExecution. In is extracted from the resource
// map on entry (by removal); Outcome is reinserted on success. Exec runs
// the block's per-item work and returns the block's outcome plus an
// item-keyed error map (a non-empty map signals partial or total
// failure).
type Block[In any, Outcome any] interface {
	// Name identifies the block in logs/errors.
	Name() string
	// Exec consumes in and produces this block's outcome. errs is non-nil
	// (possibly with entries) whenever at least one item's contribution
	// failed; a populated Outcome and a non-empty errs can both be true at
	// once — partial success.
	Exec(ctx context.Context, in In) (outcome Outcome, errs ItemErrors, err error)
}

// ItemErrors is the item-keyed error aggregation every block's outcome
// carries alongside its value.
type ItemErrors interface {
	IsEmpty() bool
	Len() int
}
