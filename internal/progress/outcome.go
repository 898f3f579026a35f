package progress

import "github.com/hashmap-kz/peaceform/internal/orderedmap"

// Outcome holds a block's (or a whole command's) aggregated value plus any
// per-item errors encountered while producing it. A non-empty Errors map
// alongside a populated Value is the common post-condition of partial
// success: peers of a failed item still complete.
type Outcome[T any] struct {
	Value  T
	Errors *orderedmap.Map[string, error]
}

func NewOutcome[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value, Errors: orderedmap.New[string, error]()}
}

// AddError records err against itemID, preserving insertion order across
// the items that failed.
func (o *Outcome[T]) AddError(itemID string, err error) {
	if o.Errors == nil {
		o.Errors = orderedmap.New[string, error]()
	}
	o.Errors.Set(itemID, err)
}

func (o *Outcome[T]) HasErrors() bool {
	return o.Errors != nil && !o.Errors.IsEmpty()
}
