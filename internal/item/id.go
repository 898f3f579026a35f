package item

import (
	"fmt"
	"regexp"
)

// idPattern matches ItemID is syntactically
// `[A-Za-z_][A-Za-z0-9_]*`, unique within a flow, never mutated.
var idPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ID is an opaque item identifier.
type ID string

// NewID validates name against the ItemID lexical form. Where an id is
// known at compile time, prefer declaring it as a package-level ID
// constant (e.g. `const IDMock ID = "mock"`) — Go has no macro-time
// validation, so NewID is the runtime equivalent of the source's
// `item_id!` compile-time check.
func NewID(name string) (ID, error) {
	if !idPattern.MatchString(name) {
		return "", fmt.Errorf("item: invalid item id %q: must match %s", name, idPattern.String())
	}
	return ID(name), nil
}

func (i ID) String() string { return string(i) }
