package resources

import (
	"reflect"

	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// TryBorrowDynamic is TryBorrow without a compile-time type parameter: the
// params engine (internal/params) resolves ValueSpec fields by walking a
// user Params struct with reflect, so it only has a reflect.Type in hand,
// never a T it can instantiate a generic call with. Returns the borrowed
// value, a release func to call exactly once, and a BorrowFail on conflict
// or absence.
func TryBorrowDynamic(m *Map, t reflect.Type) (any, func(), *perrors.BorrowFail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[t]
	if !ok {
		return nil, nil, &perrors.BorrowFail{TypeName: t.String(), Kind: perrors.BorrowValueNotFound}
	}
	if e.kind == borrowExclusive {
		return nil, nil, &perrors.BorrowFail{TypeName: t.String(), Kind: perrors.BorrowConflictImm}
	}
	e.kind = borrowShared
	e.count++
	val := e.value
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		e, ok := m.entries[t]
		if !ok || e.kind != borrowShared {
			return
		}
		e.count--
		if e.count == 0 {
			e.kind = borrowAbsent
		}
	}
	return val, release, nil
}

// ContainsDynamic reports whether a value of the given reflect.Type is
// present, regardless of borrow state.
func ContainsDynamic(m *Map, t reflect.Type) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[t]
	return ok
}
