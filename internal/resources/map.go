// Package resources implements the per-command resource map: a
// type-indexed heterogeneous store with interior borrow tracking. Items
// declare their dependencies as a typed Data struct; the engine borrows
// exactly the types that struct's fields name while executing the item,
// and the map enforces the aliasing discipline at runtime rather than
// letting it deadlock.
package resources

import (
	"reflect"
	"sync"

	"github.com/hashmap-kz/peaceform/internal/perrors"
)

// Phase is the map's type-state tag. PhaseEmpty is the state during
// command-context build, before every item's Setup has run; MarkSetUp
// moves the map to PhaseSetUp. The tag is informational: no accessor
// checks it, and a Map in either phase can be passed to item functions.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseSetUp
)

type borrowKind int

const (
	borrowAbsent borrowKind = iota
	borrowShared
	borrowExclusive
)

type entry struct {
	value any
	kind  borrowKind
	count int // number of outstanding shared borrows
}

// Map is the per-command resource store. Build one with New: the zero
// value has no entry table, and Insert on it panics.
type Map struct {
	mu      sync.Mutex
	entries map[reflect.Type]*entry
	phase   Phase
}

// New returns an empty Map in PhaseEmpty.
func New() *Map {
	return &Map{entries: make(map[reflect.Type]*entry)}
}

// Phase reports the map's current type-state tag.
func (m *Map) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// MarkSetUp transitions the map Empty -> SetUp. Called once, after every
// item's Setup has inserted its declared resources.
func (m *Map) MarkSetUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseSetUp
}

func typeOf[T any]() reflect.Type {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return t
}

// Insert stores a value of type T, overwriting any existing value of that
// type. Insertion does not check borrow state: callers are expected to
// insert before any borrow is outstanding (setup time).
func Insert[T any](m *Map, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[typeOf[T]()] = &entry{value: v, kind: borrowAbsent}
}

// Contains reports whether a value of type T is present, regardless of
// borrow state.
func Contains[T any](m *Map) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[typeOf[T]()]
	return ok
}

// Remove deletes and returns the value of type T, if present. It fails
// silently (returns false) if the slot is currently borrowed, matching the
// Rust `Resources::remove` behaviour of panicking only on an active
// borrow; here this module returns ok=false instead since the Go port has
// no panic-as-contract idiom for this case.
func Remove[T any](m *Map) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	e, ok := m.entries[typeOf[T]()]
	if !ok || e.kind != borrowAbsent {
		return zero, false
	}
	delete(m.entries, typeOf[T]())
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Ref is a shared borrow handle. Release must be called exactly once.
type Ref[T any] struct {
	m   *Map
	typ reflect.Type
	val T
}

func (r Ref[T]) Get() T { return r.val }

func (r Ref[T]) Release() {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.entries[r.typ]
	if !ok || e.kind != borrowShared {
		return
	}
	e.count--
	if e.count == 0 {
		e.kind = borrowAbsent
	}
}

// RefMut is an exclusive borrow handle. Release must be called exactly
// once.
type RefMut[T any] struct {
	m   *Map
	typ reflect.Type
}

func (r RefMut[T]) Get() T {
	e := r.m.entries[r.typ]
	return e.value.(T)
}

func (r RefMut[T]) Set(v T) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e := r.m.entries[r.typ]
	e.value = v
}

func (r RefMut[T]) Release() {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.entries[r.typ]
	if !ok || e.kind != borrowExclusive {
		return
	}
	e.kind = borrowAbsent
}

// TryBorrow attempts a shared borrow of type T, returning a BorrowFail
// (never blocking) on conflict or absence.
func TryBorrow[T any](m *Map) (Ref[T], *perrors.BorrowFail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	typ := typeOf[T]()
	e, ok := m.entries[typ]
	if !ok {
		return Ref[T]{}, &perrors.BorrowFail{TypeName: typ.String(), Kind: perrors.BorrowValueNotFound}
	}
	if e.kind == borrowExclusive {
		return Ref[T]{}, &perrors.BorrowFail{TypeName: typ.String(), Kind: perrors.BorrowConflictImm}
	}
	v, ok := e.value.(T)
	if !ok {
		return Ref[T]{}, &perrors.BorrowFail{TypeName: typ.String(), Kind: perrors.BorrowValueNotFound}
	}
	e.kind = borrowShared
	e.count++
	return Ref[T]{m: m, typ: typ, val: v}, nil
}

// Borrow is TryBorrow but panics on failure; reserved for call sites that
// have already established the value must be present (e.g. immediately
// after Insert within the same critical section).
func Borrow[T any](m *Map) Ref[T] {
	r, err := TryBorrow[T](m)
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrowMut attempts an exclusive borrow of type T.
func TryBorrowMut[T any](m *Map) (RefMut[T], *perrors.BorrowFail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	typ := typeOf[T]()
	e, ok := m.entries[typ]
	if !ok {
		return RefMut[T]{}, &perrors.BorrowFail{TypeName: typ.String(), Kind: perrors.BorrowValueNotFound}
	}
	if e.kind != borrowAbsent {
		return RefMut[T]{}, &perrors.BorrowFail{TypeName: typ.String(), Kind: perrors.BorrowConflictMut}
	}
	e.kind = borrowExclusive
	return RefMut[T]{m: m, typ: typ}, nil
}

func BorrowMut[T any](m *Map) RefMut[T] {
	r, err := TryBorrowMut[T](m)
	if err != nil {
		panic(err)
	}
	return r
}
