package item

import "github.com/hashmap-kz/peaceform/internal/orderedmap"

// StatesMap is the ordered ItemID -> BoxedState mapping backing
// states_current.yaml / states_goal.yaml and every intermediate states
// snapshot the engine produces.
type StatesMap = orderedmap.Map[ID, BoxedState]

func NewStatesMap() *StatesMap { return orderedmap.New[ID, BoxedState]() }

// StateDiffsMap is the ordered ItemID -> StateDiff mapping produced by
// DiffCmdBlock. A nil StateDiff entry means the item was missing from one
// side of the comparison.
type StateDiffsMap = orderedmap.Map[ID, StateDiff]

func NewStateDiffsMap() *StateDiffsMap { return orderedmap.New[ID, StateDiff]() }
