// Package progress implements per-item progress reporting, the
// cooperative interruption signal, and item-keyed outcome accumulation.
package progress

import "fmt"

// Limit describes the unit an item's apply work is measured in; apply_check
// reports it together with ExecRequired, and it sizes the progress bar.
type LimitKind int

const (
	LimitTicks LimitKind = iota
	LimitBytes
	LimitUnknown
)

type Limit struct {
	Kind  LimitKind
	Value uint64 // meaningless when Kind == LimitUnknown
}

// UpdateKind enumerates the progress events a Sender can emit.
type UpdateKind int

const (
	UpdateLimit UpdateKind = iota
	UpdateTick
	UpdateInc
	UpdateFail
	UpdateComplete
)

// Update is one progress event, tagged with the item it came from so a
// presenter can multiplex many items' progress onto one view.
type Update struct {
	Kind    UpdateKind
	ItemID  string
	Message string
	Delta   uint64
	Limit   Limit
}

// Sender is a per-item handle onto a bounded progress channel. Sends never
// block: on a full channel, the update is dropped, never the outcome.
type Sender struct {
	itemID string
	ch     chan<- Update
}

// NewSender wraps ch for a specific item. A nil channel makes every send a
// no-op, which is convenient for tests and for state_example previews that
// never want progress output.
func NewSender(itemID string, ch chan<- Update) Sender {
	return Sender{itemID: itemID, ch: ch}
}

func (s Sender) send(u Update) {
	if s.ch == nil {
		return
	}
	u.ItemID = s.itemID
	select {
	case s.ch <- u:
	default:
		// bounded channel full: drop the update, never block the item.
	}
}

// SetLimit publishes the progress_limit computed by apply_check before the
// first tick.
func (s Sender) SetLimit(l Limit) {
	s.send(Update{Kind: UpdateLimit, Limit: l})
}

// Tick reports one unit of progress with an optional message.
func (s Sender) Tick(msg string) {
	s.send(Update{Kind: UpdateTick, Delta: 1, Message: msg})
}

// Inc reports n units of progress with an optional message.
func (s Sender) Inc(n uint64, msg string) {
	s.send(Update{Kind: UpdateInc, Delta: n, Message: msg})
}

// Fail reports a terminal failure for this item, carrying the rendered
// error message ("one Fail on error with the rendered error
// message").
func (s Sender) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.send(Update{Kind: UpdateFail, Message: msg})
}

// Complete reports this item's block-terminal success.
func (s Sender) Complete() {
	s.send(Update{Kind: UpdateComplete})
}

func (u Update) String() string {
	switch u.Kind {
	case UpdateLimit:
		return fmt.Sprintf("[%s] limit=%v", u.ItemID, u.Limit)
	case UpdateTick, UpdateInc:
		return fmt.Sprintf("[%s] +%d %s", u.ItemID, u.Delta, u.Message)
	case UpdateFail:
		return fmt.Sprintf("[%s] failed: %s", u.ItemID, u.Message)
	case UpdateComplete:
		return fmt.Sprintf("[%s] done", u.ItemID)
	default:
		return fmt.Sprintf("[%s] update", u.ItemID)
	}
}
