package cmd

import (
	"fmt"
	"io"

	"github.com/aquasecurity/table"

	"github.com/hashmap-kz/peaceform/internal/cmdblock"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/progress"
)

// newTable builds a table in the style cmd/apply.go's plain fmt.Println
// output never had: one shared rendering convention for every
// subcommand's tabular output.
func newTable(w io.Writer, headers ...string) *table.Table {
	t := table.New(w)
	t.SetHeaders(headers...)
	return t
}

// renderStates prints one row per item for a StatesMap (current or goal).
func renderStates(w io.Writer, title string, states *item.StatesMap) {
	fmt.Fprintln(w, title)
	t := newTable(w, "item", "state")
	for _, id := range states.Keys() {
		s, _ := states.Get(id)
		t.AddRow(string(id), s.String())
	}
	t.Render()
}

// renderDiffs prints one row per item for a StateDiffsMap.
func renderDiffs(w io.Writer, diffs *item.StateDiffsMap) {
	t := newTable(w, "item", "diff")
	for _, id := range diffs.Keys() {
		d, _ := diffs.Get(id)
		if d == nil {
			t.AddRow(string(id), "(missing on one side)")
			continue
		}
		t.AddRow(string(id), d.String())
	}
	t.Render()
}

// renderOutcome prints the final per-item state and, if any, the errors a
// cmdblock.ItemErrors-bearing block reported.
func renderOutcome(w io.Writer, applied *item.StatesMap, errs cmdblock.ItemErrors) {
	t := newTable(w, "item", "result")
	for _, id := range applied.Keys() {
		s, _ := applied.Get(id)
		t.AddRow(string(id), s.String())
	}
	t.Render()

	if errs == nil || errs.IsEmpty() {
		return
	}
	fmt.Fprintf(w, "%d item(s) failed:\n", errs.Len())
	if errMap, ok := errs.(interface {
		Keys() []item.ID
		Get(item.ID) (error, bool)
	}); ok {
		for _, id := range errMap.Keys() {
			if e, ok := errMap.Get(id); ok {
				fmt.Fprintf(w, "  %s: %v\n", id, e)
			}
		}
	}
}

// streamProgress drains ch until it is closed, printing one line per
// update — the CLI's replacement for cmd/apply.go's ad hoc fmt.Printf
// status lines.
func streamProgress(w io.Writer, ch <-chan progress.Update) {
	for u := range ch {
		if u.Kind == progress.UpdateLimit {
			continue
		}
		fmt.Fprintln(w, u.String())
	}
}
