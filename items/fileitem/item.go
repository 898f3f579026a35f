package fileitem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// Item is the file item, grounded
// on file_download_apply_fns.rs's state/diff/apply_check shape. Its Data
// (D) is the whole *resources.Map rather than a narrower typed slice:
// cmdblocks always hands an item's functions the command's resource map
// directly (internal/cmdblocks/apply.go's prepare), and fileitem borrows
// nothing from it — the local filesystem needs no shared client handle.
type Item struct {
	id item.ID
}

// TypeName is the tag this item type registers its State under in
// states_current.yaml/states_goal.yaml and params specs.
const TypeName = "file"

// New returns a file item with the given item id.
func New(id item.ID) *Item { return &Item{id: id} }

// Erase adapts a file item straight to the engine's erased RT, the form
// internal/cmdctx's builder and internal/cmdblocks actually consume.
func Erase(id item.ID) item.RT {
	return item.Erase[Params, Partial, State, *resources.Map](New(id), TypeName, func() State { return State{} })
}

func (it *Item) ID() item.ID { return it.id }

func (it *Item) Setup(_ context.Context, _ *resources.Map) error { return nil }

func (it *Item) StateExample(p Params, _ *resources.Map) State {
	sum, size := hashContents(p.Contents)
	return State{Path: p.Dest, Present: true, SHA256: sum, Size: size}
}

func readState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{Path: path}, nil
		}
		return State{}, fmt.Errorf("fileitem: reading %s: %w", path, err)
	}
	sum, size := hashContents(string(data))
	return State{Path: path, Present: true, SHA256: sum, Size: size}, nil
}

func (it *Item) TryStateCurrent(_ item.FnCtx, pp Partial, _ *resources.Map) (*State, error) {
	if pp.Dest == nil {
		return nil, nil
	}
	s, err := readState(*pp.Dest)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (it *Item) StateCurrent(_ item.FnCtx, p Params, _ *resources.Map) (State, error) {
	return readState(p.Dest)
}

func (it *Item) TryStateGoal(_ item.FnCtx, pp Partial, _ *resources.Map) (*State, error) {
	if pp.Dest == nil || pp.Contents == nil {
		return nil, nil
	}
	sum, size := hashContents(*pp.Contents)
	s := State{Path: *pp.Dest, Present: true, SHA256: sum, Size: size}
	return &s, nil
}

func (it *Item) StateGoal(_ item.FnCtx, p Params, _ *resources.Map) (State, error) {
	sum, size := hashContents(p.Contents)
	return State{Path: p.Dest, Present: true, SHA256: sum, Size: size}, nil
}

func (it *Item) StateDiff(_ Partial, _ *resources.Map, a, b State) (item.StateDiff, error) {
	return diffStates(a, b), nil
}

func (it *Item) StateClean(pp Partial, _ *resources.Map) (State, error) {
	path := ""
	if pp.Dest != nil {
		path = *pp.Dest
	}
	return State{Path: path, Present: false}, nil
}

func (it *Item) ApplyCheck(_ Params, _ *resources.Map, _, _ State, diff item.StateDiff) (item.ApplyCheck, error) {
	d, ok := diff.(Diff)
	if !ok {
		return item.ApplyCheck{}, fmt.Errorf("fileitem: apply_check: unexpected diff type %T", diff)
	}
	if !d.Changed() {
		return item.NotRequired(), nil
	}
	return item.Required(progress.Limit{Kind: progress.LimitBytes, Value: uint64(d.ByteLen)}), nil
}

// ApplyDry must not touch the filesystem but reports the state apply would
// produce, so downstream items can keep going against a placeholder
// (item.go's ApplyDry doc comment).
func (it *Item) ApplyDry(_ item.FnCtx, _ Params, _ *resources.Map, _, target State, _ item.StateDiff) (State, error) {
	return target, nil
}

func (it *Item) Apply(fnCtx item.FnCtx, p Params, _ *resources.Map, _, target State, diff item.StateDiff) (State, error) {
	d, ok := diff.(Diff)
	if !ok {
		return State{}, fmt.Errorf("fileitem: apply: unexpected diff type %T", diff)
	}

	switch d.Kind {
	case DiffDeleted:
		fnCtx.Progress.Tick("removing file")
		if err := os.Remove(d.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return State{}, fmt.Errorf("fileitem: removing %s: %w", d.Path, err)
		}
		return target, nil

	case DiffChange:
		fnCtx.Progress.Tick("writing file")
		if dir := filepath.Dir(p.Dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return State{}, fmt.Errorf("fileitem: creating parent dirs for %s: %w", p.Dest, err)
			}
		}
		if err := os.WriteFile(p.Dest, []byte(p.Contents), 0o644); err != nil {
			return State{}, fmt.Errorf("fileitem: writing %s: %w", p.Dest, err)
		}
		fnCtx.Progress.Inc(uint64(d.ByteLen), "")
		return target, nil

	default:
		return State{}, fmt.Errorf("fileitem: apply called with no-change diff %v", d)
	}
}
